// Package openai synthesizes speech with the OpenAI audio API.
package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/xpanvictor/parley/pkg/io/tts"
)

const (
	DefaultModel = oai.SpeechModelTTS1
	DefaultVoice = "alloy"
)

type Speech struct {
	client oai.Client
}

var _ tts.Synthesizer = (*Speech)(nil)

func New(opts ...option.RequestOption) *Speech {
	return &Speech{client: oai.NewClient(opts...)}
}

func (s *Speech) Synthesize(ctx context.Context, text string, cfg tts.Config) (tts.Audio, error) {
	if text == "" {
		return tts.Audio{}, tts.ErrEmptyText
	}
	model, voice := cfg.Model, cfg.Voice
	if model == "" {
		model = DefaultModel
	}
	if voice == "" {
		voice = DefaultVoice
	}

	resp, err := s.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
		Input:          text,
		Model:          model,
		Voice:          oai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return tts.Audio{}, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return tts.Audio{}, fmt.Errorf("openai speech: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("openai speech read: %w", err)
	}
	if len(data) == 0 {
		return tts.Audio{}, tts.ErrEmptyAudio
	}
	return tts.Audio{Data: data, Format: "mp3"}, nil
}
