// Package openai transcribes audio with the hosted Whisper model.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/xpanvictor/parley/pkg/io/stt"
)

type Transcriber struct {
	client   oai.Client
	model    string
	language string
}

var _ stt.Transcriber = (*Transcriber)(nil)

func New(model, language string, opts ...option.RequestOption) *Transcriber {
	if model == "" {
		model = oai.AudioModelWhisper1
	}
	if language == "" {
		language = "en"
	}
	return &Transcriber{
		client:   oai.NewClient(opts...),
		model:    model,
		language: language,
	}
}

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	if len(audio) == 0 {
		return "", stt.ErrEmptyAudio
	}
	res, err := t.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		File:     oai.File(bytes.NewReader(audio), "audio."+format, stt.MimeType(format)),
		Model:    oai.AudioModel(t.model),
		Language: oai.String(t.language),
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return strings.TrimSpace(res.Text), nil
}
