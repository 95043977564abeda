// Package elevenlabs synthesizes speech with the ElevenLabs REST API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xpanvictor/parley/pkg/io/tts"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	DefaultModel   = "eleven_turbo_v2_5"
)

type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

var _ tts.Synthesizer = (*Client)(nil)

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		hc:      &http.Client{Timeout: timeout},
	}
}

type speechRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (c *Client) Synthesize(ctx context.Context, text string, cfg tts.Config) (tts.Audio, error) {
	if text == "" {
		return tts.Audio{}, tts.ErrEmptyText
	}
	voice, model := cfg.Voice, cfg.Model
	if voice == "" {
		voice = DefaultVoiceID
	}
	if model == "" {
		model = DefaultModel
	}

	payload, err := json.Marshal(speechRequest{Text: text, ModelID: model})
	if err != nil {
		return tts.Audio{}, err
	}
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=mp3_44100_128", c.baseURL, url.PathEscape(voice))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return tts.Audio{}, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.hc.Do(req)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("elevenlabs read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tts.Audio{}, fmt.Errorf("elevenlabs http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(body) == 0 {
		return tts.Audio{}, tts.ErrEmptyAudio
	}
	return tts.Audio{Data: body, Format: "mp3"}, nil
}
