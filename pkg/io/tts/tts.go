// Package tts holds the synthesis port and the router that picks a provider per call.
package tts

import (
	"context"
	"errors"
)

// Config selects a provider and voice. Empty Voice/Model mean the provider default.
type Config struct {
	Service string `json:"service"`
	Voice   string `json:"voice"`
	Model   string `json:"model"`
}

// Audio is one synthesized clip. Format is the container tag sent to clients ("mp3", "wav").
type Audio struct {
	Data   []byte
	Format string
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, cfg Config) (Audio, error)
}

var (
	ErrUnknownService = errors.New("tts: unknown service")
	ErrEmptyText      = errors.New("tts: empty text")
	ErrEmptyAudio     = errors.New("tts: provider returned no audio")
)

func pick(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
