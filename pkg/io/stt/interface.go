package stt

import (
	"context"
	"errors"
	"strings"
)

// Transcriber turns one encoded audio clip into text.
// format names the container, e.g. "wav".
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

// TranscriberFunc adapts a plain function to Transcriber.
type TranscriberFunc func(ctx context.Context, audio []byte, format string) (string, error)

func (f TranscriberFunc) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	return f(ctx, audio, format)
}

var ErrEmptyAudio = errors.New("stt: empty audio")

// MimeType returns the content type used when uploading audio of the given format.
func MimeType(format string) string {
	switch strings.ToLower(format) {
	case "wav", "wave":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "webm":
		return "audio/webm"
	default:
		return "application/octet-stream"
	}
}
