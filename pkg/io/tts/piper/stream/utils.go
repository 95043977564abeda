package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrNoFFmpeg = errors.New("ffmpeg not found in PATH")

// Converter shells out to ffmpeg to re-encode WAV clips as MP3.
type Converter struct {
	bin string
}

// NewConverter resolves ffmpeg once. A Converter without a binary always returns ErrNoFFmpeg.
func NewConverter() *Converter {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return &Converter{}
	}
	return &Converter{bin: bin}
}

func (c *Converter) Available() bool { return c != nil && c.bin != "" }

// ToMP3 returns wav unchanged when ct already names mp3.
func (c *Converter) ToMP3(ctx context.Context, wav []byte, ct string) ([]byte, error) {
	if isMP3(ct) {
		return wav, nil
	}
	if len(wav) == 0 {
		return nil, fmt.Errorf("received empty WAV data")
	}
	if !c.Available() {
		return nil, ErrNoFFmpeg
	}

	cmd := exec.CommandContext(ctx, c.bin, "-hide_banner", "-loglevel", "error",
		"-f", "wav",
		"-i", "pipe:0",
		"-f", "mp3",
		"pipe:1",
	)

	var out, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(wav)
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("conversion to mp3 error: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}

func isMP3(ct string) bool {
	ct = strings.ToLower(ct)
	return ct == "audio/mp3" || ct == "audio/mpeg"
}
