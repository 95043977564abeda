package stream

import (
	"context"
	"testing"
)

func TestToMP3PassThrough(t *testing.T) {
	in := []byte{1, 2, 3}
	out, err := (&Converter{}).ToMP3(context.Background(), in, "audio/mpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != string(in) {
		t.Errorf("expected passthrough for mp3 input")
	}
}

func TestToMP3WithoutBinary(t *testing.T) {
	c := &Converter{}
	if c.Available() {
		t.Fatalf("empty converter should not be available")
	}
	if _, err := c.ToMP3(context.Background(), []byte("RIFF"), "audio/wav"); err != ErrNoFFmpeg {
		t.Errorf("expected ErrNoFFmpeg, got %v", err)
	}
	if _, err := c.ToMP3(context.Background(), nil, "audio/wav"); err == nil {
		t.Errorf("expected error for empty input")
	}
}
