package wav

import (
	"bytes"
	"testing"
)

func TestEncodeHeaderIsByteExact(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	got := Encode(samples, 16000)

	want := []byte{
		'R', 'I', 'F', 'F',
		46, 0, 0, 0, // 36 + 10
		'W', 'A', 'V', 'E',
		'f', 'm', 't', ' ',
		16, 0, 0, 0,
		1, 0, // PCM
		1, 0, // mono
		0x80, 0x3e, 0, 0, // 16000
		0x00, 0x7d, 0, 0, // 32000
		2, 0,
		16, 0,
		'd', 'a', 't', 'a',
		10, 0, 0, 0,
		0x00, 0x00,
		0x01, 0x00,
		0xff, 0xff,
		0xff, 0x7f,
		0x00, 0x80,
	}

	if !bytes.Equal(got, want) {
		t.Errorf("encoded wav mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestEncodeEmpty(t *testing.T) {
	got := Encode(nil, 16000)
	if len(got) != HeaderSize {
		t.Fatalf("expected bare header, got %d bytes", len(got))
	}
	if got[4] != 36 || got[40] != 0 {
		t.Errorf("unexpected sizes in empty header: riff=%d data=%d", got[4], got[40])
	}
}
