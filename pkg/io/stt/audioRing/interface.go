package audioring

import (
	"encoding/binary"
	"time"
)

// AudioSegment is one finished utterance handed to the speech pipeline.
// It is never modified after the segmenter returns it.
type AudioSegment struct {
	Samples    []int16
	SampleRate int
	CutAt      time.Time
	Reason     CutReason
}

type CutReason string

const (
	CutSize    CutReason = "size"
	CutSilence CutReason = "silence"
)

func (s AudioSegment) Len() int {
	return len(s.Samples)
}

func (s AudioSegment) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(s.Samples)) * time.Second / time.Duration(s.SampleRate)
}

// PCM returns the samples as little-endian bytes.
func (s AudioSegment) PCM() []byte {
	return samplesToPCM(s.Samples)
}

// Segmenter buffers samples for one session and decides segment boundaries.
type Segmenter interface {
	// Append buffers samples and returns every segment the size cap forced out, in order.
	Append(samples []int16) []AudioSegment
	// Flush cuts whatever is buffered. ok is false when nothing is buffered.
	Flush(reason CutReason) (seg AudioSegment, ok bool)
	// Reset discards buffered samples.
	Reset()
	// Len is the number of buffered samples.
	Len() int
	// Capacity is the size cap in samples.
	Capacity() int
}

func samplesToPCM(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	return buf
}

func pcmToSamples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	return out
}
