package audioring

import (
	"time"

	"github.com/smallnest/ringbuffer"
)

// rb_impl keeps the pending utterance as PCM bytes in a ring sized to exactly
// one max segment. A full ring is a size cut.
type rb_impl struct {
	maxSamples int
	sampleRate int
	rb         *ringbuffer.RingBuffer
	now        func() time.Time
}

// Capacity implements Segmenter.
func (r *rb_impl) Capacity() int {
	return r.maxSamples
}

// Len implements Segmenter.
func (r *rb_impl) Len() int {
	return r.rb.Length() / 2
}

// Reset implements Segmenter.
func (r *rb_impl) Reset() {
	r.rb.Reset()
}

// Append implements Segmenter.
func (r *rb_impl) Append(samples []int16) []AudioSegment {
	if len(samples) == 0 {
		return nil
	}

	var cut []AudioSegment
	pending := samplesToPCM(samples)
	for len(pending) > 0 {
		n := r.rb.Free()
		if n > len(pending) {
			n = len(pending)
		}
		// Free is always even: capacity is even and we only move whole samples.
		written, _ := r.rb.Write(pending[:n])
		pending = pending[written:]

		if r.rb.Free() == 0 {
			if seg, ok := r.drain(CutSize); ok {
				cut = append(cut, seg)
			}
		}
	}
	return cut
}

// Flush implements Segmenter.
func (r *rb_impl) Flush(reason CutReason) (AudioSegment, bool) {
	return r.drain(reason)
}

func (r *rb_impl) drain(reason CutReason) (AudioSegment, bool) {
	if r.rb.IsEmpty() {
		return AudioSegment{}, false
	}
	pcm := make([]byte, r.rb.Length())
	n, err := r.rb.Read(pcm)
	if err != nil || n == 0 {
		r.rb.Reset()
		return AudioSegment{}, false
	}
	return AudioSegment{
		Samples:    pcmToSamples(pcm[:n]),
		SampleRate: r.sampleRate,
		CutAt:      r.now(),
		Reason:     reason,
	}, true
}

// New returns a segmenter that cuts at maxSamples.
func New(maxSamples, sampleRate int) Segmenter {
	if maxSamples < 1 {
		maxSamples = 1
	}
	return &rb_impl{
		maxSamples: maxSamples,
		sampleRate: sampleRate,
		rb:         ringbuffer.New(maxSamples * 2).SetBlocking(false),
		now:        time.Now,
	}
}
