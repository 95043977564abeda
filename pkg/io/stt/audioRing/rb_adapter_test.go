package audioring

import (
	"testing"
)

func ramp(from, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(from + i)
	}
	return out
}

func TestSegmenterBasics(t *testing.T) {
	seg := New(8, 16000)

	if seg.Capacity() != 8 {
		t.Errorf("Expected capacity 8, got %d", seg.Capacity())
	}
	if seg.Len() != 0 {
		t.Errorf("Expected empty buffer, got length %d", seg.Len())
	}

	if cut := seg.Append(ramp(0, 5)); len(cut) != 0 {
		t.Errorf("Expected no cut below cap, got %d", len(cut))
	}
	if seg.Len() != 5 {
		t.Errorf("Expected 5 buffered samples, got %d", seg.Len())
	}

	seg.Reset()
	if seg.Len() != 0 {
		t.Errorf("Expected reset to empty the buffer, got %d", seg.Len())
	}
	if _, ok := seg.Flush(CutSilence); ok {
		t.Errorf("Flush on empty buffer must not produce a segment")
	}
}

func TestSegmenterExactCapLeavesNoResidue(t *testing.T) {
	seg := New(8, 16000)

	cut := seg.Append(ramp(0, 8))
	if len(cut) != 1 {
		t.Fatalf("Expected exactly one cut, got %d", len(cut))
	}
	if cut[0].Len() != 8 || cut[0].Reason != CutSize {
		t.Errorf("Expected size cut of 8, got %d (%s)", cut[0].Len(), cut[0].Reason)
	}
	if seg.Len() != 0 {
		t.Errorf("Expected no residue, got %d", seg.Len())
	}
}

func TestSegmenterPreservesOrderAcrossCuts(t *testing.T) {
	seg := New(8, 16000)
	var got []int16

	// 3 + 7 + 13 = 23 samples: two size cuts then a silence flush of 7
	next := 0
	for _, n := range []int{3, 7, 13} {
		for _, c := range seg.Append(ramp(next, n)) {
			if c.Len() != 8 {
				t.Errorf("size cut must be exactly the cap, got %d", c.Len())
			}
			got = append(got, c.Samples...)
		}
		next += n
	}
	tail, ok := seg.Flush(CutSilence)
	if !ok {
		t.Fatalf("Expected a tail segment")
	}
	if tail.Len() != 7 || tail.Reason != CutSilence {
		t.Errorf("Expected silence tail of 7, got %d (%s)", tail.Len(), tail.Reason)
	}
	got = append(got, tail.Samples...)

	if len(got) != 23 {
		t.Fatalf("Expected 23 samples in total, got %d", len(got))
	}
	for i, s := range got {
		if int(s) != i {
			t.Fatalf("Sample %d out of order: got %d", i, s)
		}
	}
}

func TestSegmenterLargeChunkCutsRepeatedly(t *testing.T) {
	seg := New(4, 16000)

	cut := seg.Append(ramp(-10, 10))
	if len(cut) != 2 {
		t.Fatalf("Expected 2 cuts, got %d", len(cut))
	}
	if seg.Len() != 2 {
		t.Errorf("Expected 2 residual samples, got %d", seg.Len())
	}
	if cut[0].Samples[0] != -10 || cut[1].Samples[0] != -6 {
		t.Errorf("Unexpected segment heads %d, %d", cut[0].Samples[0], cut[1].Samples[0])
	}
}

func TestSegmentMetadata(t *testing.T) {
	seg := New(16000, 16000)
	seg.Append(make([]int16, 8000))
	s, ok := seg.Flush(CutSilence)
	if !ok {
		t.Fatal("Expected segment")
	}
	if s.SampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", s.SampleRate)
	}
	if s.Duration().Milliseconds() != 500 {
		t.Errorf("Expected 500ms, got %s", s.Duration())
	}
	if len(s.PCM()) != 16000 {
		t.Errorf("Expected 16000 PCM bytes, got %d", len(s.PCM()))
	}
	if s.CutAt.IsZero() {
		t.Errorf("Expected cut timestamp")
	}
}
