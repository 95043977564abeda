package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/xpanvictor/parley/pkg/io/tts"
)

var (
	ErrTranscription = errors.New("transcription failed")
	ErrGeneration    = errors.New("reply generation failed")
	ErrSynthesis     = errors.New("speech synthesis failed")
	ErrStaleResult   = errors.New("stale pipeline result")
)

// Retriever returns up to k snippets relevant to query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// TTSSource is read once per turn, right before synthesis.
type TTSSource interface {
	TTSConfig() tts.Config
}

type ResultKind string

const (
	Transcript ResultKind = "transcript"
	Reply      ResultKind = "reply"
	AudioOut   ResultKind = "audio"
)

// Result is one incremental stage output, tagged with the generation it was cut in.
type Result struct {
	Generation uint64
	Kind       ResultKind
	Text       string
	Audio      tts.Audio
}

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeNoise     Outcome = "noise"
	// OutcomeNoTranscript covers transcription errors; the turn is dropped silently.
	OutcomeNoTranscript Outcome = "no_transcript"
	OutcomeCanceled     Outcome = "canceled"
	OutcomeFailed       Outcome = "failed"
)

// Done closes a run. Err carries the degraded stage error, if any, even on completion.
type Done struct {
	Generation uint64
	Outcome    Outcome
	Err        error
	Took       time.Duration
}

// Aborted reports whether the run ended before a reply was produced.
func (d Done) Aborted() bool {
	return d.Outcome == OutcomeNoise || d.Outcome == OutcomeNoTranscript
}
