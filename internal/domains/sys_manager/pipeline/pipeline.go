package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xpanvictor/parley/internal/constants/prompts"
	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/assistant"
	"github.com/xpanvictor/parley/pkg/io/stt"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
	"github.com/xpanvictor/parley/pkg/io/stt/wav"
	"github.com/xpanvictor/parley/pkg/io/tts"
)

type Config struct {
	TopK      int
	Separator string
	Noise     NoiseFilter
	Apology   string
}

func DefaultConfig() Config {
	return Config{
		TopK:      3,
		Separator: "\n\n---\n\n",
		Noise:     defaultNoise,
		Apology:   prompts.APOLOGY,
	}
}

// Deps are the external service ports. Retriever may be nil.
type Deps struct {
	Transcriber stt.Transcriber
	Retriever   Retriever
	Responder   assistant.Responder
	Synthesizer tts.Synthesizer
}

// Pipeline runs transcribe, retrieve, respond and synthesize for one segment.
// It holds no per-session state and is shared by all sessions.
type Pipeline struct {
	deps   Deps
	cfg    Config
	logger *Logger.Logger
}

func New(deps Deps, cfg Config, logger *Logger.Logger) *Pipeline {
	if cfg.Apology == "" {
		cfg.Apology = prompts.APOLOGY
	}
	return &Pipeline{deps: deps, cfg: cfg, logger: logger.Named("pipeline")}
}

// Run emits results in stage order and always returns a Done for gen.
// Service failures degrade per stage; a panic is recovered into OutcomeFailed.
func (p *Pipeline) Run(
	ctx context.Context,
	seg audioring.AudioSegment,
	gen uint64,
	src TTSSource,
	emit func(Result),
) (done Done) {
	started := time.Now()
	done.Generation = gen
	defer func() {
		if r := recover(); r != nil {
			done.Outcome = OutcomeFailed
			done.Err = fmt.Errorf("pipeline panic: %v", r)
			p.logger.Errorf("gen %d: %v", gen, done.Err)
		}
		done.Took = time.Since(started)
	}()

	// 1. transcribe
	text, err := p.deps.Transcriber.Transcribe(ctx, wav.Encode(seg.Samples, seg.SampleRate), "wav")
	if err != nil {
		if ctx.Err() != nil {
			done.Outcome = OutcomeCanceled
			return done
		}
		p.logger.Warnf("gen %d: transcription failed: %v", gen, err)
		done.Outcome, done.Err = OutcomeNoTranscript, fmt.Errorf("%w: %v", ErrTranscription, err)
		return done
	}
	text = strings.TrimSpace(text)
	if p.cfg.Noise.IsNoise(text) {
		p.logger.Debugf("gen %d: dropping noise transcript %q", gen, text)
		done.Outcome = OutcomeNoise
		return done
	}

	// 2. transcript
	emit(Result{Generation: gen, Kind: Transcript, Text: text})

	// 3. context
	contextText := p.retrieve(ctx, gen, text)
	if ctx.Err() != nil {
		done.Outcome = OutcomeCanceled
		return done
	}

	// 4. reply
	reply, err := p.deps.Responder.Respond(ctx, text, contextText)
	if ctx.Err() != nil {
		done.Outcome = OutcomeCanceled
		return done
	}
	if err != nil {
		p.logger.Warnf("gen %d: reply failed, using apology: %v", gen, err)
		done.Err = fmt.Errorf("%w: %v", ErrGeneration, err)
		reply = p.cfg.Apology
	}

	// 5. reply out
	emit(Result{Generation: gen, Kind: Reply, Text: reply})

	// 6. synthesize with the config as it is now
	cfg := src.TTSConfig()
	audio, err := p.deps.Synthesizer.Synthesize(ctx, reply, cfg)
	if ctx.Err() != nil {
		done.Outcome = OutcomeCanceled
		return done
	}
	if err != nil || len(audio.Data) == 0 {
		if err == nil {
			err = tts.ErrEmptyAudio
		}
		p.logger.Warnf("gen %d: synthesis via %q failed, skipping audio: %v", gen, cfg.Service, err)
		done.Err = errors.Join(done.Err, fmt.Errorf("%w: %v", ErrSynthesis, err))
		done.Outcome = OutcomeCompleted
		return done
	}

	// 7. audio out
	emit(Result{Generation: gen, Kind: AudioOut, Audio: audio})
	done.Outcome = OutcomeCompleted
	return done
}

func (p *Pipeline) retrieve(ctx context.Context, gen uint64, query string) string {
	if p.deps.Retriever == nil || p.cfg.TopK <= 0 {
		return ""
	}
	snippets, err := p.deps.Retriever.Retrieve(ctx, query, p.cfg.TopK)
	if err != nil {
		p.logger.Warnf("gen %d: retrieval failed, continuing without context: %v", gen, err)
		return ""
	}
	if len(snippets) > p.cfg.TopK {
		snippets = snippets[:p.cfg.TopK]
	}
	return strings.Join(snippets, p.cfg.Separator)
}
