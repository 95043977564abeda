package voicestreamsystem

import (
	"context"
	"time"

	"github.com/xpanvictor/parley/internal/domains/sys_manager/pipeline"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
	"github.com/xpanvictor/parley/pkg/io/tts"
)

const CommandStopAudio = "stopAudio"

// ClientSink is the outbound half of the wire protocol for one connection.
type ClientSink interface {
	State(state string) error
	Transcript(text string, final bool) error
	Response(text string) error
	Audio(a tts.Audio) error
	Command(action string) error
	TTSConfigUpdated(cfg tts.Config) error
	Error(message string) error
}

// Runner executes one turn. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, seg audioring.AudioSegment, gen uint64, src pipeline.TTSSource, emit func(pipeline.Result)) pipeline.Done
}

// TTSCatalog validates and merges setTTS updates. *tts.Router satisfies it.
type TTSCatalog interface {
	Merge(cur, patch tts.Config) (tts.Config, []string)
}

type eventKind int

const (
	evStart eventKind = iota
	evStop
	evAudio
	evSetTTS
	evSilence
	evResult
	evDone
)

func (k eventKind) String() string {
	switch k {
	case evStart:
		return "start"
	case evStop:
		return "stop"
	case evAudio:
		return "audio"
	case evSetTTS:
		return "setTTS"
	case evSilence:
		return "silence"
	case evResult:
		return "result"
	case evDone:
		return "done"
	}
	return "unknown"
}

type event struct {
	kind    eventKind
	samples []int16
	tts     tts.Config
	token   uint64
	result  pipeline.Result
	done    pipeline.Done
}

// Stats is a point-in-time view used by the registry and /ws/stats.
type Stats struct {
	SessionID    string     `json:"sessionId"`
	State        string     `json:"state"`
	Generation   uint64     `json:"generation"`
	Buffered     int        `json:"bufferedSamples"`
	Carried      int        `json:"carriedSamples"`
	Capacity     int        `json:"capacitySamples"`
	Segments     uint64     `json:"segments"`
	Turns        uint64     `json:"turns"`
	BargeIns     uint64     `json:"bargeIns"`
	StaleDropped uint64     `json:"staleDropped"`
	TTS          tts.Config `json:"ttsConfig"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastActivity time.Time  `json:"lastActivity"`
}
