package voicestreamsystem

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/internal/domains/sys_manager/pipeline"
	"github.com/xpanvictor/parley/internal/domains/sys_manager/runtime"
	"github.com/xpanvictor/parley/pkg/Logger"
	xio "github.com/xpanvictor/parley/pkg/io"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
	"github.com/xpanvictor/parley/pkg/io/stt/vad"
	"github.com/xpanvictor/parley/pkg/io/tts"
)

var ErrClosed = errors.New("voice session closed")

type Deps struct {
	Runner    Runner
	Catalog   TTSCatalog
	Sink      ClientSink
	Publisher xio.Publisher
	// Detector decides barge-in while speaking. Defaults to an amplitude
	// detector at cfg.InterruptThreshold.
	Detector vad.VAD
	Logger   *Logger.Logger
}

// VSS is the voice session state machine for one connection.
// Every mutation happens on the Run goroutine; the exported methods only enqueue.
type VSS struct {
	sessionID string
	cfg       config.VoiceConfig
	logger    *Logger.Logger

	sink    ClientSink
	runner  Runner
	catalog TTSCatalog
	pub     xio.Publisher
	detect  vad.VAD

	rt  *runtime.SessionRuntime
	seg audioring.Segmenter

	inCh     chan event
	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once

	// owned by the Run goroutine
	baseCtx      context.Context
	silence      *time.Timer
	silenceToken uint64
	turnCancel   context.CancelFunc
	// carry holds samples past a size cut until the turn returns to listening.
	carry []int16

	generation atomic.Uint64

	ttsMu  sync.RWMutex
	ttsCfg tts.Config

	createdAt    time.Time
	lastActivity atomic.Int64
	segments     atomic.Uint64
	turns        atomic.Uint64
	bargeIns     atomic.Uint64
	staleDropped atomic.Uint64
	carried      atomic.Int64
}

// NewVSS builds a session in the idle state. cfg and ttsDefaults are copied;
// later config reloads do not reach an existing session.
func NewVSS(sessionID string, cfg config.VoiceConfig, ttsDefaults tts.Config, deps Deps) *VSS {
	pub := deps.Publisher
	if pub == nil {
		pub = xio.Nop()
	}
	detector := deps.Detector
	if detector == nil {
		detector = vad.NewAmplitudeVAD(vad.VADConfig{Threshold: cfg.InterruptThreshold})
	}
	inbox := cfg.InboxSize
	if inbox <= 0 {
		inbox = 256
	}

	v := &VSS{
		sessionID: sessionID,
		cfg:       cfg,
		logger:    deps.Logger.Named("vss").With("session", sessionID),
		sink:      deps.Sink,
		runner:    deps.Runner,
		catalog:   deps.Catalog,
		pub:       pub,
		detect:    detector,
		seg:       audioring.New(cfg.MaxSegmentSamples(), cfg.SampleRate),
		inCh:      make(chan event, inbox),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		baseCtx:   context.Background(),
		ttsCfg:    ttsDefaults,
		createdAt: time.Now(),
	}
	v.rt = runtime.NewSessionRuntime(sessionID, v.onEnter)
	v.touch()
	return v
}

func (v *VSS) ID() string { return v.sessionID }

// Start, Stop, Audio and SetTTS enqueue inbound client messages.
// They return ErrClosed once the session is shut down.

func (v *VSS) Start() error { return v.post(event{kind: evStart}) }

func (v *VSS) Stop() error { return v.post(event{kind: evStop}) }

func (v *VSS) Audio(samples []int16) error {
	return v.post(event{kind: evAudio, samples: samples})
}

func (v *VSS) SetTTS(patch tts.Config) error {
	return v.post(event{kind: evSetTTS, tts: patch})
}

// Close stops the session and waits for Run to exit. Safe to call more than once.
func (v *VSS) Close() {
	v.quitOnce.Do(func() { close(v.quit) })
	<-v.done
}

func (v *VSS) Done() <-chan struct{} { return v.done }

func (v *VSS) State() runtime.SessionPhase { return v.rt.Phase() }

func (v *VSS) Generation() uint64 { return v.generation.Load() }

// TTSConfig returns a copy of the session's synthesis settings.
func (v *VSS) TTSConfig() tts.Config {
	v.ttsMu.RLock()
	defer v.ttsMu.RUnlock()
	return v.ttsCfg
}

func (v *VSS) LastActivity() time.Time {
	return time.Unix(0, v.lastActivity.Load())
}

func (v *VSS) Stats() Stats {
	return Stats{
		SessionID:    v.sessionID,
		State:        v.State().String(),
		Generation:   v.Generation(),
		Buffered:     v.seg.Len(),
		Carried:      int(v.carried.Load()),
		Capacity:     v.seg.Capacity(),
		Segments:     v.segments.Load(),
		Turns:        v.turns.Load(),
		BargeIns:     v.bargeIns.Load(),
		StaleDropped: v.staleDropped.Load(),
		TTS:          v.TTSConfig(),
		CreatedAt:    v.createdAt,
		LastActivity: v.LastActivity(),
	}
}

// Run is the session actor loop. It returns when ctx ends or Close is called.
func (v *VSS) Run(ctx context.Context) {
	v.baseCtx = ctx
	defer close(v.done)
	v.publish(xio.LifecycleEvent{Kind: xio.SessionOpened, To: v.State().String()})

	for {
		select {
		case <-ctx.Done():
			v.shutdown()
			return
		case <-v.quit:
			v.shutdown()
			return
		case ev := <-v.inCh:
			v.handleEvent(ev)
		}
	}
}

func (v *VSS) post(ev event) error {
	select {
	case <-v.done:
		return ErrClosed
	default:
	}
	select {
	case v.inCh <- ev:
		return nil
	case <-v.done:
		return ErrClosed
	}
}

func (v *VSS) touch() { v.lastActivity.Store(time.Now().UnixNano()) }

func (v *VSS) handleEvent(ev event) {
	switch ev.kind {
	case evStart:
		v.touch()
		v.handleStart()
	case evStop:
		v.touch()
		v.handleStop()
	case evAudio:
		v.touch()
		v.handleAudio(ev.samples)
	case evSetTTS:
		v.touch()
		v.handleSetTTS(ev.tts)
	case evSilence:
		v.handleSilence(ev.token)
	case evResult:
		v.handleResult(ev.result)
	case evDone:
		v.handleDone(ev.done)
	default:
		v.logger.Warnf("unknown event %s", ev.kind)
	}
}

func (v *VSS) handleStart() {
	if !v.rt.Can(runtime.START) {
		v.logger.Debugf("start ignored in %s", v.State())
		return
	}
	v.seg.Reset()
	v.dropCarry()
	v.fire(runtime.START)
}

// handleStop works from every live state and always answers state=idle.
func (v *VSS) handleStop() {
	prev := v.State()
	if prev == runtime.CLOSED {
		return
	}
	v.disarmSilence()
	v.seg.Reset()
	v.dropCarry()
	v.invalidate()
	v.fire(runtime.STOP)
	if prev == runtime.IDLE {
		// no transition happened, so onEnter did not report it
		v.send("state", v.sink.State(runtime.IDLE.String()))
	}
}

func (v *VSS) handleAudio(samples []int16) {
	if len(samples) == 0 {
		return
	}
	switch v.State() {
	case runtime.LISTENING:
		v.capture(samples)
	case runtime.SPEAKING:
		if res := v.detect.Detect(samples); res.HasVoice {
			v.logger.Debugf("barge-in at sample %d, peak %d", res.Position, res.Peak)
			v.bargeIn()
		}
	default:
		// idle and processing drop audio
	}
}

// capture buffers samples while listening. A size cut starts a turn with the
// first full segment; everything after it is carried until the turn ends.
func (v *VSS) capture(samples []int16) {
	cuts := v.seg.Append(samples)
	if len(cuts) == 0 {
		v.armSilence()
		return
	}
	var carry []int16
	for _, c := range cuts[1:] {
		carry = append(carry, c.Samples...)
	}
	if rest, ok := v.seg.Flush(audioring.CutSize); ok {
		carry = append(carry, rest.Samples...)
	}
	v.carry = carry
	v.carried.Store(int64(len(carry)))
	v.cut(cuts[0])
}

// resume re-buffers carried samples once the session is listening again.
func (v *VSS) resume() {
	if len(v.carry) == 0 || v.State() != runtime.LISTENING {
		return
	}
	samples := v.carry
	v.dropCarry()
	v.logger.Debugf("re-buffering %d samples carried past a size cut", len(samples))
	v.capture(samples)
}

func (v *VSS) dropCarry() {
	v.carry = nil
	v.carried.Store(0)
}

func (v *VSS) handleSetTTS(patch tts.Config) {
	next, ignored := v.catalog.Merge(v.TTSConfig(), patch)
	if len(ignored) > 0 {
		v.logger.Warnf("setTTS ignored fields %v in %+v", ignored, patch)
	}
	v.ttsMu.Lock()
	v.ttsCfg = next
	v.ttsMu.Unlock()
	v.send("ttsConfigUpdated", v.sink.TTSConfigUpdated(next))
}

func (v *VSS) handleSilence(token uint64) {
	if token != v.silenceToken {
		return
	}
	v.silence = nil
	if v.State() != runtime.LISTENING {
		return
	}
	if seg, ok := v.seg.Flush(audioring.CutSilence); ok {
		v.cut(seg)
	}
}

// cut hands seg to the pipeline under a fresh generation.
func (v *VSS) cut(seg audioring.AudioSegment) {
	v.disarmSilence()
	v.seg.Reset()
	gen := v.invalidate()
	v.segments.Add(1)

	v.fire(runtime.SEGMENT)

	ctx, cancel := context.WithCancel(v.baseCtx)
	v.turnCancel = cancel
	v.logger.Debugf("gen %d: %s cut, %d samples (%s)", gen, seg.Reason, seg.Len(), seg.Duration())

	go func() {
		done := v.runner.Run(ctx, seg, gen, v, func(r pipeline.Result) {
			_ = v.post(event{kind: evResult, result: r})
		})
		_ = v.post(event{kind: evDone, done: done})
	}()
}

func (v *VSS) stale(gen uint64) bool {
	if gen == v.Generation() {
		return false
	}
	v.staleDropped.Add(1)
	v.logger.Debugf("%v: gen %d, current %d", pipeline.ErrStaleResult, gen, v.Generation())
	return true
}

func (v *VSS) handleResult(r pipeline.Result) {
	if v.stale(r.Generation) {
		return
	}
	phase := v.State()
	switch r.Kind {
	case pipeline.Transcript:
		if phase == runtime.PROCESSING {
			v.send("transcript", v.sink.Transcript(r.Text, true))
		}
	case pipeline.Reply:
		if phase == runtime.PROCESSING {
			v.send("response", v.sink.Response(r.Text))
			v.fire(runtime.REPLY)
		}
	case pipeline.AudioOut:
		if phase == runtime.SPEAKING {
			v.send("audio", v.sink.Audio(r.Audio))
		}
	}
}

func (v *VSS) handleDone(d pipeline.Done) {
	if v.stale(d.Generation) {
		return
	}
	v.endTurn()
	v.turns.Add(1)

	switch {
	case d.Outcome == pipeline.OutcomeFailed:
		v.logger.Errorf("gen %d: %v", d.Generation, d.Err)
		v.send("error", v.sink.Error("Something went wrong processing your request"))
	case d.Aborted():
		v.logger.Debugf("gen %d: dropped as %s", d.Generation, d.Outcome)
	}

	switch v.State() {
	case runtime.PROCESSING:
		v.fire(runtime.ABORT)
	case runtime.SPEAKING:
		v.fire(runtime.FINISH)
	}
	v.publish(xio.LifecycleEvent{
		Kind:       xio.TurnCompleted,
		Generation: d.Generation,
		Outcome:    string(d.Outcome),
		TookMs:     d.Took.Milliseconds(),
	})
	v.resume()
}

// bargeIn stops playback on the client and goes back to capturing.
func (v *VSS) bargeIn() {
	v.bargeIns.Add(1)
	v.send("command", v.sink.Command(CommandStopAudio))
	v.seg.Reset()
	v.dropCarry()
	gen := v.invalidate()
	v.fire(runtime.INTERRUPT)
	v.publish(xio.LifecycleEvent{Kind: xio.BargeIn, Generation: gen})
}

// invalidate bumps the generation so results of the running turn are dropped.
func (v *VSS) invalidate() uint64 {
	v.endTurn()
	return v.generation.Add(1)
}

func (v *VSS) endTurn() {
	if v.turnCancel != nil {
		v.turnCancel()
		v.turnCancel = nil
	}
}

func (v *VSS) armSilence() {
	v.disarmSilence()
	tok := v.silenceToken
	v.silence = time.AfterFunc(v.cfg.EndpointTimeout(), func() {
		_ = v.post(event{kind: evSilence, token: tok})
	})
}

// disarmSilence also retires a timer that already fired but is still queued.
func (v *VSS) disarmSilence() {
	if v.silence != nil {
		v.silence.Stop()
		v.silence = nil
	}
	v.silenceToken++
}

func (v *VSS) shutdown() {
	v.disarmSilence()
	v.seg.Reset()
	v.dropCarry()
	gen := v.invalidate()
	if v.State() != runtime.CLOSED {
		v.fire(runtime.CLOSE)
	}
	v.publish(xio.LifecycleEvent{Kind: xio.SessionClosed, Generation: gen})
	v.logger.Infof("closed after %d turns", v.turns.Load())
}

// fire uses a fresh context: the fsm refuses to transition on a canceled one,
// and shutdown runs after the run context is gone.
func (v *VSS) fire(ev runtime.SessionEvent) {
	if err := v.rt.Fire(context.Background(), ev); err != nil {
		v.logger.Warnf("event %s rejected in %s: %v", ev, v.State(), err)
	}
}

// onEnter runs inside fire for every real state change.
func (v *VSS) onEnter(from, to runtime.SessionPhase) {
	if to != runtime.CLOSED {
		v.send("state", v.sink.State(to.String()))
	}
	v.publish(xio.LifecycleEvent{Kind: xio.StateChanged, From: from.String(), To: to.String()})
}

func (v *VSS) send(kind string, err error) {
	if err != nil {
		v.logger.Debugf("send %s: %v", kind, err)
	}
}

func (v *VSS) publish(ev xio.LifecycleEvent) {
	ev.SessionID = v.sessionID
	if ev.Generation == 0 {
		ev.Generation = v.Generation()
	}
	ev.At = time.Now()
	v.pub.Publish(v.baseCtx, ev)
}
