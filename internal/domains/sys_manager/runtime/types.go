package runtime

// SessionPhase is the externally visible state of one voice session.
type SessionPhase string

const (
	IDLE       SessionPhase = "idle"
	LISTENING  SessionPhase = "listening"
	PROCESSING SessionPhase = "processing"
	SPEAKING   SessionPhase = "speaking"
	// terminal, never sent to the client
	CLOSED SessionPhase = "closed"
)

// SessionEvent names the inputs that move a session between phases.
type SessionEvent string

const (
	START     SessionEvent = "start"
	STOP      SessionEvent = "stop"
	SEGMENT   SessionEvent = "segment"   // a segment was cut and handed to the pipeline
	REPLY     SessionEvent = "reply"     // pipeline produced the reply text
	ABORT     SessionEvent = "abort"     // pipeline gave up before replying (noise, stt failure)
	FINISH    SessionEvent = "finish"    // pipeline has no more results
	INTERRUPT SessionEvent = "interrupt" // barge-in while speaking
	CLOSE     SessionEvent = "close"
)

func (p SessionPhase) String() string { return string(p) }

func (e SessionEvent) String() string { return string(e) }
