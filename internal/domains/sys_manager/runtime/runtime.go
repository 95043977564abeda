package runtime

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// Every voice session owns one of these.
// Transitions:
//
//	idle -start-> listening -segment-> processing -reply-> speaking -finish-> listening
//	processing -abort-> listening, speaking -interrupt-> listening
//	any -stop-> idle, any -close-> closed
type SessionRuntime struct {
	SessionID    string
	StateMachine *fsm.FSM
}

var live = []string{IDLE.String(), LISTENING.String(), PROCESSING.String(), SPEAKING.String()}

func transitions() fsm.Events {
	return fsm.Events{
		{Name: START.String(), Src: []string{IDLE.String()}, Dst: LISTENING.String()},
		{Name: STOP.String(), Src: live, Dst: IDLE.String()},
		{Name: SEGMENT.String(), Src: []string{LISTENING.String()}, Dst: PROCESSING.String()},
		{Name: REPLY.String(), Src: []string{PROCESSING.String()}, Dst: SPEAKING.String()},
		{Name: ABORT.String(), Src: []string{PROCESSING.String()}, Dst: LISTENING.String()},
		{Name: FINISH.String(), Src: []string{PROCESSING.String(), SPEAKING.String()}, Dst: LISTENING.String()},
		{Name: INTERRUPT.String(), Src: []string{SPEAKING.String()}, Dst: LISTENING.String()},
		{Name: CLOSE.String(), Src: live, Dst: CLOSED.String()},
	}
}

// NewSessionRuntime builds the transition table. onEnter runs synchronously
// after every real state change, on the goroutine that fired the event.
func NewSessionRuntime(sessionID string, onEnter func(from, to SessionPhase)) *SessionRuntime {
	callbacks := fsm.Callbacks{}
	if onEnter != nil {
		callbacks["enter_state"] = func(_ context.Context, e *fsm.Event) {
			onEnter(SessionPhase(e.Src), SessionPhase(e.Dst))
		}
	}
	return &SessionRuntime{
		SessionID:    sessionID,
		StateMachine: fsm.NewFSM(IDLE.String(), transitions(), callbacks),
	}
}

func (r *SessionRuntime) Phase() SessionPhase {
	return SessionPhase(r.StateMachine.Current())
}

func (r *SessionRuntime) Can(ev SessionEvent) bool {
	return r.StateMachine.Can(ev.String())
}

// Fire applies ev. A self transition (stop while idle) is not an error.
func (r *SessionRuntime) Fire(ctx context.Context, ev SessionEvent) error {
	err := r.StateMachine.Event(ctx, ev.String())
	var same fsm.NoTransitionError
	if errors.As(err, &same) && same.Err == nil {
		return nil
	}
	return err
}
