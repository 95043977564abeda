package io

import (
	"context"
	"time"
)

type EventKind string

const (
	SessionOpened EventKind = "session_opened"
	StateChanged  EventKind = "state_changed"
	TurnCompleted EventKind = "turn_completed"
	BargeIn       EventKind = "barge_in"
	SessionClosed EventKind = "session_closed"
)

// LifecycleEvent describes something that happened to one voice session.
// Payloads never carry audio or transcript text.
type LifecycleEvent struct {
	SessionID  string    `json:"sessionId"`
	Kind       EventKind `json:"kind"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Generation uint64    `json:"generation"`
	Outcome    string    `json:"outcome,omitempty"`
	TookMs     int64     `json:"tookMs,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher fans session lifecycle events out to observers.
// Publish must not block the caller on network I/O.
type Publisher interface {
	Publish(ctx context.Context, ev LifecycleEvent)
	Close()
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, LifecycleEvent) {}
func (nopPublisher) Close()                                  {}

// Nop discards every event.
func Nop() Publisher { return nopPublisher{} }

// Recorder is an in-memory Publisher for tests. Events past the buffer size are dropped.
type Recorder struct {
	ch chan LifecycleEvent
}

func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan LifecycleEvent, size)}
}

func (r *Recorder) Publish(_ context.Context, ev LifecycleEvent) {
	select {
	case r.ch <- ev:
	default:
	}
}

func (r *Recorder) Close() {}

func (r *Recorder) Events() <-chan LifecycleEvent { return r.ch }
