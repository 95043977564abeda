package websocket

import (
	"encoding/base64"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	vss "github.com/xpanvictor/parley/internal/domains/sys_manager/voice_stream_system"
	"github.com/xpanvictor/parley/pkg/io/tts"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 20
)

var ErrSessionClosed = errors.New("session not active")

// Session is the transport half of one voice connection. It serializes writes
// to the socket and implements vss.ClientSink.
type Session struct {
	SessionID   uuid.UUID
	Conn        *websocket.Conn
	ConnectedAt time.Time

	voice *vss.VSS

	writeMu    sync.Mutex
	closed     atomic.Bool
	closeOnce  sync.Once
	lastActive atomic.Int64
	stopPing   chan struct{}
}

var _ vss.ClientSink = (*Session)(nil)

// NewSession creates a new WebSocket session
func NewSession(conn *websocket.Conn) *Session {
	s := &Session{
		SessionID:   uuid.New(),
		Conn:        conn,
		ConnectedAt: time.Now(),
		stopPing:    make(chan struct{}),
	}
	s.Touch()
	return s
}

func (s *Session) ID() string { return s.SessionID.String() }

// Attach binds the state machine driven by this connection.
func (s *Session) Attach(v *vss.VSS) { s.voice = v }

func (s *Session) Voice() *vss.VSS { return s.voice }

func (s *Session) Touch() { s.lastActive.Store(time.Now().UnixNano()) }

func (s *Session) LastActive() time.Time {
	last := time.Unix(0, s.lastActive.Load())
	if s.voice != nil {
		if va := s.voice.LastActivity(); va.After(last) {
			return va
		}
	}
	return last
}

// IsExpired checks if the session has expired based on inactivity
func (s *Session) IsExpired(timeout time.Duration) bool {
	return timeout > 0 && time.Since(s.LastActive()) > timeout
}

func (s *Session) IsAlive() bool { return !s.closed.Load() }

func (s *Session) writeJSON(v any) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.Conn.WriteJSON(v)
}

func (s *Session) State(state string) error {
	return s.writeJSON(StateMessage{Type: MessageTypeState, State: state})
}

func (s *Session) Transcript(text string, final bool) error {
	return s.writeJSON(TranscriptMessage{Type: MessageTypeTranscript, Text: text, Final: final})
}

func (s *Session) Response(text string) error {
	return s.writeJSON(ResponseMessage{Type: MessageTypeResponse, Text: text})
}

func (s *Session) Audio(a tts.Audio) error {
	return s.writeJSON(AudioMessage{
		Type:   MessageTypeAudio,
		Data:   base64.StdEncoding.EncodeToString(a.Data),
		Format: a.Format,
	})
}

func (s *Session) Command(action string) error {
	return s.writeJSON(CommandMessage{Type: MessageTypeCommand, Action: action})
}

func (s *Session) TTSConfigUpdated(cfg tts.Config) error {
	return s.writeJSON(TTSConfigMessage{Type: MessageTypeTTSConfigUpdated, TTSConfig: cfg})
}

func (s *Session) Error(message string) error {
	return s.writeJSON(ErrorMessage{Type: MessageTypeError, Message: message})
}

// keepAlive pings the peer until the session closes. WriteControl is safe
// to call next to WriteJSON.
func (s *Session) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-s.stopPing:
			return
		}
	}
}

func (s *Session) prepareRead() {
	s.Conn.SetReadLimit(maxMessageSize)
	_ = s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error {
		return s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// Close stops the state machine and closes the socket. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopPing)
		// closing the socket first unblocks a write in progress
		err = s.Conn.Close()
		if s.voice != nil {
			s.voice.Close()
		}
	})
	return err
}
