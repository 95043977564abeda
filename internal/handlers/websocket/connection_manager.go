package websocket

import (
	"sort"
	"sync"
	"time"

	vss "github.com/xpanvictor/parley/internal/domains/sys_manager/voice_stream_system"
	"github.com/xpanvictor/parley/pkg/Logger"
)

// ConnectionRegistry tracks live voice sessions. Sessions share nothing with
// each other; the registry only exists for liveness, stats and sweeping.
type ConnectionRegistry struct {
	logger         *Logger.Logger
	sessions       map[string]*Session
	mutex          sync.RWMutex
	sessionTimeout time.Duration
	closed         bool
}

// RegistryStats returns connection registry statistics
type RegistryStats struct {
	ActiveSessions int         `json:"activeSessions"`
	SessionTimeout string      `json:"sessionTimeout"`
	Sessions       []vss.Stats `json:"sessions"`
}

func NewConnectionRegistry(logger *Logger.Logger, sessionTimeout time.Duration) *ConnectionRegistry {
	return &ConnectionRegistry{
		logger:         logger,
		sessions:       make(map[string]*Session),
		sessionTimeout: sessionTimeout,
	}
}

// Register adds a session. It reports false once the registry is closed.
func (r *ConnectionRegistry) Register(session *Session) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return false
	}
	r.sessions[session.ID()] = session
	r.logger.Infof("Registered session %s (active: %d)", session.ID(), len(r.sessions))
	return true
}

// Unregister removes and closes a session.
func (r *ConnectionRegistry) Unregister(id string) {
	r.mutex.Lock()
	session, exists := r.sessions[id]
	delete(r.sessions, id)
	r.mutex.Unlock()

	if !exists {
		return
	}
	if err := session.Close(); err != nil {
		r.logger.Debugf("Closing session %s: %v", id, err)
	}
	r.logger.Infof("Unregistered session %s", id)
}

func (r *ConnectionRegistry) Get(id string) (*Session, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	session, exists := r.sessions[id]
	return session, exists
}

func (r *ConnectionRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the session timeout and
// returns how many were removed.
func (r *ConnectionRegistry) Sweep() int {
	r.mutex.Lock()
	expired := make([]*Session, 0)
	for id, session := range r.sessions {
		if session.IsExpired(r.sessionTimeout) || !session.IsAlive() {
			expired = append(expired, session)
			delete(r.sessions, id)
		}
	}
	r.mutex.Unlock()

	// close outside the lock, Close waits for the session actor to exit
	for _, session := range expired {
		r.logger.Infof("Cleaning up expired session %s", session.ID())
		_ = session.Close()
	}
	if len(expired) > 0 {
		r.logger.Infof("Cleaned up %d expired sessions", len(expired))
	}
	return len(expired)
}

func (r *ConnectionRegistry) Stats() RegistryStats {
	r.mutex.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mutex.RUnlock()

	stats := RegistryStats{
		ActiveSessions: len(sessions),
		SessionTimeout: r.sessionTimeout.String(),
		Sessions:       make([]vss.Stats, 0, len(sessions)),
	}
	for _, session := range sessions {
		if v := session.Voice(); v != nil {
			stats.Sessions = append(stats.Sessions, v.Stats())
		}
	}
	sort.Slice(stats.Sessions, func(i, j int) bool {
		return stats.Sessions[i].CreatedAt.Before(stats.Sessions[j].CreatedAt)
	})
	return stats
}

// Close shuts every session down and refuses new registrations.
func (r *ConnectionRegistry) Close() error {
	r.mutex.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mutex.Unlock()

	for id, session := range sessions {
		if err := session.Close(); err != nil {
			r.logger.Debugf("Closing session %s: %v", id, err)
		}
	}
	r.logger.Infof("Connection registry closed (%d sessions)", len(sessions))
	return nil
}
