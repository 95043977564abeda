package config

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/xpanvictor/parley/pkg/Logger"
)

// Store hands out the settings new sessions are created with.
// A reload swaps the pointer; sessions that already copied their values keep them.
type Store struct {
	current atomic.Pointer[Settings]
}

func NewStore(s *Settings) *Store {
	st := &Store{}
	st.current.Store(s)
	return st
}

func (s *Store) Get() *Settings {
	return s.current.Load()
}

func (s *Store) Voice() VoiceConfig {
	v := s.Get().Voice
	v.NoisePhrases = append([]string(nil), v.NoisePhrases...)
	return v
}

func (s *Store) TTSDefaults() TTSDefaults {
	return s.Get().TTS.Default
}

// apply only takes values that passed validation.
func (s *Store) apply(next *Settings) {
	s.current.Store(next)
}

// Watch re-reads the config file on change and updates store.
// Invalid files are logged and ignored; the previous settings stay active.
func (l *Loader) Watch(store *Store, logger *Logger.Logger, onChange func(*Settings)) {
	if l.ConfigFile() == "" {
		logger.Infof("config: no file in use, hot reload disabled")
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		next, err := l.unmarshal()
		if err != nil {
			logger.Errorf("config: reload of %s rejected: %v", e.Name, err)
			return
		}
		store.apply(next)
		logger.Infof("config: reloaded %s (silence=%s, threshold=%d, tts=%s)",
			e.Name, next.Voice.EndpointTimeout(), next.Voice.InterruptThreshold, next.TTS.Default.Service)
		if onChange != nil {
			onChange(next)
		}
	})
	l.v.WatchConfig()
}
