package config

import (
	"errors"
	"time"
)

const (
	FormLong  = "long"
	FormShort = "short"

	fullScale = 32767
)

// VoiceConfig holds the per-session tunables injected into every new session.
type VoiceConfig struct {
	SampleRate          int           `mapstructure:"sample_rate"`
	Form                string        `mapstructure:"form"` // long | short
	SilenceTimeout      time.Duration `mapstructure:"silence_timeout"`
	ShortSilenceTimeout time.Duration `mapstructure:"short_silence_timeout"`
	MaxSegmentSeconds   float64       `mapstructure:"max_segment_seconds"`
	InterruptThreshold  int           `mapstructure:"interrupt_threshold"`
	NoiseMinChars       int           `mapstructure:"noise_min_chars"`
	NoisePhrases        []string      `mapstructure:"noise_phrases"`
	InboxSize           int           `mapstructure:"inbox_size"`
}

func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		SampleRate:          16000,
		Form:                FormLong,
		SilenceTimeout:      2 * time.Second,
		ShortSilenceTimeout: 300 * time.Millisecond,
		MaxSegmentSeconds:   10,
		InterruptThreshold:  491, // ~1.5% of full scale
		NoiseMinChars:       5,
		NoisePhrases:        []string{"okay.", "thank you.", "."},
		InboxSize:           256,
	}
}

// EndpointTimeout is the debounce window that ends an utterance.
func (v VoiceConfig) EndpointTimeout() time.Duration {
	if v.Form == FormShort {
		return v.ShortSilenceTimeout
	}
	return v.SilenceTimeout
}

// MaxSegmentSamples is the hard cap that forces a cut regardless of silence.
func (v VoiceConfig) MaxSegmentSamples() int {
	return int(v.MaxSegmentSeconds * float64(v.SampleRate))
}

func (v VoiceConfig) Validate() error {
	switch {
	case v.SampleRate <= 0:
		return errors.New("sample_rate must be positive")
	case v.Form != FormLong && v.Form != FormShort:
		return errors.New("form must be long or short")
	case v.EndpointTimeout() <= 0:
		return errors.New("silence timeout must be positive")
	case v.MaxSegmentSamples() <= 0:
		return errors.New("max_segment_seconds must be positive")
	case v.InterruptThreshold <= 0 || v.InterruptThreshold > fullScale:
		return errors.New("interrupt_threshold must be in (0, 32767]")
	case v.InboxSize <= 0:
		return errors.New("inbox_size must be positive")
	}
	return nil
}
