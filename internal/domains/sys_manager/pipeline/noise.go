package pipeline

import (
	"strings"
	"unicode/utf8"
)

// NoiseFilter drops transcripts that background sound tends to produce.
type NoiseFilter struct {
	MinChars int
	Phrases  []string
}

var defaultNoise = NoiseFilter{
	MinChars: 5,
	Phrases:  []string{"okay.", "thank you.", "."},
}

func (f NoiseFilter) IsNoise(text string) bool {
	t := strings.TrimSpace(text)
	if utf8.RuneCountInString(t) < f.MinChars {
		return true
	}
	for _, p := range f.Phrases {
		if strings.EqualFold(t, p) {
			return true
		}
	}
	return false
}

// IsNoise applies the default filter.
func IsNoise(text string) bool {
	return defaultNoise.IsNoise(text)
}
