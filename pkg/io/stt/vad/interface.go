package vad

// VADResult represents the result of voice activity detection on one chunk
type VADResult struct {
	HasVoice bool    `json:"hasVoice"`
	Peak     int     `json:"peak"`     // largest absolute sample
	Energy   float32 `json:"energy"`   // normalized RMS energy, 0-1
	Position int     `json:"position"` // index of the first sample over threshold, -1 if none
}

// VAD decides whether a chunk of 16-bit PCM carries speech.
type VAD interface {
	Detect(samples []int16) VADResult
}

// VADConfig contains configuration for VAD
type VADConfig struct {
	// Threshold is an absolute amplitude on the 16-bit scale.
	Threshold int `json:"threshold"`
}
