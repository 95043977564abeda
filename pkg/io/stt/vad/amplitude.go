package vad

import "math"

// AmplitudeVAD flags a chunk as voice when any sample's magnitude is strictly
// above the threshold.
type AmplitudeVAD struct {
	config VADConfig
}

func NewAmplitudeVAD(config VADConfig) *AmplitudeVAD {
	return &AmplitudeVAD{config: config}
}

func (a *AmplitudeVAD) Detect(samples []int16) VADResult {
	res := VADResult{Position: -1}
	if len(samples) == 0 {
		return res
	}

	var sum float64
	for i, s := range samples {
		abs := absSample(s)
		if abs > res.Peak {
			res.Peak = abs
		}
		if res.Position < 0 && abs > a.config.Threshold {
			res.Position = i
		}
		sum += float64(s) * float64(s)
	}

	res.HasVoice = res.Position >= 0
	res.Energy = float32(math.Sqrt(sum/float64(len(samples))) / 32768.0)
	return res
}

// absSample widens before negating so -32768 maps to 32768.
func absSample(s int16) int {
	v := int(s)
	if v < 0 {
		return -v
	}
	return v
}
