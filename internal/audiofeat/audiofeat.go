/*
Package audiofeat computes prosodic convergence metrics between paired
user and assistant voice turns.

Acoustic feature extraction (openSMILE, librosa or similar) happens
outside this module; analyzers only ever see models.AudioFeatures values
parsed from the input. This package turns two such values into similarity
scores in [0, 1].
*/
package audiofeat

import "github.com/entrainlab/entrain/internal/models"

// intensityRangeDB normalizes intensity differences; speech intensity in
// conversation spans roughly a 20 dB range.
const intensityRangeDB = 20.0

// spectralCentroidKey is the spectral descriptor compared for timbre
// similarity when both sides carry it.
const spectralCentroidKey = "spectral_centroid_mean"

// Convergence holds per-feature similarity scores for one user/assistant
// turn pair. Each component is in [0, 1] with higher meaning more alike;
// a component whose inputs are missing or zero scores 0.
type Convergence struct {
	Pitch      float64 `json:"pitch"`
	Intensity  float64 `json:"intensity"`
	SpeechRate float64 `json:"speechRate"`
	Spectral   float64 `json:"spectral"`
	// Overall is the mean of the non-zero components, or 0 when every
	// component is 0.
	Overall float64 `json:"overall"`
}

// Compute measures prosodic similarity between one user turn and one
// assistant turn.
func Compute(user, ai *models.AudioFeatures) Convergence {
	var c Convergence
	if user == nil || ai == nil {
		return c
	}

	c.Pitch = relativeSimilarity(user.PitchMean, ai.PitchMean)
	c.SpeechRate = relativeSimilarity(user.SpeechRate, ai.SpeechRate)

	if user.IntensityMean != 0 && ai.IntensityMean != 0 {
		diff := abs(user.IntensityMean - ai.IntensityMean)
		c.Intensity = 1.0 - min1(diff/intensityRangeDB)
	}

	uc, uok := user.Spectral[spectralCentroidKey]
	ac, aok := ai.Spectral[spectralCentroidKey]
	if uok && aok {
		c.Spectral = relativeSimilarity(uc, ac)
	}

	sum, n := 0.0, 0
	for _, v := range []float64{c.Pitch, c.Intensity, c.SpeechRate, c.Spectral} {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n > 0 {
		c.Overall = sum / float64(n)
	}
	return c
}

// ComputeSeries computes convergence for each aligned turn pair. Both
// slices must have the same length.
func ComputeSeries(user, ai []*models.AudioFeatures) []Convergence {
	n := len(user)
	if len(ai) < n {
		n = len(ai)
	}
	out := make([]Convergence, n)
	for i := 0; i < n; i++ {
		out[i] = Compute(user[i], ai[i])
	}
	return out
}

// relativeSimilarity scores two positive magnitudes by their difference
// relative to their mean: identical values score 1, values differing by
// more than their mean score 0. Non-positive inputs score 0.
func relativeSimilarity(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	mean := (a + b) / 2
	return 1.0 - min1(abs(a-b)/mean)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
