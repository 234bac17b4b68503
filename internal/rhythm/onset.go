package rhythm

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	medianRadius = 8
	onsetDelta   = 0.1
)

// OnsetEnvelope is the spectral flux of a magnitude spectrogram: for each
// frame, the sum of the positive bin-wise magnitude increases over the
// previous frame. The first frame scores 0. Values are non-negative and
// scale with the input level.
func OnsetEnvelope(spectrogram [][]float64) []float64 {
	flux := make([]float64, len(spectrogram))
	for t := 1; t < len(spectrogram); t++ {
		flux[t] = positiveRise(spectrogram[t], spectrogram[t-1])
	}
	return flux
}

func positiveRise(cur, prev []float64) float64 {
	var rise float64
	for k, m := range cur {
		if d := m - prev[k]; d > 0 {
			rise += d
		}
	}
	return rise
}

// OnsetStrength is a level-independent onset measure used for tempo, beats
// and danceability. Each frame's flux is taken relative to the frame's total
// magnitude, then its local median (±8 frames) and a fixed 0.1 are
// subtracted and the result is half-wave rectified. Steady textures such as
// noise or held tones score 0 throughout.
func OnsetStrength(spectrogram [][]float64) []float64 {
	rel := make([]float64, len(spectrogram))
	for t := 1; t < len(spectrogram); t++ {
		if total := floats.Sum(spectrogram[t]); total > 0 {
			rel[t] = positiveRise(spectrogram[t], spectrogram[t-1]) / total
		}
	}

	strength := make([]float64, len(rel))
	window := make([]float64, 0, 2*medianRadius+1)
	for t := range rel {
		lo, hi := max(0, t-medianRadius), min(len(rel), t+medianRadius+1)
		window = append(window[:0], rel[lo:hi]...)
		if v := rel[t] - median(window) - onsetDelta; v > 0 {
			strength[t] = v
		}
	}
	return strength
}

// median sorts x in place.
func median(x []float64) float64 {
	sort.Float64s(x)
	n := len(x)
	if n%2 == 1 {
		return x[n/2]
	}
	return (x[n/2-1] + x[n/2]) / 2
}
