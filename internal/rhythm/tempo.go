package rhythm

import (
	"math"
)

// Tempo search range and prior.
const (
	MinBPM   = 30.0
	MaxBPM   = 300.0
	StartBPM = 120.0
)

// frameRate is the number of onset frames per second.
func frameRate(sampleRate, hopSize int) float64 {
	return float64(sampleRate) / float64(hopSize)
}

// tempoPrior weights a candidate tempo with a log-normal curve centred on
// StartBPM, one octave wide, so half and double tempo lose to the pulse
// a listener would tap.
func tempoPrior(bpm float64) float64 {
	octaves := math.Log2(bpm / StartBPM)
	return math.Exp(-0.5 * octaves * octaves)
}

// autocorrelate returns the unbiased autocorrelation of x at the given lag.
func autocorrelate(x []float64, lag int) float64 {
	var acc float64
	for i := 0; i+lag < len(x); i++ {
		acc += x[i] * x[i+lag]
	}
	return acc / float64(len(x)-lag)
}

// EstimateTempo picks the beats-per-minute whose period shows the strongest
// weighted periodicity in the onset envelope. It returns 0 when the envelope
// is too short or carries no energy.
func EstimateTempo(onset []float64, sampleRate, hopSize int) float64 {
	if len(onset) == 0 || sampleRate <= 0 || hopSize <= 0 {
		return 0
	}
	fps := frameRate(sampleRate, hopSize)
	minLag := int(math.Ceil(60 * fps / MaxBPM))
	maxLag := int(math.Floor(60 * fps / MinBPM))
	minLag = max(minLag, 1)
	maxLag = min(maxLag, len(onset)-1)
	if minLag > maxLag {
		return 0
	}

	scores := make([]float64, maxLag+2)
	best, bestScore := -1, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		bpm := 60 * fps / float64(lag)
		scores[lag] = autocorrelate(onset, lag) * tempoPrior(bpm)
		if scores[lag] > bestScore {
			best, bestScore = lag, scores[lag]
		}
	}
	if best < 0 {
		return 0
	}

	period := float64(best)
	if best > minLag && best < maxLag {
		prev, next := scores[best-1], scores[best+1]
		if denom := prev - 2*bestScore + next; denom < 0 {
			shift := 0.5 * (prev - next) / denom
			period += math.Max(-0.5, math.Min(0.5, shift))
		}
	}
	return 60 * fps / period
}
