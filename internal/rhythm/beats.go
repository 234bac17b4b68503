package rhythm

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Tightness penalises beat spacings that stray from the tempo period.
const Tightness = 100.0

// TrackBeats places beats on the onset envelope with dynamic programming:
// each frame's score is its onset strength plus the best predecessor score
// within [period/2, 2*period] frames back, less a log-squared penalty on
// deviation from the period. The path is backtracked from the best score in
// the final period. Frame indices are strictly increasing; the result is
// empty when tempo is not positive or the envelope is empty.
func TrackBeats(onset []float64, tempo float64, sampleRate, hopSize int) []int {
	if tempo <= 0 || len(onset) == 0 || sampleRate <= 0 || hopSize <= 0 {
		return nil
	}
	period := 60 * frameRate(sampleRate, hopSize) / tempo
	if period < 2 {
		return nil
	}

	local := normalizeOnset(onset)
	n := len(local)
	score := make([]float64, n)
	backlink := make([]int, n)

	minBack := max(1, int(math.Round(period/2)))
	maxBack := int(math.Round(2 * period))
	for t := 0; t < n; t++ {
		backlink[t] = -1
		best := math.Inf(-1)
		for tau := t - maxBack; tau <= t-minBack; tau++ {
			if tau < 0 {
				continue
			}
			dev := math.Log(float64(t-tau) / period)
			if s := score[tau] - Tightness*dev*dev; s > best {
				best, backlink[t] = s, tau
			}
		}
		score[t] = local[t]
		if backlink[t] >= 0 {
			score[t] += best
		}
	}

	start := max(0, n-int(math.Round(period)))
	last := start
	for t := start; t < n; t++ {
		if score[t] > score[last] {
			last = t
		}
	}

	var beats []int
	for t := last; t >= 0; t = backlink[t] {
		beats = append(beats, t)
	}
	for i, j := 0, len(beats)-1; i < j; i, j = i+1, j-1 {
		beats[i], beats[j] = beats[j], beats[i]
	}
	return beats
}

// normalizeOnset scales the envelope to unit standard deviation.
func normalizeOnset(onset []float64) []float64 {
	out := make([]float64, len(onset))
	copy(out, onset)
	if _, std := stat.PopMeanStdDev(onset, nil); std > 0 {
		for i := range out {
			out[i] /= std
		}
	}
	return out
}

// FrameTimes converts frame indices to seconds.
func FrameTimes(frames []int, sampleRate, hopSize int) []float64 {
	times := make([]float64, len(frames))
	for i, f := range frames {
		times[i] = float64(f*hopSize) / float64(sampleRate)
	}
	return times
}
