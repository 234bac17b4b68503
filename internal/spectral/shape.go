package spectral

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// RolloffPercent is the share of spectral magnitude that lies below the rolloff frequency.
const RolloffPercent = 0.85

// Centroid is the magnitude-weighted mean frequency of a frame, 0 for a silent frame.
func Centroid(mag, freqs []float64) float64 {
	total := floats.Sum(mag)
	if total == 0 {
		return 0
	}
	return floats.Dot(mag, freqs) / total
}

// Rolloff is the lowest bin frequency below which RolloffPercent of the
// frame's magnitude lies, 0 for a silent frame.
func Rolloff(mag, freqs []float64) float64 {
	total := floats.Sum(mag)
	if total == 0 {
		return 0
	}
	threshold := RolloffPercent * total
	var cum float64
	for k, m := range mag {
		cum += m
		if cum >= threshold {
			return freqs[k]
		}
	}
	return freqs[len(freqs)-1]
}

// Bandwidth is the magnitude-weighted spread of a frame around its centroid.
func Bandwidth(mag, freqs []float64, centroid float64) float64 {
	total := floats.Sum(mag)
	if total == 0 {
		return 0
	}
	var acc float64
	for k, m := range mag {
		d := freqs[k] - centroid
		acc += m / total * d * d
	}
	return math.Sqrt(acc)
}

// FrameRMS returns the root mean square of every analysis frame of the raw signal.
func FrameRMS(samples []float64, windowSize, hopSize int) []float64 {
	n := FrameCount(len(samples), windowSize, hopSize)
	out := make([]float64, n)
	for i := range out {
		frame := samples[i*hopSize : i*hopSize+windowSize]
		out[i] = math.Sqrt(floats.Dot(frame, frame) / float64(windowSize))
	}
	return out
}
