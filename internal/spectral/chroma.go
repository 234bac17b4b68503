package spectral

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// ChromaMinFreq is C1; bins below it carry no usable pitch.
	ChromaMinFreq = 32.70319566257483
	// tuningA4 anchors the pitch mapping.
	tuningA4 = 440.0
)

// PitchClass maps a frequency to the nearest of the 12 pitch classes, C = 0.
func PitchClass(freq float64) int {
	midi := 69 + 12*math.Log2(freq/tuningA4)
	pc := int(math.Round(midi)) % 12
	if pc < 0 {
		pc += 12
	}
	return pc
}

// chromaMap assigns each FFT bin a pitch class, or -1 when the bin is out of range.
func chromaMap(freqs []float64) []int {
	m := make([]int, len(freqs))
	for k, f := range freqs {
		if f < ChromaMinFreq {
			m[k] = -1
			continue
		}
		m[k] = PitchClass(f)
	}
	return m
}

// chromaFrame folds one magnitude frame into 12 pitch-class energies,
// normalized so the strongest class is 1. A silent frame stays all zero.
func chromaFrame(mag []float64, bins []int) []float64 {
	out := make([]float64, 12)
	for k, pc := range bins {
		if pc < 0 {
			continue
		}
		out[pc] += mag[k] * mag[k]
	}
	if peak := floats.Max(out); peak > 0 {
		for i := range out {
			out[i] /= peak
		}
	}
	return out
}
