// Package tonal estimates musical key and mode from chroma.
package tonal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Fallback key and mode reported when chroma carries no tonal information.
const (
	FallbackKey  = 5
	FallbackMode = 1
)

const (
	Minor = 0
	Major = 1
)

var ErrDegenerateChroma = errors.New("tonal: degenerate chroma")

// Binary scale templates indexed by pitch class, C = 0.
//
// NOTE: the templates are correlated against the averaged chroma as is,
// without rotating them to the detected key, so mode is judged relative to
// C rather than to the tonic. This is the established heuristic and results
// depend on it; whether it should become key-relative is an open product
// question.
var (
	majorTemplate = []float64{1, 0, 1, 0, 1, 1, 0, 1, 0, 1, 0, 1}
	minorTemplate = []float64{1, 0, 1, 1, 0, 1, 0, 1, 1, 0, 1, 0}
)

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// MeanChroma averages per-frame chroma vectors into one 12-element profile.
func MeanChroma(chroma [][]float64) ([]float64, error) {
	if len(chroma) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrDegenerateChroma)
	}
	mean := make([]float64, 12)
	for i, frame := range chroma {
		if len(frame) != 12 {
			return nil, fmt.Errorf("%w: frame %d has %d pitch classes", ErrDegenerateChroma, i, len(frame))
		}
		floats.Add(mean, frame)
	}
	floats.Scale(1/float64(len(chroma)), mean)
	return mean, nil
}

// Estimate returns the key (pitch class of the strongest mean chroma bin)
// and mode (Major when the profile correlates more with the major template).
// Chroma with no frames or a flat profile cannot be correlated and returns
// ErrDegenerateChroma alongside FallbackKey and FallbackMode.
func Estimate(chroma [][]float64) (key, mode int, err error) {
	mean, err := MeanChroma(chroma)
	if err != nil {
		return FallbackKey, FallbackMode, err
	}
	if stat.PopVariance(mean, nil) == 0 {
		return FallbackKey, FallbackMode, fmt.Errorf("%w: flat profile", ErrDegenerateChroma)
	}

	key = floats.MaxIdx(mean)

	majorCorr := stat.Correlation(mean, majorTemplate, nil)
	minorCorr := stat.Correlation(mean, minorTemplate, nil)
	if math.IsNaN(majorCorr) || math.IsNaN(minorCorr) {
		return FallbackKey, FallbackMode, fmt.Errorf("%w: undefined correlation", ErrDegenerateChroma)
	}
	if majorCorr > minorCorr {
		return key, Major, nil
	}
	return key, Minor, nil
}

// KeyName renders a key and mode as text, e.g. "F major".
func KeyName(key, mode int) string {
	if key < 0 || key > 11 {
		return "unknown"
	}
	if mode == Major {
		return pitchNames[key] + " major"
	}
	return pitchNames[key] + " minor"
}
