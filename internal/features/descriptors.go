package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/himanishpuri/HitDNA/internal/rhythm"
	"github.com/himanishpuri/HitDNA/internal/spectral"
	"gonum.org/v1/gonum/stat"
)

// ErrDescriptor marks a descriptor that could not be evaluated. It is
// consumed by the Synthesizer, which substitutes the descriptor's fallback.
var ErrDescriptor = errors.New("features: descriptor computation failed")

// TargetTempo is the tempo considered most danceable.
const TargetTempo = 120.0

// Inputs bundles everything a descriptor may read.
type Inputs struct {
	SampleCount int
	SampleRate  int
	GlobalRMS   float64
	Spectrum    *spectral.Spectrum
	Rhythm      *rhythm.Result
}

func (in *Inputs) nyquist() (float64, error) {
	if in.SampleRate <= 0 {
		return 0, fmt.Errorf("%w: sample rate %d", ErrDescriptor, in.SampleRate)
	}
	return float64(in.SampleRate) / 2, nil
}

func (in *Inputs) spectrum() (*spectral.Spectrum, error) {
	if in.Spectrum == nil || in.Spectrum.NumFrames() == 0 {
		return nil, fmt.Errorf("%w: no spectral frames", ErrDescriptor)
	}
	return in.Spectrum, nil
}

// Descriptor computes one clipped scalar of the feature vector.
type Descriptor struct {
	Name     string
	Min, Max float64
	Fallback float64
	Compute  func(in *Inputs) (float64, error)
}

// DefaultDescriptors returns the heuristic descriptor table in evaluation order.
// Energy needs at least one full analysis frame. Its fallback and the
// loudness fallback equal the values computed for silence.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "energy", Min: 0, Max: 1, Fallback: 0, Compute: energy},
		{Name: "loudness", Min: -30, Max: 5, Fallback: -30, Compute: loudness},
		{Name: "danceability", Min: 0, Max: 1, Fallback: 0.5, Compute: danceability},
		{Name: "valence", Min: 0, Max: 1, Fallback: 0.5, Compute: valence},
		{Name: "acousticness", Min: 0, Max: 1, Fallback: 0.5, Compute: acousticness},
		{Name: "instrumentalness", Min: 0, Max: 1, Fallback: 0.5, Compute: instrumentalness},
		{Name: "liveness", Min: 0, Max: 1, Fallback: 0.1, Compute: liveness},
		{Name: "speechiness", Min: 0, Max: 1, Fallback: 0.05, Compute: speechiness},
	}
}

func energy(in *Inputs) (float64, error) {
	if in.Spectrum == nil || len(in.Spectrum.RMS) == 0 {
		return 0, fmt.Errorf("%w: no RMS frames", ErrDescriptor)
	}
	return stat.Mean(in.Spectrum.RMS, nil) * 10, nil
}

func loudness(in *Inputs) (float64, error) {
	if in.GlobalRMS <= 0 {
		return -30, nil
	}
	return 20 * math.Log10(in.GlobalRMS), nil
}

// TempoProximity is 1 at the target tempo, falling linearly to 0 at 0 and
// twice the target.
func TempoProximity(tempo, target float64) float64 {
	return math.Max(0, 1-math.Abs(tempo-target)/target)
}

// BeatRegularity is one minus the coefficient of variation of beat
// intervals, floored at 0. It is 0.5 when fewer than two beats exist.
func BeatRegularity(beats []int) float64 {
	if len(beats) < 2 {
		return 0.5
	}
	intervals := make([]float64, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		intervals[i-1] = float64(beats[i] - beats[i-1])
	}
	mean, std := stat.PopMeanStdDev(intervals, nil)
	if mean <= 0 {
		return 0
	}
	return math.Max(0, 1-std/mean)
}

func danceability(in *Inputs) (float64, error) {
	if in.Rhythm == nil || len(in.Rhythm.Strength) == 0 {
		return 0, fmt.Errorf("%w: empty onset strength", ErrDescriptor)
	}
	// detrended strength, the raw flux grows with level and would saturate
	strength := stat.Mean(in.Rhythm.Strength, nil)
	return 0.4*strength +
		0.3*TempoProximity(in.Rhythm.Tempo, TargetTempo) +
		0.3*BeatRegularity(in.Rhythm.Beats), nil
}

func valence(in *Inputs) (float64, error) {
	s, err := in.spectrum()
	if err != nil {
		return 0, err
	}
	nyq, err := in.nyquist()
	if err != nil {
		return 0, err
	}
	brightness := stat.Mean(s.Centroid, nil) / nyq
	return 0.6*brightness + 0.4*(1-chromaVarianceMean(s.Chroma)), nil
}

// chromaVarianceMean is the variance of each pitch class over time,
// averaged across the 12 classes.
func chromaVarianceMean(chroma [][]float64) float64 {
	column := make([]float64, len(chroma))
	var sum float64
	for pc := 0; pc < 12; pc++ {
		for t, frame := range chroma {
			column[t] = frame[pc]
		}
		sum += stat.PopVariance(column, nil)
	}
	return sum / 12
}

func acousticness(in *Inputs) (float64, error) {
	s, err := in.spectrum()
	if err != nil {
		return 0, err
	}
	nyq, err := in.nyquist()
	if err != nil {
		return 0, err
	}
	rolloffNorm := stat.Mean(s.Rolloff, nil) / nyq
	centroidNorm := stat.Mean(s.Centroid, nil) / nyq
	return 1 - (0.5*rolloffNorm + 0.5*centroidNorm), nil
}

// cepstralRows returns coefficients lo..hi-1 of the MFCC matrix.
func cepstralRows(in *Inputs, lo, hi int) ([][]float64, error) {
	if in.Spectrum == nil || len(in.Spectrum.MFCC) < hi || len(in.Spectrum.MFCC[lo]) == 0 {
		return nil, fmt.Errorf("%w: cepstral rows %d..%d unavailable", ErrDescriptor, lo, hi-1)
	}
	return in.Spectrum.MFCC[lo:hi], nil
}

func instrumentalness(in *Inputs) (float64, error) {
	rows, err := cepstralRows(in, 1, 4)
	if err != nil {
		return 0, err
	}
	var sum float64
	var n int
	for _, row := range rows {
		for _, v := range row {
			sum += v
		}
		n += len(row)
	}
	return 1 - math.Abs(sum/float64(n))*0.1, nil
}

func liveness(in *Inputs) (float64, error) {
	s, err := in.spectrum()
	if err != nil {
		return 0, err
	}
	return 0.1 * (stat.PopVariance(s.Bandwidth, nil) + stat.PopVariance(s.RMS, nil)), nil
}

func speechiness(in *Inputs) (float64, error) {
	rows, err := cepstralRows(in, 1, 5)
	if err != nil {
		return 0, err
	}
	var sum float64
	var n int
	for _, row := range rows {
		for _, v := range row {
			sum += math.Abs(v)
		}
		n += len(row)
	}
	return 0.1 * sum / float64(n), nil
}
