package features

import (
	"math"

	"github.com/himanishpuri/HitDNA/internal/tonal"
)

// Synthesizer fuses upstream analysis into a FeatureVector. Each descriptor
// is evaluated on its own; one that fails or yields a non-finite value is
// replaced by its fallback without affecting the rest.
type Synthesizer struct {
	descriptors []Descriptor
}

// NewSynthesizer builds a Synthesizer over DefaultDescriptors. Overrides
// replace the default descriptor of the same name.
func NewSynthesizer(overrides ...Descriptor) *Synthesizer {
	descriptors := DefaultDescriptors()
	for _, o := range overrides {
		for i := range descriptors {
			if descriptors[i].Name == o.Name {
				descriptors[i] = o
			}
		}
	}
	return &Synthesizer{descriptors: descriptors}
}

// Synthesize returns the feature vector and the names of descriptors that
// fell back, in evaluation order.
func (s *Synthesizer) Synthesize(in *Inputs) (FeatureVector, []string) {
	var fallbacks []string
	v := FeatureVector{TimeSignature: TimeSignature}

	if in.SampleRate > 0 {
		v.DurationMin = float64(in.SampleCount) / float64(in.SampleRate) / 60
	}
	if in.Rhythm != nil && in.Rhythm.Tempo > 0 {
		v.Tempo = in.Rhythm.Tempo
	}

	var chroma [][]float64
	if in.Spectrum != nil {
		chroma = in.Spectrum.Chroma
	}
	key, mode, err := tonal.Estimate(chroma)
	if err != nil {
		fallbacks = append(fallbacks, "key", "mode")
	}
	v.Key, v.Mode = key, mode

	for _, d := range s.descriptors {
		value, err := d.Compute(in)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			fallbacks = append(fallbacks, d.Name)
			value = d.Fallback
		} else {
			value = math.Max(d.Min, math.Min(d.Max, value))
		}
		if f := v.field(d.Name); f != nil {
			*f = value
		}
	}
	return v, fallbacks
}
