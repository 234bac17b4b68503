package audio

import (
	"math"
	"math/rand"
)

// clickLength is the duration of a single click in seconds.
const clickLength = 0.01

// ClickTrack renders an exponentially decaying click at every beat of the
// given tempo. The first click starts at sample 0.
func ClickTrack(bpm, seconds float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	if n <= 0 || bpm <= 0 {
		return make([]float64, max(n, 0))
	}
	out := make([]float64, n)

	period := 60 / bpm * float64(sampleRate)
	clickSamples := int(clickLength * float64(sampleRate))
	for beat := 0; ; beat++ {
		start := int(math.Round(float64(beat) * period))
		if start >= n {
			break
		}
		for k := 0; k < clickSamples && start+k < n; k++ {
			t := float64(k) / float64(sampleRate)
			// 1 kHz burst with a 2 ms decay
			out[start+k] = math.Sin(2*math.Pi*1000*t) * math.Exp(-t/0.002)
		}
	}
	return out
}

// WhiteNoise returns n uniformly distributed samples in [-amplitude, amplitude].
// The same seed always produces the same samples.
func WhiteNoise(n int, amplitude float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Sine returns a pure tone.
func Sine(freq, seconds float64, sampleRate int, amplitude float64) []float64 {
	n := int(seconds * float64(sampleRate))
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// RMS returns the root mean square of samples, or 0 for an empty slice.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}
