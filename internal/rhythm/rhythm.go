// Package rhythm estimates tempo and beat positions from a magnitude spectrogram.
package rhythm

// Result is the rhythmic summary of one buffer.
type Result struct {
	Onset    []float64 // spectral flux per frame
	Strength []float64 // detrended relative flux, drives tempo and beats
	Tempo    float64
	Beats    []int // frame indices, strictly increasing
}

// Analyze runs onset detection, tempo estimation and beat tracking in order.
// Silent or too-short input yields tempo 0 and no beats.
func Analyze(spectrogram [][]float64, sampleRate, hopSize int) *Result {
	strength := OnsetStrength(spectrogram)
	tempo := EstimateTempo(strength, sampleRate, hopSize)
	return &Result{
		Onset:    OnsetEnvelope(spectrogram),
		Strength: strength,
		Tempo:    tempo,
		Beats:    TrackBeats(strength, tempo, sampleRate, hopSize),
	}
}
