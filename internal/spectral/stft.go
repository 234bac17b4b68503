package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Tunables
const (
	WindowSize = 2048
	HopSize    = 512
)

// FrameCount returns how many full windows fit into n samples at the given hop.
// Frames are never padded, so a buffer shorter than one window has no frames.
func FrameCount(n, windowSize, hopSize int) int {
	if windowSize <= 0 || hopSize <= 0 || n < windowSize {
		return 0
	}
	return 1 + (n-windowSize)/hopSize
}

// BinFrequencies returns the centre frequency in Hz of each non-negative FFT bin.
func BinFrequencies(sampleRate, windowSize int) []float64 {
	freqs := make([]float64, windowSize/2+1)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / float64(windowSize)
	}
	return freqs
}

// MagnitudeSpectrum keeps bins 0..N/2 inclusive of a real signal's spectrum.
func MagnitudeSpectrum(spectrum []complex128) []float64 {
	half := len(spectrum) / 2
	mag := make([]float64, half+1)
	for i := 0; i <= half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// STFT computes a time-major magnitude spectrogram: spectrogram[frame][bin].
// Each frame is Hann windowed before the transform.
func STFT(samples []float64, windowSize, hopSize int) [][]float64 {
	n := FrameCount(len(samples), windowSize, hopSize)
	spectrogram := make([][]float64, n)
	if n == 0 {
		return spectrogram
	}
	win := window.Hann(windowSize)
	frame := make([]float64, windowSize)
	for i := 0; i < n; i++ {
		start := i * hopSize
		for j, w := range win {
			frame[j] = samples[start+j] * w
		}
		spectrogram[i] = MagnitudeSpectrum(fft.FFTReal(frame))
	}
	return spectrogram
}
