package audio

import (
	"errors"
	"time"
)

// DefaultSampleRate is the rate every analysis runs at unless configured otherwise.
const DefaultSampleRate = 22050

var (
	// ErrDecode is returned when an input cannot be turned into a PCMBuffer.
	ErrDecode = errors.New("audio: decode failure")
	// ErrUnsupportedFormat is returned for WAV encodings the decoder does not handle.
	ErrUnsupportedFormat = errors.New("audio: unsupported format")
)

// PCMBuffer is a mono buffer of samples in [-1, 1] at a fixed rate.
type PCMBuffer struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playing time of the buffer.
func (b PCMBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// Nyquist returns half the sample rate in Hz.
func (b PCMBuffer) Nyquist() float64 {
	return float64(b.SampleRate) / 2
}
