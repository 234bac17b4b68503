package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// ReadWav decodes a PCM WAV file of any supported bit depth and returns mono
// samples normalized to [-1, 1] together with the file's sample rate.
// Multi-channel audio is averaged down to one channel.
func ReadWav(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		if dec.Err() != nil {
			return nil, 0, fmt.Errorf("%w: %s: %v", ErrDecode, path, dec.Err())
		}
		return nil, 0, fmt.Errorf("%w: %s is not a valid WAV file", ErrDecode, path)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, 0, fmt.Errorf("%w: WAV audio format %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading PCM data: %v", ErrDecode, err)
	}

	samples, err := toMonoFloat64(buf)
	if err != nil {
		return nil, 0, err
	}
	return samples, int(dec.SampleRate), nil
}

// toMonoFloat64 converts interleaved integer PCM into normalized mono samples.
func toMonoFloat64(buf *audio.IntBuffer) ([]float64, error) {
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("%w: empty PCM buffer", ErrDecode)
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("%w: channel count %d", ErrDecode, channels)
	}

	var offset, scale float64
	switch buf.SourceBitDepth {
	case 8:
		// 8-bit WAV is unsigned
		offset, scale = 128, 1.0/128
	case 16, 24, 32:
		scale = 1.0 / float64(int64(1)<<(buf.SourceBitDepth-1))
	default:
		return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, buf.SourceBitDepth)
	}

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += (float64(buf.Data[i*channels+c]) - offset) * scale
		}
		out[i] = sum / float64(channels)
	}
	return out, nil
}
