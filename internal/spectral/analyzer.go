package spectral

import (
	"errors"
	"fmt"
	"slices"
)

type Config struct {
	SampleRate int
	WindowSize int
	HopSize    int
	NumMels    int
	NumMFCC    int
}

// DefaultConfig returns the analysis parameters used throughout HitDNA.
func DefaultConfig(sampleRate int) Config {
	return Config{
		SampleRate: sampleRate,
		WindowSize: WindowSize,
		HopSize:    HopSize,
		NumMels:    NumMels,
		NumMFCC:    NumMFCC,
	}
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.WindowSize < 2 || c.HopSize <= 0 {
		return fmt.Errorf("invalid framing %d/%d", c.WindowSize, c.HopSize)
	}
	if c.NumMels <= 0 || c.NumMFCC <= 0 || c.NumMFCC > c.NumMels {
		return errors.New("mfcc count must be between 1 and the number of mel bands")
	}
	return nil
}

// Spectrum holds every short-time representation derived from one buffer.
type Spectrum struct {
	SampleRate  int
	Frequencies []float64   // bin centre frequencies in Hz
	Magnitudes  [][]float64 // [frame][bin]
	Chroma      [][]float64 // [frame][pitch class]
	MFCC        [][]float64 // [coefficient][frame]
	Centroid    []float64   // Hz, per frame
	Rolloff     []float64   // Hz, per frame
	Bandwidth   []float64   // Hz, per frame
	RMS         []float64   // per frame
}

// NumFrames returns the number of analysis frames.
func (s *Spectrum) NumFrames() int { return len(s.Magnitudes) }

// Nyquist returns half the sample rate in Hz.
func (s *Spectrum) Nyquist() float64 { return float64(s.SampleRate) / 2 }

// Analyzer computes Spectrum values for a fixed configuration. Filter banks
// are built once; Analyze only reads them, so one Analyzer can serve
// concurrent callers.
type Analyzer struct {
	cfg     Config
	freqs   []float64
	chroma  []int
	melBank []melFilter
	dct     [][]float64
}

func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	freqs := BinFrequencies(cfg.SampleRate, cfg.WindowSize)
	return &Analyzer{
		cfg:     cfg,
		freqs:   freqs,
		chroma:  chromaMap(freqs),
		melBank: melFilterBank(cfg.NumMels, freqs, float64(cfg.SampleRate)/2),
		dct:     dctMatrix(cfg.NumMFCC, cfg.NumMels),
	}, nil
}

func (a *Analyzer) Config() Config { return a.cfg }

// Analyze never fails: a buffer shorter than one window yields a Spectrum
// with zero frames, and silent frames produce zero statistics.
func (a *Analyzer) Analyze(samples []float64) *Spectrum {
	mags := STFT(samples, a.cfg.WindowSize, a.cfg.HopSize)
	n := len(mags)

	s := &Spectrum{
		SampleRate:  a.cfg.SampleRate,
		Frequencies: slices.Clone(a.freqs),
		Magnitudes:  mags,
		Chroma:      make([][]float64, n),
		Centroid:    make([]float64, n),
		Rolloff:     make([]float64, n),
		Bandwidth:   make([]float64, n),
		RMS:         FrameRMS(samples, a.cfg.WindowSize, a.cfg.HopSize),
	}
	for t, mag := range mags {
		s.Chroma[t] = chromaFrame(mag, a.chroma)
		s.Centroid[t] = Centroid(mag, a.freqs)
		s.Rolloff[t] = Rolloff(mag, a.freqs)
		s.Bandwidth[t] = Bandwidth(mag, a.freqs, s.Centroid[t])
	}
	if n > 0 {
		s.MFCC = mfcc(melPowerDB(mags, a.melBank), a.dct)
	}
	return s
}
