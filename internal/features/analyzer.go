package features

import (
	"fmt"
	"strings"

	"github.com/himanishpuri/HitDNA/internal/audio"
	"github.com/himanishpuri/HitDNA/internal/rhythm"
	"github.com/himanishpuri/HitDNA/internal/spectral"
	"github.com/himanishpuri/HitDNA/internal/tonal"
	"github.com/himanishpuri/HitDNA/pkg/logger"
)

type Logger interface {
	Debugf(format string, args ...any)
}

// Report is everything one analysis produces.
type Report struct {
	Features   FeatureVector
	KeyName    string
	BeatFrames []int
	BeatTimes  []float64 // seconds
	Fallbacks  []string  // descriptors that used their fallback value
}

// Analyzer runs the full pipeline for one fixed sample rate. It holds no
// per-call state and may be shared between goroutines.
type Analyzer struct {
	sampleRate int
	spectral   *spectral.Analyzer
	synth      *Synthesizer
	log        Logger
}

type Option func(*Analyzer)

func WithLogger(log Logger) Option {
	return func(a *Analyzer) {
		a.log = log
	}
}

func WithSynthesizer(s *Synthesizer) Option {
	return func(a *Analyzer) {
		a.synth = s
	}
}

func NewAnalyzer(sampleRate int, opts ...Option) (*Analyzer, error) {
	sa, err := spectral.NewAnalyzer(spectral.DefaultConfig(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("spectral analyzer: %w", err)
	}
	a := &Analyzer{
		sampleRate: sampleRate,
		spectral:   sa,
		synth:      NewSynthesizer(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.GetLogger().With("[features]")
	}
	return a, nil
}

func (a *Analyzer) SampleRate() int { return a.sampleRate }

// Analyze extracts the feature vector from buf, which must be sampled at the
// analyzer's rate. Descriptor failures never surface as errors.
func (a *Analyzer) Analyze(buf audio.PCMBuffer) (*Report, error) {
	if buf.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", buf.SampleRate)
	}
	if buf.SampleRate != a.sampleRate {
		return nil, fmt.Errorf("buffer sampled at %d Hz, analyzer expects %d Hz", buf.SampleRate, a.sampleRate)
	}

	spectrum := a.spectral.Analyze(buf.Samples)
	hop := a.spectral.Config().HopSize
	rhy := rhythm.Analyze(spectrum.Magnitudes, buf.SampleRate, hop)

	vector, fallbacks := a.synth.Synthesize(&Inputs{
		SampleCount: len(buf.Samples),
		SampleRate:  buf.SampleRate,
		GlobalRMS:   audio.RMS(buf.Samples),
		Spectrum:    spectrum,
		Rhythm:      rhy,
	})
	if len(fallbacks) > 0 {
		a.log.Debugf("fallback values used for %s", strings.Join(fallbacks, ", "))
	}

	return &Report{
		Features:   vector,
		KeyName:    tonal.KeyName(vector.Key, vector.Mode),
		BeatFrames: rhy.Beats,
		BeatTimes:  rhythm.FrameTimes(rhy.Beats, buf.SampleRate, hop),
		Fallbacks:  fallbacks,
	}, nil
}
