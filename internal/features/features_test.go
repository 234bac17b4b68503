package features

import (
	"errors"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/himanishpuri/HitDNA/internal/audio"
	"github.com/himanishpuri/HitDNA/internal/rhythm"
	"github.com/himanishpuri/HitDNA/internal/spectral"
)

const testRate = 22050

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}

func newTestAnalyzer(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(testRate, append([]Option{WithLogger(nopLogger{})}, opts...)...)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}
	return a
}

func analyze(t *testing.T, a *Analyzer, samples []float64) *Report {
	t.Helper()
	r, err := a.Analyze(audio.PCMBuffer{Samples: samples, SampleRate: testRate})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return r
}

// toneWithNoise is a buffer every descriptor can be computed for.
func toneWithNoise() []float64 {
	samples := audio.Sine(440, 3, testRate, 0.4)
	noise := audio.WhiteNoise(len(samples), 0.05, 11)
	for i := range samples {
		samples[i] += noise[i]
	}
	return samples
}

func TestAnalyzeSilence(t *testing.T) {
	r := analyze(t, newTestAnalyzer(t), make([]float64, testRate))
	v := r.Features

	if v.Energy != 0 {
		t.Errorf("Expected energy 0, got %f", v.Energy)
	}
	if v.Loudness != -30.0 {
		t.Errorf("Expected loudness -30, got %f", v.Loudness)
	}
	if math.Abs(v.DurationMin-1.0/60) > 1e-12 {
		t.Errorf("Expected duration %f, got %f", 1.0/60, v.DurationMin)
	}
	if v.Tempo != 0 {
		t.Errorf("Expected tempo 0, got %f", v.Tempo)
	}
	if len(r.BeatFrames) != 0 || len(r.BeatTimes) != 0 {
		t.Errorf("Expected no beats, got %v", r.BeatFrames)
	}
	if v.Key != 5 || v.Mode != 1 {
		t.Errorf("Expected fallback key 5 mode 1, got %d/%d", v.Key, v.Mode)
	}
	if v.TimeSignature != 4 {
		t.Errorf("Expected time signature 4, got %d", v.TimeSignature)
	}
}

func TestShortLoudBufferFallsBackOnEnergy(t *testing.T) {
	// 50 ms is shorter than one analysis window, so no RMS frame exists
	r := analyze(t, newTestAnalyzer(t), audio.Sine(440, 0.05, testRate, 0.9))

	if r.Features.Energy != 0 {
		t.Errorf("Expected energy fallback 0, got %f", r.Features.Energy)
	}
	if !slices.Contains(r.Fallbacks, "energy") {
		t.Errorf("Expected energy in fallbacks, got %v", r.Fallbacks)
	}
	// loudness only needs the buffer RMS
	if want := 20 * math.Log10(0.9/math.Sqrt2); math.Abs(r.Features.Loudness-want) > 0.05 {
		t.Errorf("Expected loudness near %.2f, got %.2f", want, r.Features.Loudness)
	}
	if slices.Contains(r.Fallbacks, "loudness") {
		t.Errorf("Loudness should not fall back, got %v", r.Fallbacks)
	}
}

func TestDanceabilityUsesOnsetStrength(t *testing.T) {
	in := &Inputs{
		SampleRate: testRate,
		Rhythm: &rhythm.Result{
			Onset:    []float64{0, 250, 300, 275},
			Strength: []float64{0, 0.6, 0.4, 0.2},
			Tempo:    TargetTempo,
			Beats:    []int{0, 10, 20, 30},
		},
	}
	got, err := danceability(in)
	if err != nil {
		t.Fatalf("danceability failed: %v", err)
	}
	// 0.4*mean(strength) + 0.3*1 + 0.3*1, the raw flux is not used
	if want := 0.4*0.3 + 0.6; math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected %f, got %f", want, got)
	}

	in.Rhythm.Strength = nil
	if _, err := danceability(in); !errors.Is(err, ErrDescriptor) {
		t.Errorf("Expected ErrDescriptor for missing strength, got %v", err)
	}
}

func TestDescriptorsStayInRange(t *testing.T) {
	a := newTestAnalyzer(t)
	inputs := map[string][]float64{
		"empty":       nil,
		"short":       audio.Sine(440, 0.004, testRate, 0.5),
		"silence":     make([]float64, 2*testRate),
		"sine":        audio.Sine(440, 2, testRate, 0.9),
		"noise":       audio.WhiteNoise(2*testRate, 1, 5),
		"clicks":      audio.ClickTrack(120, 4, testRate),
		"full scale":  audio.Sine(60, 2, testRate, 4),
		"tone+noise":  toneWithNoise(),
		"fast clicks": audio.ClickTrack(280, 3, testRate),
	}

	for name, samples := range inputs {
		t.Run(name, func(t *testing.T) {
			v := analyze(t, a, samples).Features

			unit := map[string]float64{
				"energy":           v.Energy,
				"danceability":     v.Danceability,
				"valence":          v.Valence,
				"acousticness":     v.Acousticness,
				"instrumentalness": v.Instrumentalness,
				"liveness":         v.Liveness,
				"speechiness":      v.Speechiness,
			}
			for k, val := range unit {
				if val < 0 || val > 1 || math.IsNaN(val) {
					t.Errorf("%s = %f outside [0, 1]", k, val)
				}
			}
			if v.Loudness < -30 || v.Loudness > 5 {
				t.Errorf("loudness = %f outside [-30, 5]", v.Loudness)
			}
			if v.Key < 0 || v.Key > 11 {
				t.Errorf("key = %d outside [0, 11]", v.Key)
			}
			if v.Mode != 0 && v.Mode != 1 {
				t.Errorf("mode = %d not in {0, 1}", v.Mode)
			}
			if v.Tempo < 0 {
				t.Errorf("tempo = %f is negative", v.Tempo)
			}
			if v.TimeSignature != 4 {
				t.Errorf("time_signature = %d, expected 4", v.TimeSignature)
			}
		})
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := newTestAnalyzer(t)
	samples := toneWithNoise()
	copy(samples, audio.ClickTrack(100, 2, testRate))

	first := analyze(t, a, samples)
	second := analyze(t, a, slices.Clone(samples))

	if first.Features != second.Features {
		t.Errorf("Results differ:\n%+v\n%+v", first.Features, second.Features)
	}
	if !slices.Equal(first.BeatFrames, second.BeatFrames) {
		t.Errorf("Beats differ: %v vs %v", first.BeatFrames, second.BeatFrames)
	}
}

func TestClickTrackIsMoreDanceableThanNoise(t *testing.T) {
	a := newTestAnalyzer(t)
	clicks := audio.ClickTrack(120, 10, testRate)
	// uniform noise in [-a, a] has RMS a/sqrt(3)
	noise := audio.WhiteNoise(len(clicks), audio.RMS(clicks)*math.Sqrt(3), 42)

	c := analyze(t, a, clicks).Features
	n := analyze(t, a, noise).Features

	if math.Abs(c.Tempo-120) > 10 {
		t.Errorf("Expected tempo within 10 BPM of 120, got %.2f", c.Tempo)
	}
	if c.Danceability <= n.Danceability {
		t.Errorf("Click danceability %.3f should exceed noise danceability %.3f", c.Danceability, n.Danceability)
	}
}

func TestDegenerateChromaFallsBack(t *testing.T) {
	chroma := make([][]float64, 20)
	for i := range chroma {
		chroma[i] = make([]float64, 12)
	}
	in := &Inputs{
		SampleCount: 20 * spectral.HopSize,
		SampleRate:  testRate,
		Spectrum:    &spectral.Spectrum{SampleRate: testRate, Chroma: chroma},
		Rhythm:      &rhythm.Result{},
	}

	v, fallbacks := NewSynthesizer().Synthesize(in)
	if v.Key != 5 || v.Mode != 1 {
		t.Errorf("Expected key 5 mode 1, got %d/%d", v.Key, v.Mode)
	}
	if !slices.Contains(fallbacks, "key") || !slices.Contains(fallbacks, "mode") {
		t.Errorf("Expected key and mode in fallbacks, got %v", fallbacks)
	}
}

func TestInjectedFaultIsIsolated(t *testing.T) {
	samples := toneWithNoise()
	base := analyze(t, newTestAnalyzer(t), samples)
	if len(base.Fallbacks) != 0 {
		t.Fatalf("Baseline should compute every descriptor, fell back on %v", base.Fallbacks)
	}

	broken := NewSynthesizer(Descriptor{
		Name:     "instrumentalness",
		Min:      0,
		Max:      1,
		Fallback: 0.5,
		Compute: func(*Inputs) (float64, error) {
			return 0, errors.New("boom")
		},
	})
	faulty := analyze(t, newTestAnalyzer(t, WithSynthesizer(broken)), samples)

	if faulty.Features.Instrumentalness != 0.5 {
		t.Errorf("Expected instrumentalness fallback 0.5, got %f", faulty.Features.Instrumentalness)
	}
	if !slices.Equal(faulty.Fallbacks, []string{"instrumentalness"}) {
		t.Errorf("Expected only instrumentalness to fall back, got %v", faulty.Fallbacks)
	}

	expected := base.Features
	expected.Instrumentalness = 0.5
	if faulty.Features != expected {
		t.Errorf("Other descriptors changed:\nbase   %+v\nfaulty %+v", base.Features, faulty.Features)
	}
}

func TestEmptyCepstralMatrixIsIsolated(t *testing.T) {
	samples := toneWithNoise()
	sa, err := spectral.NewAnalyzer(spectral.DefaultConfig(testRate))
	if err != nil {
		t.Fatal(err)
	}
	spectrum := sa.Analyze(samples)
	in := &Inputs{
		SampleCount: len(samples),
		SampleRate:  testRate,
		GlobalRMS:   audio.RMS(samples),
		Spectrum:    spectrum,
		Rhythm:      rhythm.Analyze(spectrum.Magnitudes, testRate, spectral.HopSize),
	}
	synth := NewSynthesizer()
	base, _ := synth.Synthesize(in)

	stripped := *spectrum
	stripped.MFCC = nil
	in.Spectrum = &stripped
	got, fallbacks := synth.Synthesize(in)

	if got.Instrumentalness != 0.5 || got.Speechiness != 0.05 {
		t.Errorf("Expected cepstral fallbacks 0.5/0.05, got %f/%f", got.Instrumentalness, got.Speechiness)
	}
	if !slices.Equal(fallbacks, []string{"instrumentalness", "speechiness"}) {
		t.Errorf("Unexpected fallbacks %v", fallbacks)
	}
	base.Instrumentalness, base.Speechiness = 0.5, 0.05
	if got != base {
		t.Errorf("Descriptors outside the cepstrum changed:\n%+v\n%+v", base, got)
	}
}

func TestNaNIsReplacedByFallback(t *testing.T) {
	synth := NewSynthesizer(Descriptor{
		Name:     "liveness",
		Min:      0,
		Max:      1,
		Fallback: 0.1,
		Compute:  func(*Inputs) (float64, error) { return math.NaN(), nil },
	})
	v, fallbacks := synth.Synthesize(&Inputs{SampleRate: testRate})
	if v.Liveness != 0.1 {
		t.Errorf("Expected liveness 0.1, got %f", v.Liveness)
	}
	if !slices.Contains(fallbacks, "liveness") {
		t.Errorf("Expected liveness in fallbacks, got %v", fallbacks)
	}
}

func TestConcurrentAnalyze(t *testing.T) {
	a := newTestAnalyzer(t)
	buffers := [][]float64{
		toneWithNoise(),
		audio.ClickTrack(120, 3, testRate),
		audio.WhiteNoise(2*testRate, 0.5, 9),
		make([]float64, testRate),
	}
	expected := make([]FeatureVector, len(buffers))
	for i, b := range buffers {
		expected[i] = analyze(t, a, b).Features
	}

	var wg sync.WaitGroup
	errs := make(chan string, len(buffers)*4)
	for round := 0; round < 4; round++ {
		for i, b := range buffers {
			wg.Add(1)
			go func(i int, b []float64) {
				defer wg.Done()
				r, err := a.Analyze(audio.PCMBuffer{Samples: b, SampleRate: testRate})
				if err != nil {
					errs <- err.Error()
					return
				}
				if r.Features != expected[i] {
					errs <- "concurrent result differs from sequential result"
				}
			}(i, b)
		}
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestAnalyzeRejectsBadSampleRate(t *testing.T) {
	a := newTestAnalyzer(t)
	if _, err := a.Analyze(audio.PCMBuffer{Samples: make([]float64, 100), SampleRate: 0}); err == nil {
		t.Error("Expected error for zero sample rate")
	}
	if _, err := a.Analyze(audio.PCMBuffer{Samples: make([]float64, 100), SampleRate: 44100}); err == nil {
		t.Error("Expected error for mismatched sample rate")
	}
	if _, err := NewAnalyzer(-1); err == nil {
		t.Error("Expected error for negative analyzer rate")
	}
}

func TestBeatRegularity(t *testing.T) {
	tests := []struct {
		name     string
		beats    []int
		expected float64
	}{
		{"No beats", nil, 0.5},
		{"One beat", []int{4}, 0.5},
		{"Even", []int{0, 10, 20, 30}, 1},
		{"Uneven", []int{0, 10, 30}, 1 - 5.0/15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BeatRegularity(tt.beats); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestTempoProximity(t *testing.T) {
	tests := []struct {
		tempo, expected float64
	}{
		{120, 1},
		{60, 0.5},
		{180, 0.5},
		{0, 0},
		{300, 0},
	}
	for _, tt := range tests {
		if got := TempoProximity(tt.tempo, TargetTempo); got != tt.expected {
			t.Errorf("TempoProximity(%f) = %f, expected %f", tt.tempo, got, tt.expected)
		}
	}
}

func TestFeatureVectorMap(t *testing.T) {
	v := FeatureVector{DurationMin: 3.5, Tempo: 128, TimeSignature: 4, Key: 7, Mode: 1, Loudness: -6}
	m := v.Map()

	if len(m) != len(Names) {
		t.Fatalf("Expected %d keys, got %d", len(Names), len(m))
	}
	for _, name := range Names {
		if _, ok := m[name]; !ok {
			t.Errorf("Missing key %q", name)
		}
	}

	back, err := FromMap(m)
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	if back != v {
		t.Errorf("Expected %+v, got %+v", v, back)
	}

	delete(m, "tempo")
	if _, err := FromMap(m); err == nil {
		t.Error("Expected error for missing key")
	}
}
