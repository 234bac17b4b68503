package hitdna

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/himanishpuri/HitDNA/internal/audio"
	"github.com/himanishpuri/HitDNA/internal/features"
	"github.com/himanishpuri/HitDNA/internal/popularity"
	"github.com/himanishpuri/HitDNA/pkg/logger"
)

// hitService is the default implementation of the Service interface.
// The model, catalogue and analyzer are built once in NewService and only
// read afterwards.
type hitService struct {
	storage   Storage
	log       Logger
	config    *Config
	analyzer  *features.Analyzer
	predictor *popularity.Predictor
	catalogue *popularity.Catalogue

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	model := popularity.DefaultModelData()
	if cfg.ModelDataPath != "" {
		var err error
		model, err = popularity.LoadModelData(cfg.ModelDataPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load model data: %w", err)
		}
		cfg.Logger.Infof("Loaded model data: %d genres, %d sample songs", len(model.GenreMapping), len(model.SampleSongs))
	} else {
		cfg.Logger.Warnf("No model data configured, predictions use the base popularity")
	}

	predictor, err := popularity.NewPredictor(model)
	if err != nil {
		return nil, fmt.Errorf("failed to build predictor: %w", err)
	}

	analyzer, err := features.NewAnalyzer(cfg.SampleRate, features.WithLogger(cfg.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build analyzer: %w", err)
	}

	// Create or use provided storage; an empty DB path disables persistence
	stor := cfg.Storage
	if stor == nil && cfg.DBPath != "" {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &hitService{
		storage:   stor,
		log:       cfg.Logger,
		config:    cfg,
		analyzer:  analyzer,
		predictor: predictor,
		catalogue: popularity.NewCatalogue(model.SampleSongs),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// AnalyzeFile decodes an audio file, extracts its features and predicts its
// popularity. The result is stored when opts.Store is set.
func (s *hitService) AnalyzeFile(ctx context.Context, audioPath string, opts AnalyzeOptions) (*Result, error) {
	s.log.Infof("Analyzing audio: %s", audioPath)

	buf, err := audio.Load(ctx, audioPath, s.config.SampleRate, s.config.TempDir)
	if err != nil {
		return nil, fmt.Errorf("audio decoding failed: %w", err)
	}

	if opts.Title == "" || opts.Artist == "" || opts.Genre == "" || opts.Year == 0 {
		s.fillFromTags(ctx, audioPath, &opts)
	}
	if opts.Title == "" {
		opts.Title = strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	}

	res, err := s.analyze(buf, opts)
	if err != nil {
		return nil, err
	}
	res.FileName = filepath.Base(audioPath)

	if opts.Store {
		if err := s.save(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// AnalyzeSamples runs the analysis on an already decoded mono buffer.
func (s *hitService) AnalyzeSamples(samples []float64, sampleRate int, opts AnalyzeOptions) (*Result, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	buf := audio.PCMBuffer{
		Samples:    audio.Resample(samples, sampleRate, s.config.SampleRate),
		SampleRate: s.config.SampleRate,
	}
	res, err := s.analyze(buf, opts)
	if err != nil {
		return nil, err
	}
	if opts.Store {
		if err := s.save(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *hitService) analyze(buf audio.PCMBuffer, opts AnalyzeOptions) (*Result, error) {
	start := time.Now()
	report, err := s.analyzer.Analyze(buf)
	if err != nil {
		return nil, fmt.Errorf("feature extraction failed: %w", err)
	}

	pred, err := s.Predict(report.Features, opts.Year, opts.Genre)
	if err != nil {
		return nil, err
	}

	s.log.Infof("Extracted features in %v: tempo=%.1f key=%s, %d beats",
		time.Since(start).Round(time.Millisecond), report.Features.Tempo, report.KeyName, len(report.BeatFrames))

	return &Result{
		Title:               opts.Title,
		Artist:              opts.Artist,
		Genre:               pred.Genre,
		GenreEncoded:        pred.GenreEncoded,
		Year:                pred.Year,
		Features:            report.Features,
		KeyName:             report.KeyName,
		BeatCount:           len(report.BeatFrames),
		BeatTimes:           report.BeatTimes,
		Fallbacks:           report.Fallbacks,
		PredictedPopularity: pred.Popularity,
	}, nil
}

// fillFromTags completes empty labels from container tags. Tag read failures
// are not fatal; the analysis simply goes unlabelled.
func (s *hitService) fillFromTags(ctx context.Context, audioPath string, opts *AnalyzeOptions) {
	meta, err := audio.ReadMetadata(ctx, audioPath)
	if err != nil {
		s.log.Debugf("No tags for %s: %v", audioPath, err)
		return
	}
	if opts.Title == "" {
		opts.Title = meta.Title
	}
	if opts.Artist == "" {
		opts.Artist = meta.Artist
	}
	if opts.Genre == "" {
		if _, err := s.predictor.Model().GenreCode(meta.Genre); err == nil {
			opts.Genre = meta.Genre
		}
	}
	if opts.Year == 0 {
		opts.Year = meta.Year
	}
}

func (s *hitService) save(res *Result) error {
	if s.storage == nil {
		return ErrNoStorage
	}
	id, err := s.storage.SaveAnalysis(res)
	if err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}
	s.log.Infof("Stored analysis ID=%s", id)
	return nil
}

// Predict scores a feature vector. Zero year and empty genre take the
// configured defaults. The default genre maps to code 0 when the model
// does not know it; any other unknown genre is an error.
func (s *hitService) Predict(v FeatureVector, year int, genre string) (*Prediction, error) {
	if year == 0 {
		year = s.config.DefaultYear
	}
	if genre == "" {
		genre = s.config.DefaultGenre
	}

	code, err := s.predictor.Model().GenreCode(genre)
	if err != nil {
		if !errors.Is(err, popularity.ErrUnknownGenre) || !strings.EqualFold(genre, s.config.DefaultGenre) {
			return nil, err
		}
		code = 0
	}

	return &Prediction{
		Popularity:   s.predictor.PredictVector(v, year, code),
		Year:         year,
		Genre:        genre,
		GenreEncoded: code,
	}, nil
}

func (s *hitService) PredictEncoded(v FeatureVector, year, genreCode int) float64 {
	return s.predictor.PredictVector(v, year, genreCode)
}

func (s *hitService) Genres() []string {
	return s.predictor.Model().Genres()
}

func (s *hitService) SampleSongs(n int) []SampleSong {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.catalogue.Sample(n, s.rng)
}

func (s *hitService) FindSong(artist, track string) (*SampleSong, error) {
	song, ok := s.catalogue.Find(artist, track)
	if !ok {
		return nil, fmt.Errorf("%w: %s - %s", ErrNotFound, artist, track)
	}
	return song, nil
}

func (s *hitService) GetAnalysis(id string) (*Result, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	return s.storage.GetAnalysis(id)
}

func (s *hitService) ListAnalyses(limit, offset int) ([]Result, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	return s.storage.ListAnalyses(limit, offset)
}

func (s *hitService) DeleteAnalysis(id string) error {
	if s.storage == nil {
		return ErrNoStorage
	}
	if err := s.storage.DeleteAnalysis(id); err != nil {
		return err
	}
	s.log.Infof("Deleted analysis ID=%s", id)
	return nil
}

func (s *hitService) CountAnalyses() (int64, error) {
	if s.storage == nil {
		return 0, ErrNoStorage
	}
	return s.storage.CountAnalyses()
}

func (s *hitService) Close() error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Close()
}
