package hitdna

import (
	"context"
)

type Service interface {
	AnalyzeFile(ctx context.Context, audioPath string, opts AnalyzeOptions) (*Result, error)
	AnalyzeSamples(samples []float64, sampleRate int, opts AnalyzeOptions) (*Result, error)
	Predict(features FeatureVector, year int, genre string) (*Prediction, error)
	PredictEncoded(features FeatureVector, year, genreCode int) float64
	Genres() []string
	SampleSongs(n int) []SampleSong
	FindSong(artist, track string) (*SampleSong, error)
	GetAnalysis(id string) (*Result, error)
	ListAnalyses(limit, offset int) ([]Result, error)
	DeleteAnalysis(id string) error
	CountAnalyses() (int64, error)
	Close() error
}

type Storage interface {
	SaveAnalysis(result *Result) (string, error)
	GetAnalysis(id string) (*Result, error)
	ListAnalyses(limit, offset int) ([]Result, error)
	DeleteAnalysis(id string) error
	CountAnalyses() (int64, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
