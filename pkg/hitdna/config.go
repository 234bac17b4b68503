package hitdna

import "github.com/himanishpuri/HitDNA/internal/audio"

const (
	DefaultYear  = 2023
	DefaultGenre = "pop"
)

type Config struct {
	DBPath        string
	TempDir       string
	SampleRate    int
	ModelDataPath string
	DefaultYear   int
	DefaultGenre  string
	Logger        Logger
	Storage       Storage
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

// WithModelData points the predictor at a model_data.json artifact. Without
// it a neutral model predicting the base popularity is used.
func WithModelData(path string) Option {
	return func(c *Config) {
		c.ModelDataPath = path
	}
}

func WithDefaultYear(year int) Option {
	return func(c *Config) {
		c.DefaultYear = year
	}
}

func WithDefaultGenre(genre string) Option {
	return func(c *Config) {
		c.DefaultGenre = genre
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:       "hitdna.sqlite3",
		TempDir:      "/tmp",
		SampleRate:   audio.DefaultSampleRate,
		DefaultYear:  DefaultYear,
		DefaultGenre: DefaultGenre,
		Logger:       nil,
	}
}
