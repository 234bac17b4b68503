package hitdna

import (
	"errors"
	"time"

	"github.com/himanishpuri/HitDNA/internal/audio"
	"github.com/himanishpuri/HitDNA/internal/features"
	"github.com/himanishpuri/HitDNA/internal/popularity"
	"github.com/himanishpuri/HitDNA/internal/storage"
)

// FeatureVector is the extracted audio descriptor set.
type FeatureVector = features.FeatureVector

// SampleSong is a reference track bundled with the model.
type SampleSong = popularity.SampleSong

var (
	// ErrDecode reports input that could not be decoded into audio.
	ErrDecode = audio.ErrDecode
	// ErrNotFound reports a missing stored analysis or sample song.
	ErrNotFound = storage.ErrNotFound
	// ErrUnknownGenre reports a genre absent from the model's mapping.
	ErrUnknownGenre = popularity.ErrUnknownGenre
	// ErrNoStorage is returned by record operations when storage is disabled.
	ErrNoStorage = errors.New("hitdna: storage disabled")
)

// AnalyzeOptions labels an analysis. Empty fields fall back to file tags
// and then to the configured defaults.
type AnalyzeOptions struct {
	Title  string
	Artist string
	Genre  string
	Year   int
	Store  bool
}

// Result is one analysed track with its popularity prediction.
type Result struct {
	ID                  string        `json:"id,omitempty"`
	Title               string        `json:"title"`
	Artist              string        `json:"artist"`
	FileName            string        `json:"file_name"`
	Genre               string        `json:"genre"`
	GenreEncoded        int           `json:"genre_encoded"`
	Year                int           `json:"year"`
	Features            FeatureVector `json:"features"`
	KeyName             string        `json:"key_name"`
	BeatCount           int           `json:"beat_count"`
	BeatTimes           []float64     `json:"beat_times,omitempty"`
	Fallbacks           []string      `json:"fallbacks,omitempty"`
	PredictedPopularity float64       `json:"predicted_popularity"`
	CreatedAt           time.Time     `json:"created_at"`
}

// Flat returns the feature mapping extended with the prediction inputs and
// output, the shape served by the analyze endpoints.
func (r *Result) Flat() map[string]any {
	out := make(map[string]any, len(features.Names)+4)
	for k, v := range r.Features.Map() {
		out[k] = v
	}
	out["year"] = r.Year
	out["genre"] = r.Genre
	out["genre_encoded"] = r.GenreEncoded
	out["predicted_popularity"] = r.PredictedPopularity
	return out
}

// Prediction is the model output for one feature vector.
type Prediction struct {
	Popularity   float64 `json:"prediction"`
	Year         int     `json:"year"`
	Genre        string  `json:"genre"`
	GenreEncoded int     `json:"genre_encoded"`
}
