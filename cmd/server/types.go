package main

import (
	"fmt"

	"github.com/himanishpuri/HitDNA/pkg/hitdna"
)

// Upload and listing limits
const (
	// MaxUploadSize bounds the multipart body of POST /api/analyze_audio
	MaxUploadSize = 16 << 20

	// MaxSampleSongs is the number of reference songs returned by GET /api/songs
	MaxSampleSongs = 50

	// DefaultListLimit and MaxListLimit bound GET /api/analyses
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// PredictRequest is the request body for POST /api/predict. Year and genre
// are optional; genre_encoded, when present, bypasses the genre name lookup.
type PredictRequest struct {
	hitdna.FeatureVector
	Year         int    `json:"year,omitempty"`
	Genre        string `json:"genre,omitempty"`
	GenreEncoded *int   `json:"genre_encoded,omitempty"`
}

// Validate checks if the request is valid
func (r *PredictRequest) Validate() error {
	if r.Tempo < 0 {
		return fmt.Errorf("tempo cannot be negative")
	}
	if r.DurationMin < 0 {
		return fmt.Errorf("duration_min cannot be negative")
	}
	if r.Key < 0 || r.Key > 11 {
		return fmt.Errorf("key must be between 0 and 11")
	}
	if r.Mode != 0 && r.Mode != 1 {
		return fmt.Errorf("mode must be 0 or 1")
	}
	if r.Year < 0 {
		return fmt.Errorf("year cannot be negative")
	}
	return nil
}

// PredictResponse is the response for POST /api/predict
type PredictResponse struct {
	Prediction   float64 `json:"prediction"`
	Year         int     `json:"year"`
	Genre        string  `json:"genre,omitempty"`
	GenreEncoded int     `json:"genre_encoded"`
}

// SongDTO represents a reference song in API responses
type SongDTO struct {
	ArtistName string  `json:"artist_name"`
	TrackName  string  `json:"track_name"`
	Popularity float64 `json:"popularity"`
	Genre      string  `json:"genre"`
}

// SongDetailDTO is a reference song with its year and audio features
type SongDetailDTO struct {
	SongDTO
	Year int `json:"year"`
	hitdna.FeatureVector
}

// ListSongsResponse is the response for GET /api/songs
type ListSongsResponse struct {
	Songs []SongDTO `json:"songs"`
	Count int       `json:"count"`
}

// ListAnalysesResponse is the response for GET /api/analyses
type ListAnalysesResponse struct {
	Analyses []hitdna.Result `json:"analyses"`
	Count    int             `json:"count"`
	Total    int64           `json:"total"`
}

// DeleteAnalysisResponse is the response for DELETE /api/analyses/{id}
type DeleteAnalysisResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse provides server health and model metrics
type MetricsResponse struct {
	Status        string   `json:"status"`
	DatabasePath  string   `json:"database_path"`
	AnalysisCount int64    `json:"analysis_count"`
	Genres        []string `json:"genres"`
	SampleRate    int      `json:"sample_rate"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}
