// Package popularity scores feature vectors with the exported regression model.
package popularity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/himanishpuri/HitDNA/internal/features"
)

// NumFeatures is the width of a model input row.
const NumFeatures = 15

// RowNames is the column order the model was trained on.
var RowNames = [NumFeatures]string{
	"year", "danceability", "energy", "key", "loudness", "mode",
	"speechiness", "acousticness", "instrumentalness", "liveness",
	"valence", "tempo", "duration_min", "time_signature", "genre_encoded",
}

var (
	ErrFeatureCount = errors.New("popularity: model data does not describe 15 features")
	ErrUnknownGenre = errors.New("popularity: unknown genre")
)

// SampleSong is one reference track shipped with the model.
type SampleSong struct {
	ArtistName string  `json:"artist_name"`
	TrackName  string  `json:"track_name"`
	Popularity float64 `json:"popularity"`
	Genre      string  `json:"genre"`
	Year       int     `json:"year"`
	features.FeatureVector
}

// ModelData is the artifact written by the training pipeline.
type ModelData struct {
	FeatureImportance []float64      `json:"feature_importance"`
	ScalerMean        []float64      `json:"scaler_mean"`
	ScalerScale       []float64      `json:"scaler_scale"`
	GenreMapping      map[string]int `json:"genre_mapping"`
	FeatureNames      []string       `json:"feature_names"`
	SampleSongs       []SampleSong   `json:"sample_songs"`
	BasePopularity    float64        `json:"base_popularity"`
}

// LoadModelData reads and validates a model_data.json file.
func LoadModelData(path string) (*ModelData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseModelData(f)
}

func ParseModelData(r io.Reader) (*ModelData, error) {
	var m ModelData
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding model data: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every per-feature array matches the row layout.
func (m *ModelData) Validate() error {
	for name, n := range map[string]int{
		"feature_importance": len(m.FeatureImportance),
		"scaler_mean":        len(m.ScalerMean),
		"scaler_scale":       len(m.ScalerScale),
	} {
		if n != NumFeatures {
			return fmt.Errorf("%w: %s has %d entries", ErrFeatureCount, name, n)
		}
	}
	if len(m.FeatureNames) > 0 {
		if len(m.FeatureNames) != NumFeatures {
			return fmt.Errorf("%w: feature_names has %d entries", ErrFeatureCount, len(m.FeatureNames))
		}
		for i, name := range m.FeatureNames {
			if name != RowNames[i] {
				return fmt.Errorf("feature %d is %q, expected %q", i, name, RowNames[i])
			}
		}
	}
	return nil
}

// DefaultModelData is a neutral model used when no artifact is configured:
// every prediction equals the base popularity of 50.
func DefaultModelData() *ModelData {
	m := &ModelData{
		FeatureImportance: make([]float64, NumFeatures),
		ScalerMean:        make([]float64, NumFeatures),
		ScalerScale:       make([]float64, NumFeatures),
		GenreMapping:      map[string]int{"pop": 0},
		FeatureNames:      RowNames[:],
		BasePopularity:    50,
	}
	for i := range m.ScalerScale {
		m.ScalerScale[i] = 1
	}
	return m
}

// GenreCode resolves a genre name, ignoring case and surrounding space.
func (m *ModelData) GenreCode(genre string) (int, error) {
	key := strings.ToLower(strings.TrimSpace(genre))
	for name, code := range m.GenreMapping {
		if strings.ToLower(name) == key {
			return code, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGenre, genre)
}

// Genres returns the known genre names sorted by code.
func (m *ModelData) Genres() []string {
	names := make([]string, 0, len(m.GenreMapping))
	for name := range m.GenreMapping {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := m.GenreMapping[names[i]], m.GenreMapping[names[j]]
		if ci != cj {
			return ci < cj
		}
		return names[i] < names[j]
	})
	return names
}
