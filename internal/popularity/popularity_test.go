package popularity

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/himanishpuri/HitDNA/internal/features"
)

const modelJSON = `{
  "feature_importance": [0.1, 0.05, 0.05, 0, 0.1, 0, 0.05, 0.1, 0.05, 0, 0.1, 0.1, 0.1, 0, 0.2],
  "scaler_mean":  [2010, 0.5, 0.6, 5, -8, 0.6, 0.1, 0.3, 0.2, 0.2, 0.5, 120, 3.8, 4, 3],
  "scaler_scale": [8, 0.15, 0.2, 3.5, 4, 0.5, 0.1, 0.3, 0.3, 0.15, 0.25, 30, 1.2, 0, 2],
  "genre_mapping": {"pop": 0, "rock": 1, "hip-hop": 2, "electronic": 3},
  "feature_names": ["year", "danceability", "energy", "key", "loudness", "mode", "speechiness",
    "acousticness", "instrumentalness", "liveness", "valence", "tempo", "duration_min",
    "time_signature", "genre_encoded"],
  "sample_songs": [
    {"artist_name": "Daft Punk", "track_name": "One More Time", "popularity": 74, "genre": "electronic",
     "year": 2001, "danceability": 0.61, "energy": 0.7, "key": 2, "loudness": -8.6, "mode": 1,
     "speechiness": 0.13, "acousticness": 0.02, "instrumentalness": 0, "liveness": 0.33,
     "valence": 0.48, "tempo": 122.7, "duration_min": 5.33, "time_signature": 4},
    {"artist_name": "Queen", "track_name": "Bohemian Rhapsody", "popularity": 80, "genre": "rock", "year": 1975},
    {"artist_name": "Adele", "track_name": "Hello", "popularity": 70, "genre": "pop", "year": 2015}
  ],
  "base_popularity": 50
}`

func loadTestModel(t *testing.T) *ModelData {
	t.Helper()
	m, err := ParseModelData(strings.NewReader(modelJSON))
	if err != nil {
		t.Fatalf("ParseModelData failed: %v", err)
	}
	return m
}

func TestRowOrder(t *testing.T) {
	v := features.FeatureVector{
		DurationMin: 3.2, Tempo: 128, TimeSignature: 4, Key: 7, Mode: 1,
		Energy: 0.8, Loudness: -5, Danceability: 0.7, Valence: 0.6, Acousticness: 0.1,
		Instrumentalness: 0.9, Liveness: 0.2, Speechiness: 0.05,
	}
	row := Row(v, 2023, 3)
	expected := [NumFeatures]float64{2023, 0.7, 0.8, 7, -5, 1, 0.05, 0.1, 0.9, 0.2, 0.6, 128, 3.2, 4, 3}
	if row != expected {
		t.Errorf("Expected %v, got %v", expected, row)
	}
}

func TestScalerTransform(t *testing.T) {
	mean := make([]float64, NumFeatures)
	scale := make([]float64, NumFeatures)
	for i := range mean {
		mean[i] = float64(i)
		scale[i] = 2
	}
	scale[3] = 0

	var row [NumFeatures]float64
	for i := range row {
		row[i] = float64(i) + 4
	}
	z := NewScaler(mean, scale).Transform(row)
	for i, v := range z {
		expected := 2.0
		if i == 3 {
			expected = 4
		}
		if v != expected {
			t.Errorf("Column %d: expected %f, got %f", i, expected, v)
		}
	}
}

func TestPredictAtMeanIsBase(t *testing.T) {
	m := loadTestModel(t)
	p, err := NewPredictor(m)
	if err != nil {
		t.Fatalf("NewPredictor failed: %v", err)
	}

	var row [NumFeatures]float64
	copy(row[:], m.ScalerMean)
	if got := p.Predict(row); math.Abs(got-50) > 1e-9 {
		t.Errorf("Expected base popularity 50, got %f", got)
	}
}

func TestPredictWeightsAndClips(t *testing.T) {
	m := loadTestModel(t)
	p, _ := NewPredictor(m)

	var row [NumFeatures]float64
	copy(row[:], m.ScalerMean)
	// genre_encoded one standard deviation up: 50 + 10*0.2*1
	row[14] += 2
	if got := p.Predict(row); math.Abs(got-52) > 1e-9 {
		t.Errorf("Expected 52, got %f", got)
	}

	row[0] = 3000
	if got := p.Predict(row); got != 100 {
		t.Errorf("Expected clip at 100, got %f", got)
	}
	row[0] = 1000
	if got := p.Predict(row); got != 0 {
		t.Errorf("Expected clip at 0, got %f", got)
	}
}

func TestValidateRejectsWrongWidth(t *testing.T) {
	m := loadTestModel(t)
	m.ScalerMean = m.ScalerMean[:14]
	if _, err := NewPredictor(m); !errors.Is(err, ErrFeatureCount) {
		t.Errorf("Expected ErrFeatureCount, got %v", err)
	}

	m = loadTestModel(t)
	m.FeatureNames[0] = "release_year"
	if err := m.Validate(); err == nil {
		t.Error("Expected error for reordered feature names")
	}
}

func TestGenreCode(t *testing.T) {
	m := loadTestModel(t)

	if code, err := m.GenreCode(" Electronic "); err != nil || code != 3 {
		t.Errorf("Expected 3, got %d (%v)", code, err)
	}
	if _, err := m.GenreCode("polka"); !errors.Is(err, ErrUnknownGenre) {
		t.Errorf("Expected ErrUnknownGenre, got %v", err)
	}

	genres := m.Genres()
	expected := []string{"pop", "rock", "hip-hop", "electronic"}
	for i := range expected {
		if genres[i] != expected[i] {
			t.Fatalf("Expected %v, got %v", expected, genres)
		}
	}
}

func TestDefaultModelData(t *testing.T) {
	p, err := NewPredictor(DefaultModelData())
	if err != nil {
		t.Fatalf("NewPredictor failed: %v", err)
	}
	v := features.FeatureVector{Tempo: 200, Loudness: -3, TimeSignature: 4}
	if got := p.PredictVector(v, 2023, 0); got != 50 {
		t.Errorf("Neutral model should predict 50, got %f", got)
	}
}

func TestLoadModelData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_data.json")
	if err := os.WriteFile(path, []byte(modelJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadModelData(path)
	if err != nil {
		t.Fatalf("LoadModelData failed: %v", err)
	}
	if len(m.SampleSongs) != 3 || m.BasePopularity != 50 {
		t.Errorf("Unexpected model: %d songs, base %f", len(m.SampleSongs), m.BasePopularity)
	}
	if m.SampleSongs[0].Tempo != 122.7 || m.SampleSongs[0].Key != 2 {
		t.Errorf("Sample song features not decoded: %+v", m.SampleSongs[0])
	}

	if _, err := LoadModelData(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestCatalogue(t *testing.T) {
	c := NewCatalogue(loadTestModel(t).SampleSongs)

	song, ok := c.Find("queen", "BOHEMIAN RHAPSODY")
	if !ok || song.Year != 1975 {
		t.Errorf("Expected to find Queen, got %+v", song)
	}
	if _, ok := c.Find("Queen", "Hello"); ok {
		t.Error("Artist and track must both match")
	}

	rng := rand.New(rand.NewSource(1))
	if got := c.Sample(2, rng); len(got) != 2 || got[0].TrackName == got[1].TrackName {
		t.Errorf("Expected two distinct songs, got %+v", got)
	}
	if got := c.Sample(50, rng); len(got) != 3 {
		t.Errorf("Expected all 3 songs, got %d", len(got))
	}
	if got := c.Sample(0, rng); len(got) != 0 {
		t.Errorf("Expected no songs, got %d", len(got))
	}
}
