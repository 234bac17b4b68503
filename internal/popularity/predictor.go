package popularity

import (
	"math"

	"github.com/himanishpuri/HitDNA/internal/features"
	"gonum.org/v1/gonum/floats"
)

// Row lays a feature vector out in model column order.
func Row(v features.FeatureVector, year, genreCode int) [NumFeatures]float64 {
	return [NumFeatures]float64{
		float64(year),
		v.Danceability,
		v.Energy,
		float64(v.Key),
		v.Loudness,
		float64(v.Mode),
		v.Speechiness,
		v.Acousticness,
		v.Instrumentalness,
		v.Liveness,
		v.Valence,
		v.Tempo,
		v.DurationMin,
		float64(v.TimeSignature),
		float64(genreCode),
	}
}

// Scaler z-scores rows with precomputed per-column statistics.
type Scaler struct {
	Mean  [NumFeatures]float64
	Scale [NumFeatures]float64
}

// NewScaler copies the statistics; a zero scale is treated as 1.
func NewScaler(mean, scale []float64) Scaler {
	var s Scaler
	copy(s.Mean[:], mean)
	copy(s.Scale[:], scale)
	for i, v := range s.Scale {
		if v == 0 {
			s.Scale[i] = 1
		}
	}
	return s
}

func (s Scaler) Transform(row [NumFeatures]float64) [NumFeatures]float64 {
	var z [NumFeatures]float64
	for i, v := range row {
		z[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return z
}

// Predictor is the simplified linear stand-in for the trained forest:
// base popularity plus ten times the importance-weighted z-scores.
type Predictor struct {
	model      *ModelData
	scaler     Scaler
	importance []float64
}

func NewPredictor(m *ModelData) (*Predictor, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Predictor{
		model:      m,
		scaler:     NewScaler(m.ScalerMean, m.ScalerScale),
		importance: append([]float64(nil), m.FeatureImportance...),
	}, nil
}

func (p *Predictor) Model() *ModelData { return p.model }

// Predict scores a raw, unscaled row. The result is clipped to [0, 100].
func (p *Predictor) Predict(row [NumFeatures]float64) float64 {
	z := p.scaler.Transform(row)
	score := p.model.BasePopularity + 10*floats.Dot(p.importance, z[:])
	return math.Max(0, math.Min(100, score))
}

// PredictVector builds the row for v and scores it.
func (p *Predictor) PredictVector(v features.FeatureVector, year, genreCode int) float64 {
	return p.Predict(Row(v, year, genreCode))
}
