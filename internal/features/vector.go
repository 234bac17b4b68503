// Package features turns a PCM buffer into the HitDNA audio feature vector.
package features

import "fmt"

// TimeSignature is reported for every track; meter is not detected.
const TimeSignature = 4

// Names lists the feature keys in output order.
var Names = []string{
	"duration_min",
	"tempo",
	"time_signature",
	"key",
	"mode",
	"energy",
	"loudness",
	"danceability",
	"valence",
	"acousticness",
	"instrumentalness",
	"liveness",
	"speechiness",
}

// FeatureVector is the result of one analysis.
type FeatureVector struct {
	DurationMin      float64 `json:"duration_min"`
	Tempo            float64 `json:"tempo"`
	TimeSignature    int     `json:"time_signature"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	Energy           float64 `json:"energy"`
	Loudness         float64 `json:"loudness"`
	Danceability     float64 `json:"danceability"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
}

// Map returns the vector keyed by the names in Names.
func (v FeatureVector) Map() map[string]float64 {
	return map[string]float64{
		"duration_min":     v.DurationMin,
		"tempo":            v.Tempo,
		"time_signature":   float64(v.TimeSignature),
		"key":              float64(v.Key),
		"mode":             float64(v.Mode),
		"energy":           v.Energy,
		"loudness":         v.Loudness,
		"danceability":     v.Danceability,
		"valence":          v.Valence,
		"acousticness":     v.Acousticness,
		"instrumentalness": v.Instrumentalness,
		"liveness":         v.Liveness,
		"speechiness":      v.Speechiness,
	}
}

// FromMap rebuilds a vector from a key/value mapping. Every key in Names
// must be present.
func FromMap(m map[string]float64) (FeatureVector, error) {
	for _, name := range Names {
		if _, ok := m[name]; !ok {
			return FeatureVector{}, fmt.Errorf("missing feature %q", name)
		}
	}
	return FeatureVector{
		DurationMin:      m["duration_min"],
		Tempo:            m["tempo"],
		TimeSignature:    int(m["time_signature"]),
		Key:              int(m["key"]),
		Mode:             int(m["mode"]),
		Energy:           m["energy"],
		Loudness:         m["loudness"],
		Danceability:     m["danceability"],
		Valence:          m["valence"],
		Acousticness:     m["acousticness"],
		Instrumentalness: m["instrumentalness"],
		Liveness:         m["liveness"],
		Speechiness:      m["speechiness"],
	}, nil
}

// field returns a pointer to the float descriptor with the given name.
func (v *FeatureVector) field(name string) *float64 {
	switch name {
	case "energy":
		return &v.Energy
	case "loudness":
		return &v.Loudness
	case "danceability":
		return &v.Danceability
	case "valence":
		return &v.Valence
	case "acousticness":
		return &v.Acousticness
	case "instrumentalness":
		return &v.Instrumentalness
	case "liveness":
		return &v.Liveness
	case "speechiness":
		return &v.Speechiness
	}
	return nil
}
