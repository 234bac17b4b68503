package hitdna

import (
	"strings"

	"github.com/himanishpuri/HitDNA/internal/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) SaveAnalysis(r *Result) (string, error) {
	row := toRecord(r)
	id, err := s.db.SaveAnalysis(row)
	if err != nil {
		return "", err
	}
	r.ID = id
	r.CreatedAt = row.CreatedAt
	return id, nil
}

func (s *storageAdapter) GetAnalysis(id string) (*Result, error) {
	row, err := s.db.GetAnalysis(id)
	if err != nil {
		return nil, err
	}
	return fromRecord(row), nil
}

func (s *storageAdapter) ListAnalyses(limit, offset int) ([]Result, error) {
	rows, err := s.db.ListAnalyses(limit, offset)
	if err != nil {
		return nil, err
	}
	results := make([]Result, len(rows))
	for i := range rows {
		results[i] = *fromRecord(&rows[i])
	}
	return results, nil
}

func (s *storageAdapter) DeleteAnalysis(id string) error {
	return s.db.DeleteAnalysis(id)
}

func (s *storageAdapter) CountAnalyses() (int64, error) {
	return s.db.CountAnalyses()
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func toRecord(r *Result) *storage.Analysis {
	v := r.Features
	return &storage.Analysis{
		ID:                  r.ID,
		Title:               r.Title,
		Artist:              r.Artist,
		FileName:            r.FileName,
		Genre:               r.Genre,
		GenreEncoded:        r.GenreEncoded,
		Year:                r.Year,
		DurationMin:         v.DurationMin,
		Tempo:               v.Tempo,
		TimeSignature:       v.TimeSignature,
		Key:                 v.Key,
		Mode:                v.Mode,
		Energy:              v.Energy,
		Loudness:            v.Loudness,
		Danceability:        v.Danceability,
		Valence:             v.Valence,
		Acousticness:        v.Acousticness,
		Instrumentalness:    v.Instrumentalness,
		Liveness:            v.Liveness,
		Speechiness:         v.Speechiness,
		KeyName:             r.KeyName,
		BeatCount:           r.BeatCount,
		Fallbacks:           strings.Join(r.Fallbacks, ","),
		PredictedPopularity: r.PredictedPopularity,
		CreatedAt:           r.CreatedAt,
	}
}

func fromRecord(a *storage.Analysis) *Result {
	r := &Result{
		ID:           a.ID,
		Title:        a.Title,
		Artist:       a.Artist,
		FileName:     a.FileName,
		Genre:        a.Genre,
		GenreEncoded: a.GenreEncoded,
		Year:         a.Year,
		Features: FeatureVector{
			DurationMin:      a.DurationMin,
			Tempo:            a.Tempo,
			TimeSignature:    a.TimeSignature,
			Key:              a.Key,
			Mode:             a.Mode,
			Energy:           a.Energy,
			Loudness:         a.Loudness,
			Danceability:     a.Danceability,
			Valence:          a.Valence,
			Acousticness:     a.Acousticness,
			Instrumentalness: a.Instrumentalness,
			Liveness:         a.Liveness,
			Speechiness:      a.Speechiness,
		},
		KeyName:             a.KeyName,
		BeatCount:           a.BeatCount,
		PredictedPopularity: a.PredictedPopularity,
		CreatedAt:           a.CreatedAt,
	}
	if a.Fallbacks != "" {
		r.Fallbacks = strings.Split(a.Fallbacks, ",")
	}
	return r
}
