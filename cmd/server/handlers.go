package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/HitDNA/pkg/hitdna"
	"github.com/himanishpuri/HitDNA/pkg/logger"
	"github.com/himanishpuri/HitDNA/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service hitdna.Service
	config  *ServerConfig
	log     hitdna.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	SampleRate     int
	AllowedOrigins []string

	// DefaultSample is the file served by GET /api/analyze_default
	DefaultSample string

	// DefaultSampleGenre labels the default sample when the model knows it
	DefaultSampleGenre string
}

// NewServer creates a new server instance
func NewServer(service hitdna.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().With("[server]"),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error: message,
		Code:  statusCode,
	})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, hitdna.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, hitdna.ErrUnknownGenre):
		return http.StatusBadRequest
	case errors.Is(err, hitdna.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, hitdna.ErrNoStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "HitDNA API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":         "GET /health",
			"metrics":        "GET /api/health/metrics",
			"analyzeAudio":   "POST /api/analyze_audio",
			"analyzeDefault": "GET /api/analyze_default",
			"predict":        "POST /api/predict",
			"songs":          "GET /api/songs",
			"song":           "GET /api/song/{artist}/{track}",
			"analyses":       "GET /api/analyses",
			"getAnalysis":    "GET /api/analyses/{id}",
			"deleteAnalysis": "DELETE /api/analyses/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	count, err := s.service.CountAnalyses()
	if err != nil && !errors.Is(err, hitdna.ErrNoStorage) {
		s.log.Errorf("Failed to get analysis count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:        "healthy",
		DatabasePath:  s.config.DBPath,
		AnalysisCount: count,
		Genres:        s.service.Genres(),
		SampleRate:    s.config.SampleRate,
	})
}

// handleAnalyzeAudio handles POST /api/analyze_audio (multipart file upload)
func (s *Server) handleAnalyzeAudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "File too large (max 16MB)")
			return
		}
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		s.respondError(w, http.StatusBadRequest, "No file selected")
		return
	}
	if !utils.IsAllowedAudioFile(header.Filename) {
		s.respondError(w, http.StatusBadRequest, "Invalid file type. Supported: WAV, MP3, FLAC, M4A, AAC, OGG")
		return
	}

	opts := hitdna.AnalyzeOptions{
		Title:  r.FormValue("title"),
		Artist: r.FormValue("artist"),
		Genre:  r.FormValue("genre"),
		Store:  r.FormValue("store") == "true",
	}
	if y := r.FormValue("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		opts.Year = year
	}

	tempFile, err := utils.SaveTemp(file, s.config.TempDir, header.Filename)
	if err != nil {
		s.log.Errorf("Failed to save upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	defer utils.DeleteFile(tempFile)

	if opts.Title == "" {
		opts.Title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	s.log.Infof("Analyzing uploaded file: %s", header.Filename)
	res, err := s.service.AnalyzeFile(ctx, tempFile, opts)
	if err != nil {
		s.log.Errorf("Failed to analyze %s: %v", header.Filename, err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Error analyzing audio: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, analyzeResponse(res))
}

// handleAnalyzeDefault handles GET /api/analyze_default
func (s *Server) handleAnalyzeDefault(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if _, err := os.Stat(s.config.DefaultSample); err != nil {
		s.respondError(w, http.StatusNotFound, "Default sample file not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	opts := hitdna.AnalyzeOptions{}
	for _, g := range s.service.Genres() {
		if strings.EqualFold(g, s.config.DefaultSampleGenre) {
			opts.Genre = g
			break
		}
	}

	res, err := s.service.AnalyzeFile(ctx, s.config.DefaultSample, opts)
	if err != nil {
		s.log.Errorf("Failed to analyze default sample: %v", err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Error analyzing audio: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, analyzeResponse(res))
}

func analyzeResponse(res *hitdna.Result) map[string]any {
	out := res.Flat()
	out["key_name"] = res.KeyName
	if res.ID != "" {
		out["id"] = res.ID
	}
	return out
}

// handlePredict handles POST /api/predict
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.GenreEncoded != nil {
		year := req.Year
		if year == 0 {
			year = hitdna.DefaultYear
		}
		s.respondJSON(w, http.StatusOK, PredictResponse{
			Prediction:   s.service.PredictEncoded(req.FeatureVector, year, *req.GenreEncoded),
			Year:         year,
			Genre:        req.Genre,
			GenreEncoded: *req.GenreEncoded,
		})
		return
	}

	pred, err := s.service.Predict(req.FeatureVector, req.Year, req.Genre)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, PredictResponse{
		Prediction:   pred.Popularity,
		Year:         pred.Year,
		Genre:        pred.Genre,
		GenreEncoded: pred.GenreEncoded,
	})
}

// handleSongs handles GET /api/songs
func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	songs := s.service.SampleSongs(MaxSampleSongs)
	dtos := make([]SongDTO, len(songs))
	for i, song := range songs {
		dtos[i] = SongDTO{
			ArtistName: song.ArtistName,
			TrackName:  song.TrackName,
			Popularity: song.Popularity,
			Genre:      song.Genre,
		}
	}

	s.respondJSON(w, http.StatusOK, ListSongsResponse{
		Songs: dtos,
		Count: len(dtos),
	})
}

// handleSong handles GET /api/song/{artist}/{track}
func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	artist, track, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/api/song/"), "/")
	if !ok || artist == "" || track == "" {
		s.respondError(w, http.StatusBadRequest, "Artist and track required")
		return
	}

	song, err := s.service.FindSong(artist, track)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "Not found")
		return
	}

	s.respondJSON(w, http.StatusOK, SongDetailDTO{
		SongDTO: SongDTO{
			ArtistName: song.ArtistName,
			TrackName:  song.TrackName,
			Popularity: song.Popularity,
			Genre:      song.Genre,
		},
		Year:          song.Year,
		FeatureVector: song.FeatureVector,
	})
}

// handleListAnalyses handles GET /api/analyses?limit=&offset=
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, err := queryInt(r, "limit", DefaultListLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "Invalid offset")
		return
	}

	results, err := s.service.ListAnalyses(limit, offset)
	if err != nil {
		s.log.Errorf("Failed to list analyses: %v", err)
		s.respondError(w, statusFor(err), "Failed to retrieve analyses")
		return
	}
	total, err := s.service.CountAnalyses()
	if err != nil {
		s.log.Errorf("Failed to count analyses: %v", err)
		s.respondError(w, statusFor(err), "Failed to retrieve analyses")
		return
	}

	s.respondJSON(w, http.StatusOK, ListAnalysesResponse{
		Analyses: results,
		Count:    len(results),
		Total:    total,
	})
}

// handleAnalysis routes requests to /api/analyses/{id}
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/analyses/")
	if id == "" || strings.Contains(id, "/") {
		s.respondError(w, http.StatusBadRequest, "Analysis ID required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		res, err := s.service.GetAnalysis(id)
		if err != nil {
			s.respondError(w, statusFor(err), fmt.Sprintf("Analysis %s not found", id))
			return
		}
		s.respondJSON(w, http.StatusOK, res)
	case http.MethodDelete:
		if err := s.service.DeleteAnalysis(id); err != nil {
			if statusFor(err) != http.StatusNotFound {
				s.log.Errorf("Failed to delete analysis %s: %v", id, err)
			}
			s.respondError(w, statusFor(err), fmt.Sprintf("Failed to delete analysis %s", id))
			return
		}
		s.respondJSON(w, http.StatusOK, DeleteAnalysisResponse{
			Message: "Analysis deleted successfully",
			ID:      id,
		})
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
