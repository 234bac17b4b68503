package main

import (
	"flag"
	"os"
	"strings"

	"github.com/himanishpuri/HitDNA/internal/audio"
	"github.com/himanishpuri/HitDNA/pkg/hitdna"
	"github.com/himanishpuri/HitDNA/pkg/logger"
)

var (
	port           int
	dbPath         string
	tempDir        string
	modelPath      string
	defaultSample  string
	sampleRate     int
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 5000, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("HITDNA_DB_PATH", "hitdna.sqlite3"), "Path to SQLite database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("HITDNA_TEMP_DIR", "/tmp"), "Temporary directory")
	flag.StringVar(&modelPath, "model", getEnvOrDefault("HITDNA_MODEL_DATA", "model_data.json"), "Path to model_data.json")
	flag.StringVar(&defaultSample, "sample", getEnvOrDefault("HITDNA_DEFAULT_SAMPLE", "skeletononthebeat.wav"), "Audio file served by /api/analyze_default")
	flag.IntVar(&sampleRate, "rate", audio.DefaultSampleRate, "Analysis sample rate")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	// Parse allowed origins
	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	// A missing model file is not fatal; the service falls back to the neutral model
	if _, err := os.Stat(modelPath); err != nil {
		log.Warnf("Model data %s not available: %v", modelPath, err)
		modelPath = ""
	}

	service, err := hitdna.NewService(
		hitdna.WithDBPath(dbPath),
		hitdna.WithTempDir(tempDir),
		hitdna.WithModelData(modelPath),
		hitdna.WithSampleRate(sampleRate),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:               port,
		DBPath:             dbPath,
		TempDir:            tempDir,
		SampleRate:         sampleRate,
		AllowedOrigins:     origins,
		DefaultSample:      defaultSample,
		DefaultSampleGenre: "electronic",
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
