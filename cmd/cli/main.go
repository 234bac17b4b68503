package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/himanishpuri/HitDNA/internal/audio"
	"github.com/himanishpuri/HitDNA/internal/features"
	"github.com/himanishpuri/HitDNA/pkg/hitdna"
	"github.com/himanishpuri/HitDNA/pkg/logger"
)

// Global flags
var (
	dbPath     string
	tempDir    string
	modelPath  string
	sampleRate int
)

func init() {
	// Global flags that can be used with any command
	flag.StringVar(&dbPath, "db", getEnvOrDefault("HITDNA_DB_PATH", "hitdna.sqlite3"), "Path to the SQLite database file")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("HITDNA_TEMP_DIR", "/tmp"), "Directory for temporary audio conversion files")
	flag.StringVar(&modelPath, "model", getEnvOrDefault("HITDNA_MODEL_DATA", ""), "Path to model_data.json")
	flag.IntVar(&sampleRate, "rate", audio.DefaultSampleRate, "Audio sample rate for analysis")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService creates a new HitDNA service with configured options
func createService() (hitdna.Service, error) {
	return hitdna.NewService(
		hitdna.WithDBPath(dbPath),
		hitdna.WithTempDir(tempDir),
		hitdna.WithModelData(modelPath),
		hitdna.WithSampleRate(sampleRate),
	)
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	log := logger.GetLogger()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "analyze":
		handleAnalyze(args[1:])
	case "predict":
		handlePredict(args[1:])
	case "list":
		handleList(args[1:])
	case "show":
		handleShow(args[1:])
	case "delete":
		handleDelete(args[1:])
	case "synth":
		handleSynth(args[1:])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// splitArgs separates the leading positional argument from the flags that follow it.
func splitArgs(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func mustService() hitdna.Service {
	svc, err := createService()
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		logger.GetLogger().Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	return svc
}

func handleAnalyze(args []string) {
	log := logger.GetLogger()

	audioPath, flagArgs := splitArgs(args)

	analyzeCmd := flag.NewFlagSet("analyze", flag.ExitOnError)
	title := analyzeCmd.String("title", "", "Track title (default: file tags or file name)")
	artist := analyzeCmd.String("artist", "", "Artist name")
	genre := analyzeCmd.String("genre", "", "Genre used for the prediction (default: pop)")
	year := analyzeCmd.Int("year", 0, "Release year used for the prediction (default: 2023)")
	noStore := analyzeCmd.Bool("no-store", false, "Do not save the analysis to the database")
	asJSON := analyzeCmd.Bool("json", false, "Print the result as JSON")
	analyzeCmd.Parse(flagArgs)

	if audioPath == "" {
		fmt.Println("Error: audio file path required")
		fmt.Println("Usage: hitdna analyze <audio_file> [--title <t>] [--artist <a>] [--genre <g>] [--year <y>] [--no-store] [--json]")
		os.Exit(1)
	}

	svc := mustService()
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if !*asJSON {
		fmt.Println("🎵 Analyzing audio file...")
	}
	res, err := svc.AnalyzeFile(ctx, audioPath, hitdna.AnalyzeOptions{
		Title:  *title,
		Artist: *artist,
		Genre:  *genre,
		Year:   *year,
		Store:  !*noStore,
	})
	if err != nil {
		fmt.Printf("\n❌ Failed to analyze %s: %v\n", audioPath, err)
		log.Errorf("AnalyzeFile failed: %v", err)
		os.Exit(1)
	}

	if *asJSON {
		printJSON(res.Flat())
		return
	}
	printResult(res)
}

func handlePredict(args []string) {
	log := logger.GetLogger()

	featuresPath, flagArgs := splitArgs(args)

	predictCmd := flag.NewFlagSet("predict", flag.ExitOnError)
	genre := predictCmd.String("genre", "", "Genre (default: pop)")
	year := predictCmd.Int("year", 0, "Release year (default: 2023)")
	predictCmd.Parse(flagArgs)

	if featuresPath == "" {
		fmt.Println("Usage: hitdna predict <features.json> [--year <y>] [--genre <g>]")
		os.Exit(1)
	}

	data, err := os.ReadFile(featuresPath)
	if err != nil {
		fmt.Printf("❌ Failed to read %s: %v\n", featuresPath, err)
		os.Exit(1)
	}
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		fmt.Printf("❌ Invalid features file: %v\n", err)
		os.Exit(1)
	}
	vector, err := features.FromMap(raw)
	if err != nil {
		fmt.Printf("❌ Invalid features file: %v\n", err)
		os.Exit(1)
	}

	svc := mustService()
	defer svc.Close()

	pred, err := svc.Predict(vector, *year, *genre)
	if err != nil {
		fmt.Printf("❌ Prediction failed: %v\n", err)
		fmt.Printf("   Known genres: %s\n", strings.Join(svc.Genres(), ", "))
		log.Errorf("Predict failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n🔮 Predicted popularity: %.1f / 100\n", pred.Popularity)
	fmt.Printf("   Year:  %d\n", pred.Year)
	fmt.Printf("   Genre: %s (%d)\n", pred.Genre, pred.GenreEncoded)
}

func handleList(args []string) {
	log := logger.GetLogger()

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	limit := listCmd.Int("limit", 20, "Maximum number of analyses to show")
	offset := listCmd.Int("offset", 0, "Number of analyses to skip")
	listCmd.Parse(args)

	svc := mustService()
	defer svc.Close()

	results, err := svc.ListAnalyses(*limit, *offset)
	if err != nil {
		fmt.Printf("❌ Failed to list analyses: %v\n", err)
		log.Errorf("ListAnalyses failed: %v", err)
		os.Exit(1)
	}

	if len(results) == 0 {
		fmt.Println("\n📭 No analyses in database")
		return
	}

	total, _ := svc.CountAnalyses()
	fmt.Printf("\n📚 Showing %d of %d analyses:\n\n", len(results), total)
	for i, r := range results {
		fmt.Printf("%d. \"%s\" by %s (ID: %s)\n", *offset+i+1, r.Title, displayArtist(r.Artist), r.ID)
		fmt.Printf("   %s | %.0f BPM | %s %d | popularity %.1f\n",
			r.KeyName, r.Features.Tempo, r.Genre, r.Year, r.PredictedPopularity)
		fmt.Println()
	}
}

func handleShow(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: hitdna show <analysis_id> [--json]")
		os.Exit(1)
	}

	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	asJSON := showCmd.Bool("json", false, "Print the stored analysis as JSON")
	showCmd.Parse(args[1:])

	svc := mustService()
	defer svc.Close()

	res, err := svc.GetAnalysis(args[0])
	if err != nil {
		fmt.Printf("❌ Analysis not found (ID: %s): %v\n", args[0], err)
		os.Exit(1)
	}

	if *asJSON {
		printJSON(res)
		return
	}
	printResult(res)
}

func handleDelete(args []string) {
	log := logger.GetLogger()

	if len(args) < 1 {
		fmt.Println("Usage: hitdna delete <analysis_id>")
		os.Exit(1)
	}
	id := args[0]

	svc := mustService()
	defer svc.Close()

	// Get analysis info before deletion
	res, err := svc.GetAnalysis(id)
	if err != nil {
		fmt.Printf("❌ Analysis not found (ID: %s)\n", id)
		log.Warnf("Analysis %s not found: %v", id, err)
		os.Exit(1)
	}

	if err := svc.DeleteAnalysis(id); err != nil {
		fmt.Printf("❌ Failed to delete analysis: %v\n", err)
		log.Errorf("DeleteAnalysis failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ Successfully deleted analysis:\n")
	fmt.Printf("   ID:     %s\n", res.ID)
	fmt.Printf("   Title:  %s\n", res.Title)
	fmt.Printf("   Artist: %s\n", displayArtist(res.Artist))
}

func handleSynth(args []string) {
	outPath, flagArgs := splitArgs(args)

	synthCmd := flag.NewFlagSet("synth", flag.ExitOnError)
	bpm := synthCmd.Float64("bpm", 120, "Click tempo in beats per minute")
	seconds := synthCmd.Float64("seconds", 10, "Length in seconds")
	noise := synthCmd.Float64("noise", 0, "White noise amplitude mixed under the clicks (0..1)")
	seed := synthCmd.Int64("seed", 1, "Noise seed")
	synthCmd.Parse(flagArgs)

	if outPath == "" {
		fmt.Println("Usage: hitdna synth <out.wav> [--bpm <bpm>] [--seconds <s>] [--noise <amp>]")
		os.Exit(1)
	}

	samples := audio.ClickTrack(*bpm, *seconds, sampleRate)
	if *noise > 0 {
		for i, n := range audio.WhiteNoise(len(samples), *noise, *seed) {
			samples[i] += n
		}
	}

	if err := audio.WriteWav(outPath, samples, sampleRate); err != nil {
		fmt.Printf("❌ Failed to write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("✅ Wrote %.1fs click track at %.0f BPM to %s\n", *seconds, *bpm, outPath)
}

func printResult(r *hitdna.Result) {
	v := r.Features
	fmt.Printf("\n✅ \"%s\" by %s\n", r.Title, displayArtist(r.Artist))
	if r.ID != "" {
		fmt.Printf("   ID:               %s\n", r.ID)
	}
	fmt.Printf("   Duration:         %d:%02d\n", int(v.DurationMin), int(v.DurationMin*60)%60)
	fmt.Printf("   Tempo:            %.1f BPM (%d beats)\n", v.Tempo, r.BeatCount)
	fmt.Printf("   Key:              %s\n", r.KeyName)
	fmt.Printf("   Time signature:   %d/4\n", v.TimeSignature)
	fmt.Printf("   Energy:           %.3f\n", v.Energy)
	fmt.Printf("   Loudness:         %.2f dB\n", v.Loudness)
	fmt.Printf("   Danceability:     %.3f\n", v.Danceability)
	fmt.Printf("   Valence:          %.3f\n", v.Valence)
	fmt.Printf("   Acousticness:     %.3f\n", v.Acousticness)
	fmt.Printf("   Instrumentalness: %.3f\n", v.Instrumentalness)
	fmt.Printf("   Liveness:         %.3f\n", v.Liveness)
	fmt.Printf("   Speechiness:      %.3f\n", v.Speechiness)
	if len(r.Fallbacks) > 0 {
		fmt.Printf("   Fallbacks:        %s\n", strings.Join(r.Fallbacks, ", "))
	}
	fmt.Printf("\n🔮 Predicted popularity: %.1f / 100 (%s, %d)\n", r.PredictedPopularity, r.Genre, r.Year)
}

func displayArtist(artist string) string {
	if artist == "" {
		return "Unknown Artist"
	}
	return artist
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("HitDNA - Audio Feature Extraction and Popularity Prediction")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --db <path>        Path to SQLite database (env: HITDNA_DB_PATH, default: hitdna.sqlite3)")
	fmt.Println("  --temp <dir>       Temporary directory for audio conversion (env: HITDNA_TEMP_DIR, default: /tmp)")
	fmt.Println("  --model <path>     Model data file (env: HITDNA_MODEL_DATA)")
	fmt.Println("  --rate <hz>        Analysis sample rate (default: 22050)")
	fmt.Println("\nUsage:")
	fmt.Println("  hitdna [global-options] analyze <audio_file> [--title <t>] [--artist <a>] [--genre <g>] [--year <y>] [--no-store] [--json]")
	fmt.Println("  hitdna [global-options] predict <features.json> [--year <y>] [--genre <g>]")
	fmt.Println("  hitdna [global-options] list [--limit <n>] [--offset <n>]")
	fmt.Println("  hitdna [global-options] show <analysis_id> [--json]")
	fmt.Println("  hitdna [global-options] delete <analysis_id>")
	fmt.Println("  hitdna [global-options] synth <out.wav> [--bpm <bpm>] [--seconds <s>] [--noise <amp>]")
	fmt.Println("\nExamples:")
	fmt.Println("  # Analyze a track and store it")
	fmt.Println("  hitdna --model model_data.json analyze song.mp3 --genre rock --year 1999")
	fmt.Println()
	fmt.Println("  # Generate a 128 BPM test signal and analyze it without storing")
	fmt.Println("  hitdna synth clicks.wav --bpm 128 --seconds 20")
	fmt.Println("  hitdna analyze clicks.wav --no-store --json")
}
