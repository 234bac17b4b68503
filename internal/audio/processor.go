package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/HitDNA/pkg/utils"
)

// convertTimeout bounds an ffmpeg run when the caller set no deadline.
const convertTimeout = 60 * time.Second

type ConvertWAVConfig struct {
	SampleRate int // e.g. 22050, 44100
}

// ConvertToMonoWAV converts an audio file to mono 16-bit PCM WAV
// and saves it to outputDir under the input's base name.
func ConvertToMonoWAV(
	ctx context.Context,
	inputPath string,
	outputDir string,
	cfg ConvertWAVConfig,
) (string, error) {

	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, convertTimeout)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, baseName+".wav")

	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1", // mono
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

// Load decodes any supported file into a mono PCMBuffer at sampleRate.
// PCM WAV files are read directly; everything else, including WAV encodings
// the decoder rejects, is converted with ffmpeg into tempDir first.
// Every failure wraps ErrDecode.
func Load(ctx context.Context, path string, sampleRate int, tempDir string) (PCMBuffer, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		samples, rate, err := ReadWav(path)
		if err == nil {
			return PCMBuffer{Samples: Resample(samples, rate, sampleRate), SampleRate: sampleRate}, nil
		}
		if !errors.Is(err, ErrUnsupportedFormat) {
			return PCMBuffer{}, err
		}
	}

	workDir, err := os.MkdirTemp(tempDir, "decode-*")
	if err != nil {
		return PCMBuffer{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer utils.DeleteDir(workDir)

	wavPath, err := ConvertToMonoWAV(ctx, path, workDir, ConvertWAVConfig{SampleRate: sampleRate})
	if err != nil {
		return PCMBuffer{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	samples, rate, err := ReadWav(wavPath)
	if err != nil {
		return PCMBuffer{}, err
	}
	return PCMBuffer{Samples: Resample(samples, rate, sampleRate), SampleRate: sampleRate}, nil
}
