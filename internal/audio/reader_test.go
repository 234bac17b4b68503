package audio

import (
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
)

func writeTestWav(t *testing.T, samples []float64, rate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	if err := WriteWav(path, samples, rate); err != nil {
		t.Fatalf("WriteWav failed: %v", err)
	}
	return path
}

func TestWavRoundTrip(t *testing.T) {
	in := Sine(440, 0.5, 22050, 0.5)
	path := writeTestWav(t, in, 22050)

	out, rate, err := ReadWav(path)
	if err != nil {
		t.Fatalf("ReadWav failed: %v", err)
	}
	if rate != 22050 {
		t.Errorf("Expected rate 22050, got %d", rate)
	}
	if len(out) != len(in) {
		t.Fatalf("Expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if math.Abs(out[i]-in[i]) > 1.0/16384 {
			t.Fatalf("Sample %d: expected %f, got %f", i, in[i], out[i])
		}
	}
}

func TestWriteWavClips(t *testing.T) {
	path := writeTestWav(t, []float64{2, -2, 0.25}, 8000)

	out, _, err := ReadWav(path)
	if err != nil {
		t.Fatalf("ReadWav failed: %v", err)
	}
	for i, val := range out {
		if val < -1.0 || val > 1.0 {
			t.Errorf("Sample %d out of range [-1, 1]: %f", i, val)
		}
	}
}

func TestReadWavInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.wav")
	if err := os.WriteFile(path, []byte("INVALID HEADER DATA"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := ReadWav(path)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}

func TestReadWavNonExistent(t *testing.T) {
	_, _, err := ReadWav("nonexistent-file.wav")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}

func TestToMonoFloat64(t *testing.T) {
	tests := []struct {
		name     string
		buf      *goaudio.IntBuffer
		expected []float64
		wantErr  bool
	}{
		{
			name: "Mono 16-bit",
			buf: &goaudio.IntBuffer{
				Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
				Data:           []int{0, 16384, -32768},
				SourceBitDepth: 16,
			},
			expected: []float64{0, 0.5, -1},
		},
		{
			name: "Stereo averaged",
			buf: &goaudio.IntBuffer{
				Format:         &goaudio.Format{NumChannels: 2, SampleRate: 8000},
				Data:           []int{16384, 0, -16384, -16384},
				SourceBitDepth: 16,
			},
			expected: []float64{0.25, -0.5},
		},
		{
			name: "Unsigned 8-bit",
			buf: &goaudio.IntBuffer{
				Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
				Data:           []int{128, 0, 192},
				SourceBitDepth: 8,
			},
			expected: []float64{0, -1, 0.5},
		},
		{
			name: "Unsupported depth",
			buf: &goaudio.IntBuffer{
				Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
				Data:           []int{1},
				SourceBitDepth: 12,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toMonoFloat64(tt.buf)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d samples, got %d", len(tt.expected), len(got))
			}
			for i := range got {
				if math.Abs(got[i]-tt.expected[i]) > 1e-9 {
					t.Errorf("Sample %d: expected %f, got %f", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestResample(t *testing.T) {
	in := []float64{0, 1, 2, 3}

	if got := Resample(in, 100, 100); &got[0] != &in[0] {
		t.Error("Equal rates should return the input slice")
	}

	up := Resample(in, 100, 200)
	if len(up) != 8 {
		t.Fatalf("Expected 8 samples, got %d", len(up))
	}
	if up[1] != 0.5 || up[2] != 1 {
		t.Errorf("Unexpected interpolation: %v", up)
	}

	down := Resample(in, 200, 100)
	if len(down) != 2 || down[0] != 0 || down[1] != 2 {
		t.Errorf("Unexpected decimation: %v", down)
	}
}

func TestPCMBuffer(t *testing.T) {
	buf := PCMBuffer{Samples: make([]float64, 22050), SampleRate: 22050}
	if buf.Duration().Seconds() != 1 {
		t.Errorf("Expected 1s, got %v", buf.Duration())
	}
	if buf.Nyquist() != 11025 {
		t.Errorf("Expected Nyquist 11025, got %f", buf.Nyquist())
	}
	if (PCMBuffer{}).Duration() != 0 {
		t.Error("Zero-rate buffer should have zero duration")
	}
}

func TestGeneratorsAreDeterministic(t *testing.T) {
	a := WhiteNoise(1000, 0.3, 7)
	b := WhiteNoise(1000, 0.3, 7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Noise differs at %d", i)
		}
		if math.Abs(a[i]) > 0.3 {
			t.Fatalf("Noise sample %d exceeds amplitude: %f", i, a[i])
		}
	}

	clicks := ClickTrack(120, 2, 22050)
	if len(clicks) != 44100 {
		t.Fatalf("Expected 44100 samples, got %d", len(clicks))
	}
	// beats land every 11025 samples
	for _, start := range []int{0, 11025, 22050, 33075} {
		if RMS(clicks[start:start+100]) == 0 {
			t.Errorf("Expected a click at sample %d", start)
		}
	}
	if RMS(clicks[5000:10000]) != 0 {
		t.Error("Expected silence between clicks")
	}
}

func TestLoadWavResamples(t *testing.T) {
	path := writeTestWav(t, Sine(220, 1, 11025, 0.5), 11025)

	buf, err := Load(context.Background(), path, 22050, t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if buf.SampleRate != 22050 {
		t.Errorf("Expected rate 22050, got %d", buf.SampleRate)
	}
	if len(buf.Samples) != 22050 {
		t.Errorf("Expected 22050 samples, got %d", len(buf.Samples))
	}
}

func TestLoadThroughFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	src := writeTestWav(t, Sine(440, 1, 44100, 0.5), 44100)
	flac := filepath.Join(t.TempDir(), "tone.flac")
	if out, err := exec.Command("ffmpeg", "-y", "-v", "quiet", "-i", src, flac).CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg encode failed: %v (%s)", err, out)
	}

	buf, err := Load(context.Background(), flac, 22050, t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if buf.SampleRate != 22050 || len(buf.Samples) == 0 {
		t.Errorf("Unexpected buffer: rate %d, %d samples", buf.SampleRate, len(buf.Samples))
	}
}

func TestLoadGarbageFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.mp3")
	if err := os.WriteFile(path, []byte("not audio at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(context.Background(), path, 22050, t.TempDir()); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}

func TestParseProbe(t *testing.T) {
	raw := []byte(`{
		"format": {"duration": "12.5", "format_name": "mp3", "tags": {"TITLE": "Song", "artist": "Band", "date": "2019-04-12"}},
		"streams": [{"codec_type": "video"}, {"codec_type": "audio", "sample_rate": "44100", "channels": 2}]
	}`)

	meta, err := parseProbe("/tmp/x/song.mp3", raw)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if meta.Title != "Song" || meta.Artist != "Band" || meta.Year != 2019 {
		t.Errorf("Unexpected tags: %+v", meta)
	}
	if meta.SampleRate != 44100 || meta.Channels != 2 || meta.DurationSec != 12.5 {
		t.Errorf("Unexpected stream info: %+v", meta)
	}
	if meta.Filename != "song.mp3" {
		t.Errorf("Expected song.mp3, got %s", meta.Filename)
	}

	if _, err := parseProbe("x", []byte(`{"streams": []}`)); err == nil {
		t.Error("Expected error without audio stream")
	}
}
