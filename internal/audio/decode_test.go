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
	"github.com/go-audio/wav"
)

// sine returns n samples of a 440 Hz tone at the given rate and amplitude.
func sine(n, rate int, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	return out
}

func TestWriteWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := sine(SampleRate, SampleRate, 0.5)

	if err := WriteWAV(path, in, SampleRate); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	out, err := LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("LoadFile() returned %d samples, want %d", len(out), len(in))
	}
	for i := range in {
		if d := math.Abs(float64(out[i] - in[i])); d > 1e-3 {
			t.Fatalf("sample[%d] = %f, want %f", i, out[i], in[i])
		}
	}
}

func TestLoadFileResamplesAndDownmixes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo44k.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	const rate = 44100
	// One second of stereo: left at +0.5, right at -0.25.
	data := make([]int, rate*2)
	for i := 0; i < rate; i++ {
		data[2*i] = 16384
		data[2*i+1] = -8192
	}
	enc := wav.NewEncoder(f, rate, 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	_ = f.Close()

	samples, err := LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(samples) != SampleRate {
		t.Errorf("LoadFile() returned %d samples, want %d", len(samples), SampleRate)
	}
	for i, s := range samples {
		if math.Abs(float64(s)-0.125) > 1e-3 {
			t.Fatalf("sample[%d] = %f, want 0.125", i, s)
		}
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(context.Background(), "/nonexistent/audio.wav")
	if err == nil {
		t.Fatal("LoadFile() should fail for a missing file")
	}
}

func TestLoadFileNotAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("this is not audio"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(context.Background(), path)
	if err == nil {
		t.Fatal("LoadFile() should fail for a non-audio file")
	}
	if _, lookErr := exec.LookPath("ffmpeg"); lookErr != nil && !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("without ffmpeg, error = %v, want ErrFFmpegNotFound", err)
	}
}

func TestResample(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		from    int
		to      int
		wantLen int
	}{
		{"identity", 100, 16000, 16000, 100},
		{"downsample 48k", 48000, 48000, 16000, 16000},
		{"upsample 8k", 8000, 8000, 16000, 16000},
		{"empty", 0, 44100, 16000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sine(tt.n, tt.from, 0.8)
			out := Resample(in, tt.from, tt.to)
			if len(out) != tt.wantLen {
				t.Errorf("Resample() len = %d, want %d", len(out), tt.wantLen)
			}
			for i, s := range out {
				if s < -0.8001 || s > 0.8001 {
					t.Fatalf("out[%d] = %f exceeds input amplitude", i, s)
				}
			}
		})
	}
}

func TestToFloat32(t *testing.T) {
	tests := []struct {
		name     string
		data     []int
		bitDepth int
		want     []float32
	}{
		{"16-bit", []int{0, 16384, -32768}, 16, []float32{0, 0.5, -1}},
		{"8-bit unsigned", []int{128, 192, 0}, 8, []float32{0, 0.5, -1}},
		{"24-bit", []int{0, 4194304, -8388608}, 24, []float32{0, 0.5, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toFloat32(tt.data, tt.bitDepth)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("toFloat32()[%d] = %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDownmix(t *testing.T) {
	got := downmix([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	want := []float32{0.5, 0.5, 0}
	if len(got) != len(want) {
		t.Fatalf("downmix() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("downmix()[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestWriteWAVRejectsBadRate(t *testing.T) {
	if err := WriteWAV(filepath.Join(t.TempDir(), "x.wav"), nil, 0); err == nil {
		t.Error("WriteWAV() should reject a zero sample rate")
	}
}
