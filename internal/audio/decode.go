// Package audio turns audio files and microphone input into the mono 16 kHz
// float32 samples whisper.cpp expects, and writes recordings back out as WAV.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleRate is the rate whisper models are trained on.
const SampleRate = 16000

// ErrFFmpegNotFound is returned when a non-WAV file needs conversion but
// ffmpeg is not installed.
var ErrFFmpegNotFound = errors.New("audio: ffmpeg not found in PATH (needed for non-WAV input)")

// LoadFile decodes the audio file at path into mono 16 kHz float32 samples
// in [-1.0, 1.0]. WAV files are decoded natively; anything else goes through
// ffmpeg first.
func LoadFile(ctx context.Context, path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if dec.IsValidFile() {
		return decodeWAV(dec, path)
	}

	return loadViaFFmpeg(ctx, path)
}

func decodeWAV(dec *wav.Decoder, path string) ([]float32, error) {
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode WAV %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("audio: decode WAV %s: missing format", path)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("audio: decode WAV %s: invalid channel count %d", path, channels)
	}

	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}

	samples := downmix(toFloat32(buf.Data, bitDepth), channels)
	return Resample(samples, buf.Format.SampleRate, SampleRate), nil
}

// toFloat32 normalizes integer PCM samples of the given bit depth to [-1.0, 1.0].
// 8-bit WAV is unsigned and centered on 128.
func toFloat32(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	switch bitDepth {
	case 8:
		for i, s := range data {
			out[i] = float32(s-128) / 128.0
		}
	case 24:
		for i, s := range data {
			out[i] = float32(s) / 8388608.0
		}
	case 32:
		for i, s := range data {
			out[i] = float32(float64(s) / 2147483648.0)
		}
	default:
		for i, s := range data {
			out[i] = float32(s) / 32768.0
		}
	}
	return out
}

// downmix averages interleaved frames down to a single channel.
func downmix(samples []float32, channels int) []float32 {
	if channels == 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// Resample converts mono samples from one rate to another by linear
// interpolation. Equal rates return the input unchanged.
func Resample(samples []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	outLen := int(int64(len(samples)) * int64(to) / int64(from))
	out := make([]float32, outLen)
	ratio := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// loadViaFFmpeg converts path into a temporary 16 kHz mono WAV and decodes it.
func loadViaFFmpeg(ctx context.Context, path string) ([]float32, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, ErrFFmpegNotFound
	}

	tmpDir, err := os.MkdirTemp("", "gostt-audio-*")
	if err != nil {
		return nil, fmt.Errorf("audio: creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	out := filepath.Join(tmpDir, "converted.wav")
	cmd := exec.CommandContext(ctx, ffmpeg, //nolint:gosec // path is passed as a single argument
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-i", path,
		"-ar", fmt.Sprint(SampleRate), "-ac", "1", "-c:a", "pcm_s16le",
		"-y", out)
	if output, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("audio: ffmpeg convert %s: %s", path, msg)
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("audio: open converted file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("audio: ffmpeg produced an invalid WAV for %s", path)
	}
	return decodeWAV(dec, path)
}

// intBuffer wraps normalized mono samples as 16-bit PCM for the WAV encoder.
func intBuffer(samples []float32, sampleRate int) *goaudio.IntBuffer {
	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
}
