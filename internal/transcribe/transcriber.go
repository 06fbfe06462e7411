// Package transcribe provides speech-to-text on top of whisper.cpp.
//
// A model is loaded once by New and shared by every call to Process; each
// call gets its own whisper context, so the model itself is never mutated.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chaz8081/gostt-worker/internal/models"
	"github.com/chaz8081/gostt-worker/internal/sysinfo"
)

// Transcriber converts audio samples to text.
type Transcriber interface {
	// Process transcribes mono 16kHz float32 audio samples to text.
	Process(samples []float32) (string, error)
	// Close releases backend resources.
	Close() error
}

var (
	// ErrAudio marks failures to read or decode the input file. These are
	// specific to one request; the next request may well succeed.
	ErrAudio = errors.New("transcribe: audio")
	// ErrInference marks failures inside the model itself.
	ErrInference = errors.New("transcribe: inference")
)

// Options selects and configures the model to load.
type Options struct {
	ModelPath string // ggml file to load
	ModelName string // catalog name, used for memory checks; may be empty
	Device    string // "cpu" or "cuda"
	Language  string // "auto" or a language code; ignored by English-only models
	Threads   uint   // 0 keeps the whisper.cpp default
	Logger    *slog.Logger
}

// Swapped out in tests.
var (
	detectGPU    = sysinfo.DetectGPU
	systemMemory = sysinfo.SystemMemory
	loadWhisper  = func(opts Options) (Transcriber, error) {
		return NewWhisperTranscriber(opts.ModelPath, WhisperOptions{
			Language: opts.Language,
			Threads:  opts.Threads,
		})
	}
)

// New checks that the requested device is usable and the model file exists,
// then loads the model. The caller must call Close() when done.
func New(ctx context.Context, opts Options) (Transcriber, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var gpu sysinfo.GPU
	switch opts.Device {
	case "cpu", "":
	case "cuda":
		var err error
		gpu, err = detectGPU(ctx)
		if err != nil {
			return nil, fmt.Errorf("transcribe: device cuda requested: %w", err)
		}
		logger.Info("CUDA device detected", "gpu", gpu.Name, "vram_gb", fmt.Sprintf("%.1f", gpu.VRAMGB))
	default:
		return nil, fmt.Errorf("transcribe: unknown device %q (supported: cpu, cuda)", opts.Device)
	}

	if info, ok := models.Lookup(opts.ModelName); ok {
		mem, err := systemMemory(ctx)
		if err != nil {
			logger.Debug("could not read system memory", "err", err)
		}
		if warn := sysinfo.CheckModelFits(info, opts.Device, gpu, mem); warn != "" {
			logger.Warn(warn)
		}
	}

	if opts.ModelPath == "" {
		return nil, fmt.Errorf("transcribe: no model path given")
	}
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("transcribe: model file %s: %w", opts.ModelPath, err)
	}

	start := time.Now()
	tr, err := loadWhisper(opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Model loaded", "path", opts.ModelPath, "elapsed", time.Since(start).Round(time.Millisecond))
	return tr, nil
}
