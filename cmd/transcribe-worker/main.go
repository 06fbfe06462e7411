// Command transcribe-worker loads a whisper model once and then answers
// line-delimited JSON requests on stdin with JSON responses on stdout.
//
// Usage:
//
//	transcribe-worker [--device cpu|cuda] [--model tiny|base|small|medium|large]
//
// Protocol:
//
//	startup  -> {"status":"READY"} or {"status":"ERROR","error":"..."} (exit 1)
//	request  <- {"audio_file":"/path/to/audio.wav"}
//	response -> {"status":"SUCCESS","text":"..."} or {"status":"ERROR","error":"..."}
//
// Logs go to stderr; stdout carries protocol lines only.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-worker/internal/config"
	"github.com/chaz8081/gostt-worker/internal/logging"
	"github.com/chaz8081/gostt-worker/internal/transcribe"
	"github.com/chaz8081/gostt-worker/internal/worker"
)

type flags struct {
	configPath string
	device     string
	model      string
	modelsDir  string
	language   string
	threads    uint
	download   bool
	logLevel   string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "transcribe-worker",
		Short:         "Serve whisper transcriptions over line-delimited JSON on stdin/stdout",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.device, "device", config.DeviceCPU, "inference device: cpu or cuda")
	fl.StringVar(&f.model, "model", "small", "model size: tiny, base, small, medium, large (or a .en variant)")
	fl.StringVar(&f.configPath, "config", "", "path to config file (default: ~/.config/gostt-worker/config.yaml)")
	fl.StringVar(&f.modelsDir, "models-dir", "", "directory holding ggml model files")
	fl.StringVar(&f.language, "language", "", "spoken language code, or auto")
	fl.UintVar(&f.threads, "threads", 0, "inference threads (0 = whisper.cpp default)")
	fl.BoolVar(&f.download, "download", false, "download the model if it is missing")
	fl.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintln(c.ErrOrStderr(), "Error:", err)
		fmt.Fprint(c.ErrOrStderr(), c.UsageString())
		return err
	})

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, f flags) error {
	cfg, source, cfgErr := config.LoadOrDefault(f.configPath)
	if cfgErr != nil {
		cfg = config.Default()
	}
	applyFlags(cmd, cfg, f)

	logger := logging.New(os.Stderr, cfg.LogLevel, "worker")
	slog.SetDefault(logger)
	w := worker.New(os.Stdin, os.Stdout, logger)

	if source != "" {
		logger.Info("Config loaded", "path", source)
	}
	logger.Info("Starting worker", "model", cfg.Transcribe.Model, "device", cfg.Transcribe.Device)

	var closer interface{ Close() error }
	err := w.Run(ctx, func(ctx context.Context) (worker.FileTranscriber, error) {
		if cfgErr != nil {
			return nil, fmt.Errorf("config: %w", cfgErr)
		}
		ft, err := transcribe.FromConfig(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		closer = ft
		return ft, nil
	})

	if closer == nil {
		// Load failed; the ERROR line has already been written.
		return err
	}
	if closeErr := closer.Close(); closeErr != nil {
		logger.Warn("Closing model failed", "err", closeErr)
	}
	if err != nil && ctx.Err() != nil {
		logger.Info("Received signal, shutting down")
		return nil
	}
	if err != nil {
		logger.Error("Worker stopped", "err", err)
	}
	return err
}

// applyFlags overlays explicitly set flags on cfg. The --device and --model
// defaults also apply when no config file sets them.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f flags) {
	fl := cmd.Flags()
	if fl.Changed("device") || cfg.Transcribe.Device == "" {
		cfg.Transcribe.Device = f.device
	}
	if fl.Changed("model") || cfg.Transcribe.Model == "" {
		cfg.Transcribe.Model = f.model
		if fl.Changed("model") {
			cfg.Transcribe.ModelPath = ""
		}
	}
	if fl.Changed("models-dir") {
		cfg.Transcribe.ModelsDir = f.modelsDir
	}
	if fl.Changed("language") {
		cfg.Transcribe.Language = f.language
	}
	if fl.Changed("threads") {
		cfg.Transcribe.Threads = f.threads
	}
	if fl.Changed("download") {
		cfg.Transcribe.AutoDownload = f.download
	}
	if fl.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}
