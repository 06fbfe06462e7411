package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chaz8081/gostt-worker/internal/config"
	"github.com/chaz8081/gostt-worker/internal/models"
)

// downloadModel is swapped out in tests.
var downloadModel = models.Download

// FromConfig validates cfg, fetches the model first when auto_download is
// set and the file is missing, and loads it.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*FileTranscriber, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	path, err := cfg.ResolvedModelPath()
	if err != nil {
		return nil, err
	}

	tc := cfg.Transcribe
	if tc.ModelPath == "" && !models.Exists(tc.ModelsDir, tc.Model) {
		if !tc.AutoDownload {
			return nil, fmt.Errorf("transcribe: model %q not found at %s (run 'whisperctl models download %s' or pass --download)",
				tc.Model, path, tc.Model)
		}
		logger.Info("Downloading model", "model", tc.Model, "dir", tc.ModelsDir)
		if path, err = downloadModel(ctx, tc.ModelsDir, tc.Model, os.Stderr); err != nil {
			return nil, fmt.Errorf("transcribe: download model %q: %w", tc.Model, err)
		}
	}

	name := tc.Model
	if tc.ModelPath != "" {
		name = ""
	}
	tr, err := New(ctx, Options{
		ModelPath: path,
		ModelName: name,
		Device:    tc.Device,
		Language:  tc.Language,
		Threads:   tc.Threads,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	return NewFileTranscriber(tr), nil
}
