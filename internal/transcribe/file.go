package transcribe

import (
	"context"
	"fmt"
	"strings"

	"github.com/chaz8081/gostt-worker/internal/audio"
)

// FileTranscriber transcribes audio files with a loaded Transcriber.
type FileTranscriber struct {
	tr   Transcriber
	load func(ctx context.Context, path string) ([]float32, error)
}

// NewFileTranscriber wraps tr so it can be fed file paths.
func NewFileTranscriber(tr Transcriber) *FileTranscriber {
	return &FileTranscriber{tr: tr, load: audio.LoadFile}
}

// TranscribeFile decodes path and returns its trimmed transcript. Decode
// failures wrap ErrAudio; model failures wrap ErrInference.
func (f *FileTranscriber) TranscribeFile(ctx context.Context, path string) (string, error) {
	samples, err := f.load(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAudio, err)
	}

	text, err := f.tr.Process(samples)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInference, err)
	}
	return strings.TrimSpace(text), nil
}

// Close releases the underlying Transcriber.
func (f *FileTranscriber) Close() error {
	return f.tr.Close()
}
