package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
	"go.uber.org/multierr"
)

// WriteWAV writes normalized mono samples to path as 16-bit PCM WAV.
func WriteWAV(path string, samples []float32, sampleRate int) (err error) {
	if sampleRate <= 0 {
		return fmt.Errorf("audio: invalid sample rate %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", path, err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(intBuffer(samples, sampleRate)); err != nil {
		return fmt.Errorf("audio: encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: finalize %s: %w", path, err)
	}
	return nil
}
