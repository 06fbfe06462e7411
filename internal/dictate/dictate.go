// Package dictate runs a push-to-talk loop: a hotkey starts and stops the
// microphone, the clip is handed to the transcribe worker as a WAV file, and
// the resulting text is printed and optionally injected into the focused
// window.
package dictate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/chaz8081/gostt-worker/internal/audio"
	"github.com/chaz8081/gostt-worker/internal/hotkey"
	"github.com/chaz8081/gostt-worker/internal/inject"
)

// DefaultMinDuration is the shortest clip worth sending to the worker.
const DefaultMinDuration = 300 * time.Millisecond

// Recorder is the part of audio.Recorder a session drives.
type Recorder interface {
	Start() error
	StopMono() []float32
	IsRecording() bool
	SampleRate() uint32
}

// Transcriber turns an audio file into text. client.Client satisfies it.
type Transcriber interface {
	Transcribe(path string) (string, error)
}

// Session wires one recorder, one worker and one injector together.
type Session struct {
	Recorder    Recorder
	Transcriber Transcriber
	Injector    inject.TextInjector
	Out         io.Writer    // each transcript is printed here on its own line
	Logger      *slog.Logger
	MinDuration time.Duration // 0 uses DefaultMinDuration
	TempDir     string        // "" uses os.TempDir
}

// Run consumes hotkey events until ctx is cancelled or events is closed.
// Clips are transcribed in the order they were recorded. Per-clip failures
// are logged and do not end the session.
func (s *Session) Run(ctx context.Context, events <-chan hotkey.Event) error {
	for {
		select {
		case <-ctx.Done():
			s.abort()
			return nil
		case ev, ok := <-events:
			if !ok {
				s.abort()
				return nil
			}
			switch ev.Type {
			case hotkey.EventStart:
				if err := s.Recorder.Start(); err != nil {
					s.Logger.Error("Failed to start recording", "err", err)
					continue
				}
				s.Logger.Info("Recording...")
			case hotkey.EventStop:
				s.finish()
			}
		}
	}
}

// abort drops an in-flight recording on shutdown.
func (s *Session) abort() {
	if s.Recorder.IsRecording() {
		s.Recorder.StopMono()
	}
}

func (s *Session) finish() {
	samples := s.Recorder.StopMono()
	if samples == nil {
		return
	}

	rate := int(s.Recorder.SampleRate())
	duration := time.Duration(float64(len(samples)) / float64(rate) * float64(time.Second))
	minDuration := s.MinDuration
	if minDuration == 0 {
		minDuration = DefaultMinDuration
	}
	if duration < minDuration {
		s.Logger.Info("Recording too short, skipping", "duration", duration.Round(time.Millisecond))
		return
	}

	s.Logger.Info("Transcribing", "duration", duration.Round(time.Millisecond))
	start := time.Now()
	text, err := s.transcribe(samples, rate)
	if err != nil {
		s.Logger.Error("Transcription failed", "err", err)
		return
	}
	elapsed := time.Since(start).Round(time.Millisecond)

	if text == "" {
		s.Logger.Info("No speech detected", "elapsed", elapsed)
		return
	}
	s.Logger.Info("Transcribed", "elapsed", elapsed)
	fmt.Fprintln(s.Out, text)

	if err := s.Injector.Inject(text); err != nil {
		s.Logger.Error("Text injection failed", "err", err)
	}
}

// transcribe writes the clip to a temporary WAV file, which is removed once
// the worker has answered.
func (s *Session) transcribe(samples []float32, rate int) (string, error) {
	f, err := os.CreateTemp(s.TempDir, "dictate-*.wav")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	_ = f.Close()
	defer os.Remove(path)

	if err := audio.WriteWAV(path, samples, rate); err != nil {
		return "", err
	}
	return s.Transcriber.Transcribe(path)
}
