// Package worker implements the line-delimited JSON transcription loop: load
// a model once, announce READY, then answer one request line with one
// response line until the input closes.
package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"github.com/chaz8081/gostt-worker/internal/transcribe"
)

// FileTranscriber turns an audio file path into trimmed text.
type FileTranscriber interface {
	TranscribeFile(ctx context.Context, path string) (string, error)
}

// Loader loads the model. It runs once, before the READY signal.
type Loader func(ctx context.Context) (FileTranscriber, error)

// Worker reads requests from in and writes responses to out. Requests are
// handled strictly one at a time.
type Worker struct {
	in     *bufio.Reader
	enc    *json.Encoder
	logger *slog.Logger
}

// New creates a Worker over the given streams.
func New(in io.Reader, out io.Writer, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		in:     bufio.NewReader(in),
		enc:    json.NewEncoder(out),
		logger: logger,
	}
}

// Run loads the model with load, emits READY (or ERROR and returns the load
// error), then serves requests until the input is exhausted.
func (w *Worker) Run(ctx context.Context, load Loader) error {
	tr, err := w.Start(ctx, load)
	if err != nil {
		return err
	}
	return w.Serve(ctx, tr)
}

// Start loads the model and writes exactly one startup line.
func (w *Worker) Start(ctx context.Context, load Loader) (FileTranscriber, error) {
	tr, err := load(ctx)
	if err == nil && tr == nil {
		err = errors.New("loader returned no transcriber")
	}
	if err != nil {
		w.logger.Error("Model load failed", "err", err)
		if writeErr := w.write(Failure(err)); writeErr != nil {
			return nil, multierr.Append(err, writeErr)
		}
		return nil, err
	}

	if err := w.write(Ready()); err != nil {
		return nil, err
	}
	w.logger.Info("Worker ready")
	return tr, nil
}

// Serve answers requests until end of input, a write failure, or ctx is
// cancelled. Cancellation is noticed while idle between requests, never in
// the middle of one. Malformed lines and failed transcriptions are reported
// as ERROR responses and do not stop the loop.
func (w *Worker) Serve(ctx context.Context, tr FileTranscriber) error {
	next := make(chan struct{})
	lines := make(chan inputLine, 1)
	defer close(next)
	go w.readLines(next, lines)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		next <- struct{}{}
		var in inputLine
		select {
		case in = <-lines:
		case <-ctx.Done():
			w.logger.Info("Stopped while idle")
			return ctx.Err()
		}

		if in.size == 0 && in.err != nil {
			return w.readDone(in.err)
		}

		if err := w.write(w.handle(ctx, tr, in)); err != nil {
			return err
		}

		if in.err != nil {
			return w.readDone(in.err)
		}
	}
}

func (w *Worker) readDone(err error) error {
	if errors.Is(err, io.EOF) {
		w.logger.Info("Input closed, shutting down")
		return nil
	}
	return fmt.Errorf("worker: read request: %w", err)
}

// inputLine is one request line. line is nil when size exceeded MaxLineSize.
type inputLine struct {
	line []byte
	size int
	err  error
}

// readLines reads one line per receive on next, so nothing is read ahead of
// the request being handled. It returns when next is closed.
func (w *Worker) readLines(next <-chan struct{}, out chan<- inputLine) {
	for range next {
		line, size, err := w.readLine()
		out <- inputLine{line: line, size: size, err: err}
	}
}

// readLine reads up to and including the next newline. At most MaxLineSize
// bytes are kept; the rest of an oversized line is consumed and dropped.
func (w *Worker) readLine() ([]byte, int, error) {
	var (
		line []byte
		size int
	)
	for {
		chunk, err := w.in.ReadSlice('\n')
		size += len(chunk)
		if size <= MaxLineSize {
			line = append(line, chunk...)
		} else {
			line = nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, size, err
	}
}

// handle turns one input line into one response.
func (w *Worker) handle(ctx context.Context, tr FileTranscriber, in inputLine) Response {
	if in.size > MaxLineSize {
		w.logger.Warn("Rejected request", "err", "line too long", "bytes", in.size)
		return Failure(fmt.Errorf("%w: line exceeds %d bytes", ErrInvalidRequest, MaxLineSize))
	}

	req, err := ParseRequest(bytes.TrimSpace(in.line))
	if err != nil {
		w.logger.Warn("Rejected request", "err", err)
		return Failure(err)
	}

	start := time.Now()
	text, err := tr.TranscribeFile(ctx, req.AudioFile)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		w.logger.Error("Transcription failed",
			"file", req.AudioFile, "kind", errorKind(err), "elapsed", elapsed, "err", err)
		return Failure(err)
	}

	w.logger.Info("Transcribed", "file", req.AudioFile, "elapsed", elapsed, "chars", len(text))
	return Success(text)
}

// errorKind labels a transcription failure for logs.
func errorKind(err error) string {
	switch {
	case errors.Is(err, transcribe.ErrAudio):
		return "audio"
	case errors.Is(err, transcribe.ErrInference):
		return "inference"
	default:
		return "unknown"
	}
}

func (w *Worker) write(resp Response) error {
	if err := w.enc.Encode(resp); err != nil {
		return fmt.Errorf("worker: write response: %w", err)
	}
	return nil
}
