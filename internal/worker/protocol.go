package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Response statuses.
const (
	StatusReady   = "READY"
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// MaxLineSize bounds a single request line.
const MaxLineSize = 1 << 20

// ErrInvalidRequest marks lines that are not valid requests.
var ErrInvalidRequest = errors.New("invalid request")

// Request is one line sent to the worker.
type Request struct {
	AudioFile string `json:"audio_file"`
}

// Response is one line sent back by the worker.
type Response struct {
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Ready is the startup signal.
func Ready() Response { return Response{Status: StatusReady} }

// Success carries a transcript.
func Success(text string) Response { return Response{Status: StatusSuccess, Text: text} }

// Failure carries an error message. An empty message is replaced so the
// error field is never omitted.
func Failure(err error) Response {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Response{Status: StatusError, Error: msg}
}

// ParseRequest decodes one input line. Invalid JSON and a missing or empty
// audio_file both wrap ErrInvalidRequest.
func ParseRequest(line []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if strings.TrimSpace(req.AudioFile) == "" {
		return Request{}, fmt.Errorf("%w: missing audio_file", ErrInvalidRequest)
	}
	return req, nil
}
