// Package client drives a transcribe-worker subprocess: it starts the worker,
// waits for READY, and exchanges one request line for one response line.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/chaz8081/gostt-worker/internal/worker"
)

// Options configure the worker process.
type Options struct {
	Executable string    // worker binary; defaults to "transcribe-worker" in PATH
	Model      string    // passed as --model when set
	Device     string    // passed as --device when set
	Args       []string  // extra worker flags
	Stderr     io.Writer // worker logs; defaults to os.Stderr
}

// Client talks to one worker. Transcribe calls are serialized.
type Client struct {
	mu     sync.Mutex
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	wait   func() error
}

// Start launches the worker and blocks until it reports READY. If the worker
// reports ERROR or exits first, the process is reaped and an error returned.
func Start(ctx context.Context, opts Options) (*Client, error) {
	exe := opts.Executable
	if exe == "" {
		exe = "transcribe-worker"
	}

	args := append([]string{}, opts.Args...)
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.Device != "" {
		args = append(args, "--device", opts.Device)
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("client: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("client: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("client: start %s: %w", exe, err)
	}

	c, err := newClient(stdin, stdout, cmd.Wait)
	if err != nil {
		_ = stdin.Close()
		return nil, multierr.Append(err, ignoreExit(cmd.Wait()))
	}
	return c, nil
}

// newClient waits for the startup line on stdout.
func newClient(stdin io.WriteCloser, stdout io.Reader, wait func() error) (*Client, error) {
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), worker.MaxLineSize)

	c := &Client{stdin: stdin, stdout: sc, wait: wait}

	resp, err := c.read()
	if err != nil {
		return nil, fmt.Errorf("client: waiting for READY: %w", err)
	}
	switch resp.Status {
	case worker.StatusReady:
		return c, nil
	case worker.StatusError:
		return nil, fmt.Errorf("client: worker failed to initialize: %s", resp.Error)
	default:
		return nil, fmt.Errorf("client: unexpected startup status %q", resp.Status)
	}
}

// Transcribe sends one audio file path and returns its trimmed transcript.
// A worker-side ERROR becomes the returned error's message.
func (c *Client) Transcribe(audioPath string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := json.Marshal(worker.Request{AudioFile: audioPath})
	if err != nil {
		return "", fmt.Errorf("client: encode request: %w", err)
	}
	if _, err := c.stdin.Write(append(line, '\n')); err != nil {
		return "", fmt.Errorf("client: send request: %w", err)
	}

	resp, err := c.read()
	if err != nil {
		return "", err
	}
	switch resp.Status {
	case worker.StatusSuccess:
		return strings.TrimSpace(resp.Text), nil
	case worker.StatusError:
		if resp.Error == "" {
			return "", errors.New("client: worker reported an error")
		}
		return "", errors.New(resp.Error)
	default:
		return "", fmt.Errorf("client: unexpected status %q", resp.Status)
	}
}

// Close closes the worker's stdin, which ends its loop, and waits for it to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.stdin.Close()
	if c.wait != nil {
		err = multierr.Append(err, c.wait())
		c.wait = nil
	}
	return err
}

func (c *Client) read() (worker.Response, error) {
	if !c.stdout.Scan() {
		if err := c.stdout.Err(); err != nil {
			return worker.Response{}, fmt.Errorf("client: read response: %w", err)
		}
		return worker.Response{}, fmt.Errorf("client: worker exited unexpectedly")
	}
	var resp worker.Response
	if err := json.Unmarshal(c.stdout.Bytes(), &resp); err != nil {
		return worker.Response{}, fmt.Errorf("client: parse response %q: %w", c.stdout.Text(), err)
	}
	return resp, nil
}

// ignoreExit drops the exit status of a worker that already told us why it
// failed.
func ignoreExit(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
