package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-worker/internal/client"
)

// transcriber is the part of client.Client the batch loop needs.
type transcriber interface {
	Transcribe(path string) (string, error)
}

func (a *app) transcribeCmd() *cobra.Command {
	var opts client.Options

	cmd := &cobra.Command{
		Use:   "transcribe <file>...",
		Short: "Transcribe files through a transcribe-worker process",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Model == "" {
				opts.Model = a.cfg.Transcribe.Model
			}
			if opts.Device == "" {
				opts.Device = a.cfg.Transcribe.Device
			}
			if a.configPath != "" {
				opts.Args = append(opts.Args, "--config", a.configPath)
			}
			opts.Stderr = cmd.ErrOrStderr()

			a.logger.Info("Starting worker", "executable", opts.Executable, "model", opts.Model, "device", opts.Device)
			start := time.Now()
			c, err := client.Start(cmd.Context(), opts)
			if err != nil {
				return err
			}
			a.logger.Info("Worker ready", "elapsed", time.Since(start).Round(time.Millisecond))

			failed := transcribeAll(c, cmd.OutOrStdout(), args, a.logger.Error)
			if err := c.Close(); err != nil {
				a.logger.Warn("Worker exit", "err", err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Executable, "worker", "transcribe-worker", "worker executable")
	cmd.Flags().StringVar(&opts.Model, "model", "", "model size (default from config)")
	cmd.Flags().StringVar(&opts.Device, "device", "", "cpu or cuda (default from config)")
	return cmd
}

// transcribeAll prints "<file>: <text>" for each file in order and returns
// the number of failures. A failure does not stop the batch.
func transcribeAll(t transcriber, w io.Writer, files []string, logErr func(msg string, args ...any)) int {
	failed := 0
	for _, f := range files {
		text, err := t.Transcribe(f)
		if err != nil {
			logErr("Transcription failed", "file", f, "err", err)
			failed++
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", f, text)
	}
	return failed
}
