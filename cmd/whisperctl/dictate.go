package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-worker/internal/audio"
	"github.com/chaz8081/gostt-worker/internal/client"
	"github.com/chaz8081/gostt-worker/internal/dictate"
	"github.com/chaz8081/gostt-worker/internal/hotkey"
	"github.com/chaz8081/gostt-worker/internal/inject"
)

func (a *app) dictateCmd() *cobra.Command {
	var (
		opts        client.Options
		keys        []string
		mode        string
		method      string
		minDuration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dictate",
		Short: "Push-to-talk: record on a global hotkey and transcribe through the worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("keys") {
				a.cfg.Dictate.Keys = keys
			}
			if cmd.Flags().Changed("mode") {
				a.cfg.Dictate.Mode = mode
			}
			if cmd.Flags().Changed("inject") {
				a.cfg.Dictate.Inject = method
			}
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			injector, err := inject.New(a.cfg.Dictate.Inject)
			if err != nil {
				return err
			}

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

			rec, err := audio.NewRecorder(a.cfg.Audio.SampleRate, a.cfg.Audio.Channels, a.cfg.Audio.DeviceName)
			if err != nil {
				return err
			}
			defer rec.Close()

			a.logger.Info("Starting worker", "executable", opts.Executable, "model", opts.Model, "device", opts.Device)
			c, err := client.Start(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() {
				if err := c.Close(); err != nil {
					a.logger.Warn("Worker exit", "err", err)
				}
			}()

			listener := hotkey.NewListener(a.cfg.Dictate.Keys, a.cfg.Dictate.Mode)
			go listener.Run(cmd.Context())

			a.logger.Info("Ready", "hotkey", strings.Join(a.cfg.Dictate.Keys, "+"),
				"mode", a.cfg.Dictate.Mode, "inject", a.cfg.Dictate.Inject)

			s := &dictate.Session{
				Recorder:    rec,
				Transcriber: c,
				Injector:    injector,
				Out:         cmd.OutOrStdout(),
				Logger:      a.logger,
				MinDuration: minDuration,
			}
			return s.Run(cmd.Context(), listener.Events())
		},
	}

	cmd.Flags().StringVar(&opts.Executable, "worker", "transcribe-worker", "worker executable")
	cmd.Flags().StringVar(&opts.Model, "model", "", "model size (default from config)")
	cmd.Flags().StringVar(&opts.Device, "device", "", "cpu or cuda (default from config)")
	cmd.Flags().StringSliceVar(&keys, "keys", nil, "hotkey combo, e.g. ctrl,shift,r (default from config)")
	cmd.Flags().StringVar(&mode, "mode", "", "hotkey mode: hold or toggle (default from config)")
	cmd.Flags().StringVar(&method, "inject", "", "text delivery: none, type, paste (default from config)")
	cmd.Flags().DurationVar(&minDuration, "min-duration", dictate.DefaultMinDuration, "discard clips shorter than this")
	return cmd
}
