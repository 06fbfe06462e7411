package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-worker/internal/audio"
)

func (a *app) devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := audio.NewRecorder(a.cfg.Audio.SampleRate, a.cfg.Audio.Channels, "")
			if err != nil {
				return err
			}
			defer rec.Close()

			names, err := rec.CaptureDevices()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No capture devices found")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) recordCmd() *cobra.Command {
	var (
		duration   time.Duration
		deviceName string
	)

	cmd := &cobra.Command{
		Use:   "record <out.wav>",
		Short: "Record from the microphone into a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration <= 0 {
				return fmt.Errorf("--duration must be positive")
			}
			if deviceName == "" {
				deviceName = a.cfg.Audio.DeviceName
			}

			rec, err := audio.NewRecorder(a.cfg.Audio.SampleRate, a.cfg.Audio.Channels, deviceName)
			if err != nil {
				return err
			}
			defer rec.Close()

			a.logger.Info("Recording...", "duration", duration, "device", deviceName)
			samples, err := rec.RecordFor(cmd.Context(), duration)
			if err != nil {
				return err
			}

			rate := int(rec.SampleRate())
			if err := audio.WriteWAV(args[0], samples, rate); err != nil {
				return err
			}
			a.logger.Info("Saved recording", "path", args[0],
				"seconds", fmt.Sprintf("%.1f", float64(len(samples))/float64(rate)))
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 5*time.Second, "how long to record")
	cmd.Flags().StringVar(&deviceName, "device-name", "", "capture device name (default from config, else system default)")
	return cmd
}
