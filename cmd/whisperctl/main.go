// Command whisperctl manages models and drives the transcribe worker.
//
// Usage:
//
//	whisperctl models list
//	whisperctl models download <name>...
//	whisperctl sysinfo
//	whisperctl devices
//	whisperctl record <out.wav> [--duration 5s]
//	whisperctl transcribe <file>... [--worker transcribe-worker]
//	whisperctl dictate [--keys ctrl,shift,r] [--mode hold] [--inject paste]
//	whisperctl init
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-worker/internal/config"
	"github.com/chaz8081/gostt-worker/internal/logging"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "whisperctl",
		Short:         "Manage whisper models and run transcriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (default: ~/.config/gostt-worker/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.modelsCmd(),
		a.sysinfoCmd(),
		a.devicesCmd(),
		a.recordCmd(),
		a.transcribeCmd(),
		a.dictateCmd(),
		a.initCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, source, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, "whisperctl")
	if source != "" {
		a.logger.Debug("Config loaded", "path", source)
	}
	return nil
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.WriteDefault()
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Config already exists: %s\n", config.DefaultConfigPath())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}
