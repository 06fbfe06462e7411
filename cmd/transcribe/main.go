// Command transcribe prints the transcript of a single audio file using the
// whisper "small" model.
//
// Usage:
//
//	transcribe <audio.wav>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-worker/internal/config"
	"github.com/chaz8081/gostt-worker/internal/logging"
	"github.com/chaz8081/gostt-worker/internal/transcribe"
)

const (
	model = "small"
	usage = "Usage: transcribe <audio.wav>"
)

var errUsage = errors.New("wrong number of arguments")

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(splitArgs(args))

	err := cmd.ExecuteContext(context.Background())
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stdout, usage)
		return 1
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
}

// valueFlags take a value; boolFlags do not. Anything else is a path, even
// when it starts with a dash.
var (
	valueFlags = map[string]bool{"--config": true, "--log-level": true}
	boolFlags  = map[string]bool{"-h": true, "--help": true}
)

// splitArgs moves known flags to the front and puts every other argument
// after "--", so a file named like "-take1.wav" is not parsed as a flag.
func splitArgs(args []string) []string {
	var flags, paths []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, _, hasValue := strings.Cut(arg, "=")
		switch {
		case arg == "--":
			paths = append(paths, args[i+1:]...)
			i = len(args)
		case boolFlags[arg]:
			flags = append(flags, arg)
		case valueFlags[name] && hasValue:
			flags = append(flags, arg)
		case valueFlags[name] && i+1 < len(args):
			flags = append(flags, arg, args[i+1])
			i++
		default:
			paths = append(paths, arg)
		}
	}
	return append(append(flags, "--"), paths...)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var configPath, logLevel string

	cmd := &cobra.Command{
		Use:   "transcribe <audio.wav>",
		Short: "Transcribe one audio file with the whisper small model",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			cfg.Transcribe.Model = model
			cfg.Transcribe.ModelPath = ""
			// Without a config file only warnings reach stderr.
			if cmd.Flags().Changed("log-level") || source == "" {
				cfg.LogLevel = logLevel
			}

			logger := logging.New(stderr, cfg.LogLevel, "transcribe")

			ft, err := transcribe.FromConfig(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer ft.Close()

			text, err := ft.TranscribeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, text)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (default: ~/.config/gostt-worker/config.yaml)")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	return cmd
}
