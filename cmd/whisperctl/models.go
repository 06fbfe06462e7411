package main

import (
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-worker/internal/models"
)

func (a *app) modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List and download ggml whisper models",
	}

	var dir string
	cmd.PersistentFlags().StringVar(&dir, "models-dir", "", "model directory (default from config)")
	modelsDir := func() string {
		if dir != "" {
			return dir
		}
		return a.cfg.Transcribe.ModelsDir
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the model catalog and what is installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			renderModels(cmd.OutOrStdout(), modelsDir())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "download <name>...",
		Short: "Download one or more models",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.downloadModels(cmd.Context(), cmd.ErrOrStderr(), modelsDir(), args)
		},
	})

	return cmd
}

func renderModels(w io.Writer, dir string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Model", "File", "Download", "Memory", "Installed"})
	for _, name := range models.Names() {
		info, _ := models.Lookup(name)
		installed := ""
		if models.Exists(dir, name) {
			installed = "yes"
		}
		table.Append([]string{
			info.Name,
			info.File,
			fmt.Sprintf("~%d MB", info.SizeMB),
			fmt.Sprintf("~%.1f GB", info.MemoryGB),
			installed,
		})
	}
	table.Render()
}

func (a *app) downloadModels(ctx context.Context, progress io.Writer, dir string, names []string) error {
	// Validate everything up front so a typo doesn't surface after a long download.
	for _, name := range names {
		if _, ok := models.Lookup(name); !ok {
			return fmt.Errorf("unknown model %q (see 'whisperctl models list')", name)
		}
	}

	for i, name := range names {
		a.logger.Info("Downloading model", "model", name, "n", fmt.Sprintf("%d/%d", i+1, len(names)), "dir", dir)
		path, err := models.Download(ctx, dir, name, progress)
		if err != nil {
			return fmt.Errorf("download %s: %w", name, err)
		}
		a.logger.Info("Model ready", "path", path)
	}
	return nil
}
