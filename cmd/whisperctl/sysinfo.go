package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-worker/internal/models"
	"github.com/chaz8081/gostt-worker/internal/sysinfo"
)

func (a *app) sysinfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sysinfo",
		Short: "Report CUDA and RAM availability and which models fit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			gpu, gpuErr := sysinfo.DetectGPU(ctx)
			if gpuErr != nil {
				a.logger.Debug("GPU detection", "err", gpuErr)
				fmt.Fprintln(out, "CUDA:   not available")
			} else {
				fmt.Fprintf(out, "CUDA:   %s (%.1f GB VRAM)\n", gpu.Name, gpu.VRAMGB)
			}

			mem, err := sysinfo.SystemMemory(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "RAM:    %.1f GB total, %.1f GB available\n\n", mem.TotalGB, mem.AvailableGB)

			renderFit(out, gpu, gpuErr == nil, mem)
			return nil
		},
	}
}

// renderFit prints whether each catalog model fits on cpu and cuda.
func renderFit(w io.Writer, gpu sysinfo.GPU, hasGPU bool, mem sysinfo.Memory) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Model", "Memory", "CPU", "CUDA"})
	for _, name := range models.Names() {
		info, _ := models.Lookup(name)
		cuda := "n/a"
		if hasGPU {
			cuda = fitLabel(sysinfo.CheckModelFits(info, "cuda", gpu, mem))
		}
		table.Append([]string{
			info.Name,
			fmt.Sprintf("~%.1f GB", info.MemoryGB),
			fitLabel(sysinfo.CheckModelFits(info, "cpu", gpu, mem)),
			cuda,
		})
	}
	table.Render()
}

func fitLabel(warning string) string {
	if warning == "" {
		return "ok"
	}
	return "too large"
}
