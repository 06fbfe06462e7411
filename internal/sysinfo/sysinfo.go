// Package sysinfo reports the compute resources a model would run on:
// the first CUDA device (through nvidia-smi) and system RAM.
package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/chaz8081/gostt-worker/internal/models"
)

// ErrNoGPU is returned when no CUDA device can be found.
var ErrNoGPU = errors.New("sysinfo: no CUDA device detected")

// GPU describes a CUDA device.
type GPU struct {
	Name   string
	VRAMGB float64
}

// Memory describes system RAM in GB.
type Memory struct {
	TotalGB     float64
	AvailableGB float64
}

// nvidiaSMI is swapped out in tests.
var nvidiaSMI = func(ctx context.Context) ([]byte, error) {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return nil, ErrNoGPU
	}
	return exec.CommandContext(ctx, path,
		"--query-gpu=name,memory.total",
		"--format=csv,noheader,nounits").Output()
}

// DetectGPU returns the first CUDA device, or ErrNoGPU.
func DetectGPU(ctx context.Context) (GPU, error) {
	out, err := nvidiaSMI(ctx)
	if err != nil {
		if errors.Is(err, ErrNoGPU) {
			return GPU{}, err
		}
		return GPU{}, fmt.Errorf("%w: %v", ErrNoGPU, err)
	}
	return parseNvidiaSMI(string(out))
}

// parseNvidiaSMI reads "name, MiB" lines and returns the first device.
func parseNvidiaSMI(out string) (GPU, error) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := strings.LastIndex(line, ",")
		if idx < 0 {
			return GPU{}, fmt.Errorf("%w: unexpected nvidia-smi output %q", ErrNoGPU, line)
		}
		mib, err := strconv.ParseFloat(strings.TrimSpace(line[idx+1:]), 64)
		if err != nil {
			return GPU{}, fmt.Errorf("%w: parse memory %q: %v", ErrNoGPU, line, err)
		}
		return GPU{
			Name:   strings.TrimSpace(line[:idx]),
			VRAMGB: mib / 1024.0,
		}, nil
	}
	return GPU{}, ErrNoGPU
}

// SystemMemory returns total and available RAM.
func SystemMemory(ctx context.Context) (Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, fmt.Errorf("sysinfo: read memory: %w", err)
	}
	const gb = 1024 * 1024 * 1024
	return Memory{
		TotalGB:     float64(vm.Total) / gb,
		AvailableGB: float64(vm.Available) / gb,
	}, nil
}

// CheckModelFits returns a human-readable warning when model info is not
// expected to fit in the target device's memory, or "" when it fits.
// On cuda the GPU's VRAM is compared; on cpu the available system RAM.
// Zero-valued resources are treated as unknown and never warn.
func CheckModelFits(info models.Info, device string, gpu GPU, memory Memory) string {
	switch device {
	case "cuda":
		if gpu.VRAMGB > 0 && info.MemoryGB > gpu.VRAMGB {
			return fmt.Sprintf("model %q needs about %.1f GB but %s has %.1f GB of VRAM",
				info.Name, info.MemoryGB, gpu.Name, gpu.VRAMGB)
		}
	default:
		if memory.AvailableGB > 0 && info.MemoryGB > memory.AvailableGB {
			return fmt.Sprintf("model %q needs about %.1f GB but only %.1f GB of RAM is available",
				info.Name, info.MemoryGB, memory.AvailableGB)
		}
	}
	return ""
}
