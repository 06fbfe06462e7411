// Package models knows which ggml whisper models exist, where they live on
// disk, and how to fetch them from HuggingFace.
package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const baseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// Info describes one downloadable whisper model.
type Info struct {
	Name     string  // catalog name, e.g. "small" or "base.en"
	File     string  // ggml file name
	MemoryGB float64 // approximate memory needed to load and run it
	SizeMB   int     // approximate download size
}

// URL returns the HuggingFace download URL for the model.
func (i Info) URL() string {
	return baseURL + i.File
}

var catalog = map[string]Info{
	"tiny":      {Name: "tiny", File: "ggml-tiny.bin", MemoryGB: 1.0, SizeMB: 75},
	"tiny.en":   {Name: "tiny.en", File: "ggml-tiny.en.bin", MemoryGB: 1.0, SizeMB: 75},
	"base":      {Name: "base", File: "ggml-base.bin", MemoryGB: 1.0, SizeMB: 142},
	"base.en":   {Name: "base.en", File: "ggml-base.en.bin", MemoryGB: 1.0, SizeMB: 142},
	"small":     {Name: "small", File: "ggml-small.bin", MemoryGB: 2.0, SizeMB: 466},
	"small.en":  {Name: "small.en", File: "ggml-small.en.bin", MemoryGB: 2.0, SizeMB: 466},
	"medium":    {Name: "medium", File: "ggml-medium.bin", MemoryGB: 5.0, SizeMB: 1500},
	"medium.en": {Name: "medium.en", File: "ggml-medium.en.bin", MemoryGB: 5.0, SizeMB: 1500},
	"large":     {Name: "large", File: "ggml-large-v3.bin", MemoryGB: 10.5, SizeMB: 2900},
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Info, bool) {
	info, ok := catalog[name]
	return info, ok
}

// Names returns all catalog names, sorted by memory requirement then name.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		ia, ib := catalog[names[a]], catalog[names[b]]
		if ia.MemoryGB != ib.MemoryGB {
			return ia.MemoryGB < ib.MemoryGB
		}
		return ia.Name < ib.Name
	})
	return names
}

// Path returns where model name is stored inside dir.
func Path(dir, name string) (string, error) {
	info, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("models: unknown model %q", name)
	}
	return filepath.Join(dir, info.File), nil
}

// Exists reports whether model name has been downloaded into dir.
func Exists(dir, name string) bool {
	path, err := Path(dir, name)
	if err != nil {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.Size() > 0
}
