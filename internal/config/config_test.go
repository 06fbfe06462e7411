package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Transcribe.Model != "small" {
		t.Errorf("Transcribe.Model = %q, want %q", cfg.Transcribe.Model, "small")
	}
	if cfg.Transcribe.Device != "cpu" {
		t.Errorf("Transcribe.Device = %q, want %q", cfg.Transcribe.Device, "cpu")
	}
	if cfg.Transcribe.ModelsDir == "" {
		t.Error("Transcribe.ModelsDir should not be empty")
	}
	if cfg.Transcribe.Language != "auto" {
		t.Errorf("Transcribe.Language = %q, want %q", cfg.Transcribe.Language, "auto")
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("Audio.SampleRate = %d, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Errorf("Audio.Channels = %d, want 1", cfg.Audio.Channels)
	}
	if len(cfg.Dictate.Keys) != 3 {
		t.Errorf("Dictate.Keys length = %d, want 3", len(cfg.Dictate.Keys))
	}
	if cfg.Dictate.Mode != "hold" {
		t.Errorf("Dictate.Mode = %q, want %q", cfg.Dictate.Mode, "hold")
	}
	if cfg.Dictate.Inject != "none" {
		t.Errorf("Dictate.Inject = %q, want %q", cfg.Dictate.Inject, "none")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
transcribe:
  model: medium
  device: cuda
  models_dir: /opt/whisper
  language: de
  threads: 8
  auto_download: true
audio:
  sample_rate: 44100
  channels: 2
  device_name: USB Mic
dictate:
  keys: ["alt", "d"]
  mode: toggle
  inject: paste
log_level: debug
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Transcribe.Model != "medium" {
		t.Errorf("Transcribe.Model = %q, want %q", cfg.Transcribe.Model, "medium")
	}
	if cfg.Transcribe.Device != "cuda" {
		t.Errorf("Transcribe.Device = %q, want %q", cfg.Transcribe.Device, "cuda")
	}
	if cfg.Transcribe.ModelsDir != "/opt/whisper" {
		t.Errorf("Transcribe.ModelsDir = %q, want %q", cfg.Transcribe.ModelsDir, "/opt/whisper")
	}
	if cfg.Transcribe.Language != "de" {
		t.Errorf("Transcribe.Language = %q, want %q", cfg.Transcribe.Language, "de")
	}
	if cfg.Transcribe.Threads != 8 {
		t.Errorf("Transcribe.Threads = %d, want 8", cfg.Transcribe.Threads)
	}
	if !cfg.Transcribe.AutoDownload {
		t.Error("Transcribe.AutoDownload = false, want true")
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("Audio.SampleRate = %d, want 44100", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 2 {
		t.Errorf("Audio.Channels = %d, want 2", cfg.Audio.Channels)
	}
	if cfg.Audio.DeviceName != "USB Mic" {
		t.Errorf("Audio.DeviceName = %q, want %q", cfg.Audio.DeviceName, "USB Mic")
	}
	if len(cfg.Dictate.Keys) != 2 || cfg.Dictate.Keys[0] != "alt" || cfg.Dictate.Keys[1] != "d" {
		t.Errorf("Dictate.Keys = %v, want [alt d]", cfg.Dictate.Keys)
	}
	if cfg.Dictate.Mode != "toggle" {
		t.Errorf("Dictate.Mode = %q, want %q", cfg.Dictate.Mode, "toggle")
	}
	if cfg.Dictate.Inject != "paste" {
		t.Errorf("Dictate.Inject = %q, want %q", cfg.Dictate.Inject, "paste")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	yamlContent := `
transcribe:
  model: tiny
`
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transcribe.Model != "tiny" {
		t.Errorf("Transcribe.Model = %q, want %q", cfg.Transcribe.Model, "tiny")
	}
	if cfg.Transcribe.Device != "cpu" {
		t.Errorf("Transcribe.Device = %q, want default %q", cfg.Transcribe.Device, "cpu")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, "info")
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	yamlContent := `
transcribe:
  model_path: ~/models/test.bin
  models_dir: ~/models
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := filepath.Join(home, "models/test.bin")
	if cfg.Transcribe.ModelPath != expected {
		t.Errorf("Transcribe.ModelPath = %q, want %q", cfg.Transcribe.ModelPath, expected)
	}
	if cfg.Transcribe.ModelsDir != filepath.Join(home, "models") {
		t.Errorf("Transcribe.ModelsDir = %q, want %q", cfg.Transcribe.ModelsDir, filepath.Join(home, "models"))
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("transcribe: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Error("Load() should return error for invalid YAML")
	}
}

func TestLoadOrDefaultFallsBackToDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, source, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if source != "" {
		t.Errorf("source = %q, want empty", source)
	}
	if cfg.Transcribe.Model != "small" {
		t.Errorf("Transcribe.Model = %q, want %q", cfg.Transcribe.Model, "small")
	}
}

func TestLoadOrDefaultReadsDefaultPath(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	dir := filepath.Join(tmpHome, ".config", "gostt-worker")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("transcribe:\n  model: base\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, source, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if source != filepath.Join(dir, "config.yaml") {
		t.Errorf("source = %q", source)
	}
	if cfg.Transcribe.Model != "base" {
		t.Errorf("Transcribe.Model = %q, want %q", cfg.Transcribe.Model, "base")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown model",
			modify:  func(c *Config) { c.Transcribe.Model = "huge" },
			wantErr: true,
		},
		{
			name: "unknown model ignored with explicit model_path",
			modify: func(c *Config) {
				c.Transcribe.Model = "custom"
				c.Transcribe.ModelPath = "/tmp/custom.bin"
			},
			wantErr: false,
		},
		{
			name:    "empty models dir",
			modify:  func(c *Config) { c.Transcribe.ModelsDir = "" },
			wantErr: true,
		},
		{
			name:    "cuda device",
			modify:  func(c *Config) { c.Transcribe.Device = "cuda" },
			wantErr: false,
		},
		{
			name:    "invalid device",
			modify:  func(c *Config) { c.Transcribe.Device = "tpu" },
			wantErr: true,
		},
		{
			name:    "zero sample rate",
			modify:  func(c *Config) { c.Audio.SampleRate = 0 },
			wantErr: true,
		},
		{
			name:    "zero channels",
			modify:  func(c *Config) { c.Audio.Channels = 0 },
			wantErr: true,
		},
		{
			name:    "empty dictate keys",
			modify:  func(c *Config) { c.Dictate.Keys = nil },
			wantErr: true,
		},
		{
			name:    "invalid dictate mode",
			modify:  func(c *Config) { c.Dictate.Mode = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid inject method",
			modify:  func(c *Config) { c.Dictate.Inject = "ble" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolvedModelPath(t *testing.T) {
	cfg := Default()
	cfg.Transcribe.ModelsDir = "/data/models"
	cfg.Transcribe.Model = "base"

	got, err := cfg.ResolvedModelPath()
	if err != nil {
		t.Fatalf("ResolvedModelPath() error = %v", err)
	}
	if got != filepath.Join("/data/models", "ggml-base.bin") {
		t.Errorf("ResolvedModelPath() = %q", got)
	}

	cfg.Transcribe.ModelPath = "/tmp/explicit.bin"
	got, err = cfg.ResolvedModelPath()
	if err != nil {
		t.Fatalf("ResolvedModelPath() error = %v", err)
	}
	if got != "/tmp/explicit.bin" {
		t.Errorf("ResolvedModelPath() = %q, want explicit model_path", got)
	}
}

func TestWriteDefault_CreatesFile(t *testing.T) {
	// Use a temp dir as fake home to avoid touching real config
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	expectedPath := filepath.Join(tmpHome, ".config", "gostt-worker", "config.yaml")
	if path != expectedPath {
		t.Errorf("WriteDefault() path = %q, want %q", path, expectedPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}

	if !strings.HasPrefix(string(data), "# gostt-worker") {
		t.Error("written config should start with header comment")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Transcribe.Model != "small" {
		t.Errorf("written config Transcribe.Model = %q, want %q", cfg.Transcribe.Model, "small")
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("written config Audio.SampleRate = %d, want 16000", cfg.Audio.SampleRate)
	}
}

func TestWriteDefault_NoOpIfExists(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "gostt-worker")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	existingContent := []byte("transcribe:\n  model_path: /custom/model.bin\n")
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, existingContent, 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if path != "" {
		t.Errorf("WriteDefault() path = %q, want empty string for existing file", path)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if string(data) != string(existingContent) {
		t.Error("WriteDefault() should not overwrite existing config file")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
