package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chaz8081/gostt-worker/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Audio      AudioConfig      `yaml:"audio"`
	Dictate    DictateConfig    `yaml:"dictate"`
	LogLevel   string           `yaml:"log_level"`
}

// TranscribeConfig holds model and inference settings.
type TranscribeConfig struct {
	Model        string `yaml:"model"`      // catalog name, e.g. "small"
	Device       string `yaml:"device"`     // "cpu" or "cuda"
	ModelPath    string `yaml:"model_path"` // overrides models_dir + model when set
	ModelsDir    string `yaml:"models_dir"`
	Language     string `yaml:"language"` // "auto" or an ISO 639-1 code
	Threads      uint   `yaml:"threads"`  // 0 lets whisper.cpp decide
	AutoDownload bool   `yaml:"auto_download"`
}

// AudioConfig holds microphone capture settings.
type AudioConfig struct {
	SampleRate uint32 `yaml:"sample_rate"`
	Channels   uint32 `yaml:"channels"`
	DeviceName string `yaml:"device_name"` // empty selects the system default
}

// DictateConfig holds push-to-talk settings for whisperctl dictate.
type DictateConfig struct {
	Keys   []string `yaml:"keys"`
	Mode   string   `yaml:"mode"`   // "hold" or "toggle"
	Inject string   `yaml:"inject"` // "none", "type" or "paste"
}

// Supported inference devices.
const (
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gostt-worker")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelsDir returns the directory ggml models are downloaded into.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(home, ".local", "share", "gostt-worker", "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Transcribe: TranscribeConfig{
			Model:     "small",
			Device:    DeviceCPU,
			ModelsDir: DefaultModelsDir(),
			Language:  "auto",
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
		},
		Dictate: DictateConfig{
			Keys:   []string{"ctrl", "shift", "r"},
			Mode:   "hold",
			Inject: "none",
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Transcribe.ModelPath = expandTilde(cfg.Transcribe.ModelPath)
	cfg.Transcribe.ModelsDir = expandTilde(cfg.Transcribe.ModelsDir)

	return cfg, nil
}

// LoadOrDefault loads path when given, otherwise the default config file if
// it exists, otherwise built-in defaults. The returned string names the file
// that was read, or is empty when defaults were used.
func LoadOrDefault(path string) (*Config, string, error) {
	if path != "" {
		cfg, err := Load(path)
		return cfg, path, err
	}

	defaultPath := DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := Load(defaultPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, defaultPath, nil
	}

	return Default(), "", nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Transcribe.ModelPath == "" {
		if _, ok := models.Lookup(c.Transcribe.Model); !ok {
			return fmt.Errorf("transcribe.model must be one of %s, got %q",
				strings.Join(models.Names(), ", "), c.Transcribe.Model)
		}
		if c.Transcribe.ModelsDir == "" {
			return fmt.Errorf("transcribe.models_dir must not be empty")
		}
	}

	switch c.Transcribe.Device {
	case DeviceCPU, DeviceCUDA:
	default:
		return fmt.Errorf("transcribe.device must be \"cpu\" or \"cuda\", got %q", c.Transcribe.Device)
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}

	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}

	if len(c.Dictate.Keys) == 0 {
		return fmt.Errorf("dictate.keys must not be empty")
	}

	switch c.Dictate.Mode {
	case "hold", "toggle":
	default:
		return fmt.Errorf("dictate.mode must be \"hold\" or \"toggle\", got %q", c.Dictate.Mode)
	}

	switch c.Dictate.Inject {
	case "none", "type", "paste":
	default:
		return fmt.Errorf("dictate.inject must be none, type, or paste, got %q", c.Dictate.Inject)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ResolvedModelPath returns the model file to load: model_path when set,
// otherwise the catalog file for model inside models_dir.
func (c *Config) ResolvedModelPath() (string, error) {
	if c.Transcribe.ModelPath != "" {
		return c.Transcribe.ModelPath, nil
	}
	return models.Path(c.Transcribe.ModelsDir, c.Transcribe.Model)
}

// ParseLogLevel maps a log_level string to a slog.Level. Unknown values
// fall back to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultConfigHeader = `# gostt-worker configuration
#
# transcribe.model: tiny, base, small, medium, large (or the .en variants)
# transcribe.device: cpu or cuda
# transcribe.model_path: explicit ggml file, overrides model + models_dir
# dictate.mode: hold or toggle; dictate.inject: none, type, paste
# log_level: debug, info, warn, error
`

// WriteDefault writes the default config to DefaultConfigPath. It returns
// ("", nil) without touching anything if the file already exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	content := append([]byte(defaultConfigHeader+"\n"), data...)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
