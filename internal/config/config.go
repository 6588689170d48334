// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultExportProfile = "copy"
	DefaultPreviewVolume = 80
	DefaultRecordBackend = "auto"
	DefaultRecordSeconds = 10
	DefaultFfmpegBinary  = "ffmpeg"
	DefaultProbeBinary   = "ffprobe"
	DefaultFfmpegTimeout = 30
)

// SystemSoundsDir is where system-wide theme installs land.
const SystemSoundsDir = "/usr/local/share/sounds"

// Config represents the soundforge configuration.
type Config struct {
	Export  ExportConfig  `toml:"export"`
	Preview PreviewConfig `toml:"preview"`
	Record  RecordConfig  `toml:"record"`
	Ffmpeg  FfmpegConfig  `toml:"ffmpeg"`
	Notify  NotifyConfig  `toml:"notify"`
	TUI     TUIConfig     `toml:"tui"`
}

// ExportConfig holds theme export options.
type ExportConfig struct {
	Profile string `toml:"profile"` // copy, ogg, wav, flac
}

// PreviewConfig holds playback options.
type PreviewConfig struct {
	Volume     int `toml:"volume"`      // 0-100
	MaxSeconds int `toml:"max_seconds"` // 0 = play full clip
}

// RecordConfig holds capture options.
type RecordConfig struct {
	Backend    string `toml:"backend"`     // auto, pulse, alsa
	MaxSeconds int    `toml:"max_seconds"` // Hard stop for recordings
}

// FfmpegConfig holds external tool settings.
type FfmpegConfig struct {
	Binary         string `toml:"binary"`
	ProbeBinary    string `toml:"probe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// NotifyConfig holds desktop notification settings.
type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

// TUIConfig holds TUI-specific settings.
type TUIConfig struct {
	ShowCategories bool `toml:"show_categories"`
	ConfirmQuit    bool `toml:"confirm_quit"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Export: ExportConfig{
			Profile: DefaultExportProfile,
		},
		Preview: PreviewConfig{
			Volume:     DefaultPreviewVolume,
			MaxSeconds: 0,
		},
		Record: RecordConfig{
			Backend:    DefaultRecordBackend,
			MaxSeconds: DefaultRecordSeconds,
		},
		Ffmpeg: FfmpegConfig{
			Binary:         DefaultFfmpegBinary,
			ProbeBinary:    DefaultProbeBinary,
			TimeoutSeconds: DefaultFfmpegTimeout,
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
		TUI: TUIConfig{
			ShowCategories: true,
			ConfirmQuit:    true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "soundforge", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "soundforge")
}

// LibraryPath returns the path to the clip library JSONL file.
func LibraryPath() string {
	return filepath.Join(DataPath(), "library.jsonl")
}

// TombstonePath returns the path to the tombstones file.
func TombstonePath() string {
	return filepath.Join(DataPath(), "tombstones.json")
}

// RecordingsPath returns the directory where new recordings are written.
func RecordingsPath() string {
	return filepath.Join(DataPath(), "recordings")
}

// SoundsDir returns the per-user XDG sounds directory themes install into.
func SoundsDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "sounds")
}

// SoundsRoot returns the install root: the per-user sounds directory, or the
// system-wide one when system is true.
func SoundsRoot(system bool) string {
	if system {
		return SystemSoundsDir
	}
	return SoundsDir()
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Check if file exists
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// No config file, use defaults
			return cfg, nil
		}
		return nil, err
	}

	// Parse TOML
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return errors.New("unable to determine data directory")
	}
	return os.MkdirAll(path, 0755)
}

// EnsureRecordingsDir creates the recordings directory if it doesn't exist.
func EnsureRecordingsDir() error {
	path := RecordingsPath()
	if path == "" {
		return errors.New("unable to determine recordings directory")
	}
	return os.MkdirAll(path, 0755)
}
