package audio

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"soundforge/internal/config"
)

// Manager wires the player and watcher into a preview engine driven by
// the preview section of the config.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher
	config  *config.Config
}

// NewManager creates a new preview manager.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(logger)

	m := &Manager{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
		config:  cfg,
	}

	m.applyConfig()

	return m
}

// applyConfig pushes the preview settings into the player.
func (m *Manager) applyConfig() {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		return
	}

	// Config uses 0-100, player uses 0.0-1.0
	m.player.SetVolume(float64(cfg.Preview.Volume) / 100.0)

	if cfg.Preview.MaxSeconds > 0 {
		m.player.SetMaxDuration(time.Duration(cfg.Preview.MaxSeconds) * time.Second)
	} else {
		m.player.SetMaxDuration(0)
	}
}

// SetPipeDecoder installs the fallback decoder on the underlying
// player.
func (m *Manager) SetPipeDecoder(dec PipeDecoder) {
	m.player.SetPipeDecoder(dec)
}

// Start starts the file watcher that keeps the preview cache honest.
func (m *Manager) Start(ctx context.Context) error {
	return m.watcher.Start(ctx)
}

// Preview plays a clip and returns a channel that closes when playback
// ends. The path is also watched, so edits on disk invalidate the
// cached decode.
func (m *Manager) Preview(path string) (<-chan struct{}, error) {
	expanded := expandPath(path)

	m.watcher.Watch(expanded)
	return m.player.Play(expanded)
}

// Stop halts the current preview, if any.
func (m *Manager) Stop() {
	m.player.Stop()
}

// Playing reports whether a preview is in flight.
func (m *Manager) Playing() bool {
	return m.player.Playing()
}

// PreloadAll decodes the given clips into the cache and watches them.
// Load failures are logged and skipped so one broken clip does not
// block the rest.
func (m *Manager) PreloadAll(paths []string) {
	for _, path := range paths {
		expanded := expandPath(path)

		if _, err := os.Stat(expanded); err != nil {
			m.logger.Warn("sound file not found", "path", expanded)
			continue
		}
		if err := m.player.Preload(expanded); err != nil {
			m.logger.Warn("failed to preload sound", "path", expanded, "error", err)
			continue
		}
		m.watcher.Watch(expanded)
	}
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(volume float64) {
	m.player.SetVolume(volume)
}

// GetVolume returns the current volume.
func (m *Manager) GetVolume() float64 {
	return m.player.GetVolume()
}

// UpdateConfig swaps the configuration and re-applies the preview
// settings.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	m.applyConfig()
	m.logger.Debug("preview manager config updated")
}

// Close shuts down the preview manager.
func (m *Manager) Close() {
	m.watcher.Stop()
	m.player.Close()
	m.logger.Debug("preview manager stopped")
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
