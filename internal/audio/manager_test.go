package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundforge/internal/config"
)

func TestNewManager(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Preview.Volume = 50
	cfg.Preview.MaxSeconds = 3

	m := NewManager(cfg, nil)

	assert.InDelta(t, 0.5, m.GetVolume(), 1e-9)

	m.player.mu.Lock()
	maxPlay := m.player.maxPlay
	m.player.mu.Unlock()
	assert.Equal(t, 3*time.Second, maxPlay)
}

func TestNewManager_NilConfig(t *testing.T) {
	m := NewManager(nil, nil)

	assert.Equal(t, 1.0, m.GetVolume())
}

func TestManager_UpdateConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Preview.Volume = 50
	m := NewManager(cfg, nil)

	next := config.DefaultConfig()
	next.Preview.Volume = 100
	m.UpdateConfig(next)

	assert.Equal(t, 1.0, m.GetVolume())
}

func TestManager_PreloadAll(t *testing.T) {
	m := NewManager(config.DefaultConfig(), nil)

	dir := t.TempDir()
	a := writeWAV(t, dir, "a.wav", 16)
	b := writeWAV(t, dir, "b.wav", 16)
	missing := filepath.Join(dir, "ghost.wav")

	m.PreloadAll([]string{a, b, missing})

	m.player.cacheMutex.RLock()
	size := len(m.player.cache)
	m.player.cacheMutex.RUnlock()
	assert.Equal(t, 2, size)
}

func TestManager_PreloadAll_SkipsBrokenClip(t *testing.T) {
	m := NewManager(config.DefaultConfig(), nil)

	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.wav")
	require.NoError(t, os.WriteFile(broken, []byte("not a wav"), 0o644))
	good := writeWAV(t, dir, "good.wav", 16)

	m.PreloadAll([]string{broken, good})

	m.player.cacheMutex.RLock()
	_, ok := m.player.cache[good]
	m.player.cacheMutex.RUnlock()
	assert.True(t, ok)
}

func TestManager_StartClose(t *testing.T) {
	m := NewManager(config.DefaultConfig(), nil)

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.watcher.IsRunning())

	m.Close()
	assert.False(t, m.watcher.IsRunning())
	assert.False(t, m.Playing())
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, "clip.wav"), expandPath("~/clip.wav"))
	assert.Equal(t, "/tmp/clip.wav", expandPath("/tmp/clip.wav"))
	assert.Equal(t, "clip.wav", expandPath("clip.wav"))
}
