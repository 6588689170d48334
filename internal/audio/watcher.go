package audio

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"
)

// fileStamp is the snapshot a watched path is compared against. Size
// is tracked alongside mtime to catch rewrites within one mtime
// granule.
type fileStamp struct {
	modTime time.Time
	size    int64
}

func stampOf(path string) (fileStamp, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, false
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}, true
}

// changed reports whether the file moved past its last stamp.
func (s fileStamp) changed(last fileStamp) bool {
	return s.modTime.After(last.modTime) || s.size != last.size
}

// Watcher polls previewed clip files and drops the player's cached
// buffer when one changes on disk, so a re-recorded or edited clip
// previews fresh.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger
	player *Player

	watchedPaths map[string]fileStamp
	pollInterval time.Duration

	stop    chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher feeding invalidations to player.
func NewWatcher(player *Player, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger:       logger,
		player:       player,
		watchedPaths: make(map[string]fileStamp),
		pollInterval: 2 * time.Second,
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// Watch adds a path to the watch list, recording its current stamp.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}

	stamp, _ := stampOf(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.watchedPaths[path] = stamp
}

// Unwatch removes a path from the watch list.
func (w *Watcher) Unwatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.watchedPaths, path)
}

// Start launches the poll loop. Repeat calls while running are no-ops.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	w.running = true
	w.stop = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.poll(ctx, w.stop, w.doneCh, w.pollInterval)

	w.logger.Debug("preview watcher started", "interval", w.pollInterval)
	return nil
}

// Stop halts polling and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stop, done := w.stop, w.doneCh
	w.mu.Unlock()

	close(stop)
	<-done
	w.logger.Debug("preview watcher stopped")
}

func (w *Watcher) poll(ctx context.Context, stop, done chan struct{}, every time.Duration) {
	defer close(done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// checkForChanges re-stamps every watched file and invalidates the
// player cache for those that moved.
func (w *Watcher) checkForChanges() {
	w.mu.RLock()
	snapshot := maps.Clone(w.watchedPaths)
	w.mu.RUnlock()

	for path, last := range snapshot {
		stamp, ok := stampOf(path)
		if !ok || !stamp.changed(last) {
			continue
		}

		w.logger.Debug("clip changed on disk, dropping cached buffer", "path", path)

		w.mu.Lock()
		w.watchedPaths[path] = stamp
		w.mu.Unlock()

		if w.player != nil {
			w.player.InvalidateCache(path)
		}
	}
}

// IsRunning reports whether the poll loop is live.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
