package library

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher re-hydrates the store when another process writes the
// library file, so edits show up without a restart.
type FileWatcher struct {
	store *Store
	path  string

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	done    chan struct{}
	started bool
}

// NewFileWatcher prepares a watcher for the store's persistence file.
func NewFileWatcher(store *Store, path string) (*FileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FileWatcher{
		store: store,
		path:  path,
		fsw:   fsw,
		done:  make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched rather than
// the file itself, which survives tools that replace the file on save.
// Repeat calls are no-ops.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.started {
		return nil
	}
	if err := fw.fsw.Add(filepath.Dir(fw.path)); err != nil {
		return err
	}
	fw.started = true

	go fw.run()
	return nil
}

func (fw *FileWatcher) run() {
	want := filepath.Base(fw.path)

	for {
		select {
		case ev, ok := <-fw.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != want {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			slog.Debug("library file changed on disk", "file", fw.path)
			if err := fw.store.Hydrate(); err != nil {
				slog.Warn("rehydrate after external write", "error", err)
			}

		case err, ok := <-fw.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("library watch", "error", err)

		case <-fw.done:
			return
		}
	}
}

// Stop ends the watch. Safe to call more than once.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.started {
		return nil
	}
	fw.started = false
	close(fw.done)
	return fw.fsw.Close()
}
