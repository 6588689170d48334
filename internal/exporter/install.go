package exporter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"soundforge/internal/config"
	"soundforge/internal/model"
	"soundforge/internal/project"
)

// InstallOptions selects where a theme is installed.
type InstallOptions struct {
	// System installs under the system-wide sounds root instead of
	// the per-user one.
	System bool

	// Root overrides the computed sounds root when non-empty.
	Root string
}

// InstalledTheme describes one theme found under a sounds root.
type InstalledTheme struct {
	Name    string   `json:"name"`
	Comment string   `json:"comment,omitempty"`
	Dir     string   `json:"dir"`
	Events  []string `json:"events,omitempty"`
}

// Install exports the theme into `<sounds root>/<slug>` and returns
// the installed path.
func (e *Exporter) Install(ctx context.Context, t *project.Theme, opts InstallOptions, progress ProgressFunc) (string, error) {
	slug, err := project.Slug(t.Name())
	if err != nil {
		return "", err
	}

	root := opts.Root
	if root == "" {
		root = config.SoundsRoot(opts.System)
	}

	dest := filepath.Join(root, slug)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("failed to create theme dir: %w", err)
	}
	if err := e.Export(ctx, t, dest, progress); err != nil {
		return "", err
	}

	e.logger.Info("theme installed", "dir", dest)
	return dest, nil
}

// Uninstall removes the installed theme with the given name (or slug)
// from the sounds root and returns the removed path.
func Uninstall(root, name string) (string, error) {
	slug, err := project.Slug(name)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(root, slug)

	// The slug is plain alphanumerics, but never remove anything
	// that is not strictly inside the root.
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("refusing to remove %s: not inside %s", dir, root)
	}

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("theme not installed: %s", slug)
		}
		return "", err
	}

	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	return dir, nil
}

// Installed scans a sounds root and returns every directory with a
// readable theme index. A missing root is an empty listing, not an
// error.
func Installed(root string) ([]InstalledTheme, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sounds root: %w", err)
	}

	var themes []InstalledTheme
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())

		f, err := os.Open(filepath.Join(dir, "index.theme"))
		if err != nil {
			continue
		}
		idx, err := project.ReadIndexTheme(f)
		_ = f.Close()
		if err != nil {
			continue
		}

		themes = append(themes, InstalledTheme{
			Name:    idx.Name,
			Comment: idx.Comment,
			Dir:     dir,
			Events:  installedEvents(dir, idx.Directory),
		})
	}
	return themes, nil
}

// installedEvents lists the events backed by an audio file in the
// theme's profile directory.
func installedEvents(dir, profileDir string) []string {
	entries, err := os.ReadDir(filepath.Join(dir, profileDir))
	if err != nil {
		return nil
	}

	var events []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !model.IsAudioPath(name) {
			continue
		}
		events = append(events, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return events
}
