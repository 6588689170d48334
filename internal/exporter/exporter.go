// Package exporter assembles a saved theme project into an XDG sound
// theme tree and manages installed copies under a sounds root.
package exporter

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"soundforge/internal/ffmpeg"
	"soundforge/internal/project"
)

// ProfileCopy exports clips as they are, keeping each source encoding
// and extension.
const ProfileCopy = "copy"

// FileTranscoder converts one audio file into another encoding.
type FileTranscoder interface {
	File(ctx context.Context, in, out string, profile ffmpeg.Profile) error
}

// ProgressFunc is called after each staged event with the running
// count and the total.
type ProgressFunc func(event string, n, total int)

// Exporter writes theme trees. The zero value is not usable; use New.
type Exporter struct {
	transcoder FileTranscoder
	copyMode   bool
	profile    ffmpeg.Profile
	logger     *slog.Logger
}

// New creates an exporter for the named profile. The empty profile
// means copy. A transcoder is required for every profile except copy.
func New(transcoder FileTranscoder, profile string, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Exporter{transcoder: transcoder, logger: logger}
	if profile == "" || profile == ProfileCopy {
		e.copyMode = true
		return e, nil
	}

	p, ok := ffmpeg.ProfileByName(profile)
	if !ok {
		return nil, fmt.Errorf("unknown export profile %q (want %s, %s)",
			profile, ProfileCopy, strings.Join(ffmpeg.ProfileNames(), ", "))
	}
	if transcoder == nil {
		return nil, fmt.Errorf("profile %q needs a transcoder", profile)
	}
	e.profile = p
	return e, nil
}

// Export writes the theme as a sound theme tree into destDir, merging
// over whatever is already there. The theme must be saved first so the
// exported tree never diverges from the project file on disk.
func (e *Exporter) Export(ctx context.Context, t *project.Theme, destDir string, progress ProgressFunc) error {
	if t.Modified() {
		return fmt.Errorf("save the theme first: %w", project.ErrUnsavedChanges)
	}

	staging, err := os.MkdirTemp("", "soundforge-export-*")
	if err != nil {
		return fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	if err := e.stage(ctx, t, staging, progress); err != nil {
		return err
	}

	if err := mergeTree(staging, destDir); err != nil {
		return fmt.Errorf("failed to merge theme into %s: %w", destDir, err)
	}

	e.logger.Info("theme exported", "dest", destDir, "sounds", t.AssignedCount())
	return nil
}

// stage writes the index file and the stereo/ profile directory into
// the staging dir.
func (e *Exporter) stage(ctx context.Context, t *project.Theme, staging string, progress ProgressFunc) error {
	f, err := os.Create(filepath.Join(staging, "index.theme"))
	if err != nil {
		return fmt.Errorf("failed to write index.theme: %w", err)
	}
	if err := t.WriteIndexTheme(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write index.theme: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write index.theme: %w", err)
	}

	stereo := filepath.Join(staging, "stereo")
	if err := os.Mkdir(stereo, 0o755); err != nil {
		return fmt.Errorf("failed to create profile dir: %w", err)
	}

	assignments := t.Assignments()
	for i, a := range assignments {
		if err := ctx.Err(); err != nil {
			return err
		}

		var out string
		if e.copyMode {
			out = filepath.Join(stereo, a.Event+filepath.Ext(a.Path))
			if err := copyFile(a.Path, out); err != nil {
				return fmt.Errorf("failed to stage %s: %w", a.Event, err)
			}
		} else {
			out = filepath.Join(stereo, a.Event+e.profile.Ext)
			if err := e.transcoder.File(ctx, a.Path, out, e.profile); err != nil {
				return fmt.Errorf("failed to stage %s: %w", a.Event, err)
			}
		}
		e.logger.Debug("staged event", "event", a.Event, "file", filepath.Base(out))

		if progress != nil {
			progress(a.Event, i+1, len(assignments))
		}
	}
	return nil
}

// copyFile copies src over dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// mergeTree copies the staged tree over dst, creating directories as
// needed and overwriting files that already exist. Files present only
// in dst are left alone.
func mergeTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}
