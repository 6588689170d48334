// Package project models a sound theme under construction: its metadata,
// its event-to-sound assignments, and the JSON project file they persist in.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"soundforge/internal/catalog"
)

// Default theme metadata, used until the user supplies their own.
const (
	DefaultName    = "Sound theme"
	DefaultComment = "This is a sound theme!"
)

// Sentinel errors callers branch on.
var (
	ErrNotATheme      = errors.New("this doesn't look like a sound theme")
	ErrUnknownEvent   = errors.New("unknown sound event")
	ErrUnsavedChanges = errors.New("theme has unsaved changes")
	ErrEmptySlug      = errors.New("theme name has no usable characters")
)

// Assignment pairs an event with its assigned source file.
type Assignment struct {
	Event string
	Path  string
}

// Theme is a sound theme being assembled.
type Theme struct {
	name     string
	comment  string
	sounds   map[string]string // event id -> absolute source path
	imported []string          // unique source paths, insertion order
	path     string            // backing project file, empty until saved or loaded
	modified bool
}

// New creates a theme with default metadata and no assignments.
func New() *Theme {
	return &Theme{
		name:    DefaultName,
		comment: DefaultComment,
		sounds:  make(map[string]string),
	}
}

// Name returns the theme name.
func (t *Theme) Name() string { return t.name }

// Comment returns the theme comment.
func (t *Theme) Comment() string { return t.comment }

// Path returns the backing project file path, empty when never saved.
func (t *Theme) Path() string { return t.path }

// Modified reports whether the theme has unsaved changes.
func (t *Theme) Modified() bool { return t.modified }

// SetName sets the theme name and marks the theme dirty.
func (t *Theme) SetName(name string) {
	t.name = name
	t.modified = true
}

// SetComment sets the theme comment and marks the theme dirty.
func (t *Theme) SetComment(comment string) {
	t.comment = comment
	t.modified = true
}

// Assign maps an event to a source audio file. The event must be in the
// catalog and the file must exist.
func (t *Theme) Assign(event, path string) error {
	if !catalog.Exists(event) {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("missing sound: %s", abs)
	}

	t.sounds[event] = abs
	t.rememberImport(abs)
	t.modified = true

	return nil
}

// Unassign clears an event's sound.
func (t *Theme) Unassign(event string) error {
	if !catalog.Exists(event) {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}

	delete(t.sounds, event)
	t.modified = true

	return nil
}

// Assigned returns the path assigned to event, if any.
func (t *Theme) Assigned(event string) (string, bool) {
	p, ok := t.sounds[event]
	return p, ok
}

// AssignedCount returns the number of events with a sound assigned.
func (t *Theme) AssignedCount() int {
	return len(t.sounds)
}

// Assignments returns the assigned events in catalog order.
func (t *Theme) Assignments() []Assignment {
	out := make([]Assignment, 0, len(t.sounds))
	for _, ev := range catalog.IDs() {
		if p, ok := t.sounds[ev]; ok {
			out = append(out, Assignment{Event: ev, Path: p})
		}
	}
	return out
}

// ImportedPaths returns every source path seen by this theme, unique, in
// insertion order. Feeds the picker and library import on project load.
func (t *Theme) ImportedPaths() []string {
	out := make([]string, len(t.imported))
	copy(out, t.imported)
	return out
}

func (t *Theme) rememberImport(path string) {
	for _, p := range t.imported {
		if p == path {
			return
		}
	}
	t.imported = append(t.imported, path)
}

// Slug reduces a theme name to its install directory name: alphanumerics
// only, lowercased. An empty result is an error rather than a theme
// installed into the sounds root itself.
func Slug(name string) (string, error) {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: %q", ErrEmptySlug, name)
	}
	return b.String(), nil
}
