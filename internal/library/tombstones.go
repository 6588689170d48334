package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// TombstoneFile persists the content hashes of removed clips so they
// stay gone across restarts and re-imports.
type TombstoneFile struct {
	path string
}

// tombstoneSet is the on-disk JSON shape.
type tombstoneSet struct {
	Removed []string `json:"removed"`
}

// NewTombstoneFile points at path without touching the filesystem.
func NewTombstoneFile(path string) *TombstoneFile {
	return &TombstoneFile{path: path}
}

// Load returns the stored hashes. A file that does not exist yet reads
// as empty.
func (t *TombstoneFile) Load() ([]string, error) {
	raw, err := os.ReadFile(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var set tombstoneSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("parse %s: %w", t.path, err)
	}
	return set.Removed, nil
}

// Save writes hashes out, creating parent directories as needed.
func (t *TombstoneFile) Save(hashes []string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return err
	}

	out, err := json.MarshalIndent(tombstoneSet{Removed: hashes}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.path, out, 0600)
}

// Append stores one more hash. Hashes already present are left alone.
func (t *TombstoneFile) Append(hash string) error {
	cur, err := t.Load()
	if err != nil {
		return err
	}

	if slices.Contains(cur, hash) {
		return nil
	}
	return t.Save(append(cur, hash))
}
