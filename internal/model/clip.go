// Package model defines the core data structures for soundforge.
package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"
)

// AllowedExtensions lists the audio container extensions the tool accepts
// for import, matching the formats the playback engine and ffmpeg handle.
var AllowedExtensions = []string{".aac", ".flac", ".m4a", ".mp3", ".oga", ".ogg", ".wav"}

// IsAudioPath reports whether the path carries an accepted audio extension.
func IsAudioPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range AllowedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Clip represents one audio file in the library. Clips are what theme
// projects assign to sound events.
type Clip struct {
	ID          string  `json:"id"`
	Path        string  `json:"path"`
	Title       string  `json:"title"`
	Format      string  `json:"format"`
	Duration    float64 `json:"duration_seconds,omitempty"`
	SampleRate  int     `json:"sample_rate,omitempty"`
	Channels    int     `json:"channels,omitempty"`
	Codec       string  `json:"codec,omitempty"`
	SizeBytes   int64   `json:"size_bytes,omitempty"`
	ContentHash string  `json:"content_hash,omitempty"`
	ImportedAt  int64   `json:"imported_at"`
	Recorded    bool    `json:"recorded,omitempty"`
}

// Validation errors.
var (
	ErrEmptyID      = errors.New("clip id cannot be empty")
	ErrEmptyPath    = errors.New("clip path cannot be empty")
	ErrRelativePath = errors.New("clip path must be absolute")
	ErrEmptyHash    = errors.New("clip content hash cannot be empty")
)

// NewClip creates a Clip for the given file with a generated ULID. The path
// is made absolute and the title defaults to the basename without extension.
// Probe metadata is filled in later by the prober.
func NewClip(path string) (*Clip, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %q: %w", path, err)
	}

	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	c := &Clip{
		ID:         id.String(),
		Path:       abs,
		Title:      TitleFromPath(abs),
		Format:     FormatFromPath(abs),
		ImportedAt: time.Now().Unix(),
	}
	if info, err := os.Stat(abs); err == nil {
		c.SizeBytes = info.Size()
	}
	return c, nil
}

// TitleFromPath derives a display title from a file path.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FormatFromPath derives the container format from a file extension.
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Validate checks that the clip has all required fields.
func (c *Clip) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	if c.Path == "" {
		return ErrEmptyPath
	}
	if !filepath.IsAbs(c.Path) {
		return ErrRelativePath
	}
	if c.ContentHash == "" {
		return ErrEmptyHash
	}
	return nil
}

// ComputeContentHash returns the SHA256 hex digest of the file at path.
// Used for deduplication across imports.
func ComputeContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// EnsureContentHash computes and sets the ContentHash if not already set.
func (c *Clip) EnsureContentHash() error {
	if c.ContentHash != "" {
		return nil
	}
	hash, err := ComputeContentHash(c.Path)
	if err != nil {
		return err
	}
	c.ContentHash = hash
	return nil
}

// RelativeTime returns a human-readable relative import time.
// Examples: "just now", "5m ago", "2h ago", "1d ago".
func (c *Clip) RelativeTime() string {
	now := time.Now().Unix()
	diff := now - c.ImportedAt

	if diff < 0 {
		return "in the future"
	}
	if diff < 60 {
		return "just now"
	}
	if diff < 3600 {
		return fmt.Sprintf("%dm ago", diff/60)
	}
	if diff < 86400 {
		return fmt.Sprintf("%dh ago", diff/3600)
	}
	return fmt.Sprintf("%dd ago", diff/86400)
}

// DisplaySize returns the file size in human units, or "-" when unknown.
func (c *Clip) DisplaySize() string {
	if c.SizeBytes <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(c.SizeBytes))
}

// DisplayDuration returns the duration as m:ss.t, or "-" when unknown.
func (c *Clip) DisplayDuration() string {
	if c.Duration <= 0 {
		return "-"
	}
	mins := int(c.Duration) / 60
	secs := c.Duration - float64(mins*60)
	if mins > 0 {
		return fmt.Sprintf("%d:%04.1f", mins, secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}

// ImportedAtTime returns the import timestamp as a time.Time.
func (c *Clip) ImportedAtTime() time.Time {
	return time.Unix(c.ImportedAt, 0)
}

// Clone creates a copy of the clip.
func (c *Clip) Clone() *Clip {
	clone := *c
	return &clone
}
