package library

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"soundforge/internal/model"
)

// SchemaVersion is the current persistence schema version.
const SchemaVersion = 1

// maxLineLen caps a single JSONL record on read.
const maxLineLen = 1 << 20

// Persistence defines the interface for clip library storage.
type Persistence interface {
	// Load reads all clips from storage.
	Load() ([]model.Clip, error)

	// Append adds a clip to storage.
	Append(c model.Clip) error

	// AppendBatch adds multiple clips efficiently.
	AppendBatch(cs []model.Clip) error

	// Rewrite replaces the entire storage file (used after remove/rename).
	Rewrite(cs []model.Clip) error

	// Clear removes all stored clips.
	Clear() error

	// Close releases file handles and resources.
	Close() error
}

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	SoundforgeSchemaVersion int   `json:"soundforge_schema_version"`
	CreatedAt               int64 `json:"created_at"`
}

// ErrPersistenceClosed is returned when operations are attempted on a
// closed persistence.
var ErrPersistenceClosed = errors.New("persistence is closed")

// JSONLPersistence stores clips as one JSON record per line, with a
// schema header on the first line. Appends go straight to the open
// handle; removals rewrite the whole file.
type JSONLPersistence struct {
	mu     sync.RWMutex
	path   string
	f      *os.File
	closed bool
}

// NewJSONLPersistence opens the library file at path, creating it (and
// its parent directories) with a schema header when absent.
func NewJSONLPersistence(path string) (*JSONLPersistence, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	p := &JSONLPersistence{path: path, f: f}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := p.writeHeader(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return p, nil
}

// writeLine marshals v and appends it as one JSONL record.
func (p *JSONLPersistence) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = p.f.Write(append(data, '\n'))
	return err
}

func (p *JSONLPersistence) writeHeader() error {
	return p.writeLine(schemaHeader{
		SoundforgeSchemaVersion: SchemaVersion,
		CreatedAt:               time.Now().Unix(),
	})
}

// readClips scans JSONL records from r. Header lines are verified
// against SchemaVersion when strict is set and skipped otherwise.
// Blank and undecodable lines are dropped.
func readClips(r io.Reader, strict bool) ([]model.Clip, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineLen)

	var clips []model.Clip
	for sc.Scan() {
		line := sc.Bytes()

		var hdr schemaHeader
		if json.Unmarshal(line, &hdr) == nil && hdr.SoundforgeSchemaVersion > 0 {
			if strict && hdr.SoundforgeSchemaVersion > SchemaVersion {
				return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
					hdr.SoundforgeSchemaVersion, SchemaVersion)
			}
			continue
		}

		var c model.Clip
		if json.Unmarshal(line, &c) == nil && c.ID != "" {
			clips = append(clips, c)
		}
	}
	if err := sc.Err(); err != nil {
		return clips, fmt.Errorf("read library: %w", err)
	}
	return clips, nil
}

// Load reads all clips from storage, oldest first.
func (p *JSONLPersistence) Load() ([]model.Clip, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.f == nil {
		return nil, ErrPersistenceClosed
	}

	if _, err := p.f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", p.path, err)
	}

	clips, err := readClips(p.f, true)
	if err != nil {
		return clips, err
	}

	// Back to the end so later appends land after existing records
	if _, err := p.f.Seek(0, io.SeekEnd); err != nil {
		return clips, err
	}
	return clips, nil
}

// Append adds a clip to storage.
func (p *JSONLPersistence) Append(c model.Clip) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.f == nil {
		return ErrPersistenceClosed
	}

	if err := p.writeLine(c); err != nil {
		return err
	}
	return p.f.Sync()
}

// AppendBatch adds multiple clips with a single sync.
func (p *JSONLPersistence) AppendBatch(cs []model.Clip) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.f == nil {
		return ErrPersistenceClosed
	}

	for _, c := range cs {
		if err := p.writeLine(c); err != nil {
			return err
		}
	}
	return p.f.Sync()
}

// replaceFile swaps the backing file for a freshly written one holding
// cs. The old file sticks around as .bak until the rewrite lands.
func (p *JSONLPersistence) replaceFile(cs []model.Clip) error {
	if p.f != nil {
		if err := p.f.Close(); err != nil {
			return err
		}
		p.f = nil
	}

	bak := p.path + ".bak"
	if err := os.Rename(p.path, bak); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("back up %s: %w", p.path, err)
	}

	f, err := os.OpenFile(p.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		os.Rename(bak, p.path)
		return fmt.Errorf("recreate %s: %w", p.path, err)
	}
	p.f = f

	if err := p.writeHeader(); err != nil {
		return err
	}
	for _, c := range cs {
		if err := p.writeLine(c); err != nil {
			return err
		}
	}
	if err := p.f.Sync(); err != nil {
		return err
	}

	os.Remove(bak)
	return nil
}

// Rewrite replaces the entire storage file (used after remove/rename).
func (p *JSONLPersistence) Rewrite(cs []model.Clip) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPersistenceClosed
	}
	return p.replaceFile(cs)
}

// Clear removes all stored clips, leaving a fresh header-only file.
func (p *JSONLPersistence) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPersistenceClosed
	}
	return p.replaceFile(nil)
}

// Close releases file handles and resources.
func (p *JSONLPersistence) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.f != nil {
		err := p.f.Close()
		p.f = nil
		return err
	}
	return nil
}

// RecoverFromCorruption rebuilds a damaged library file, keeping
// whatever records still decode. The damaged file is set aside with a
// .corrupted timestamp suffix.
func RecoverFromCorruption(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	// A scan error just caps what gets recovered
	valid, _ := readClips(f, false)
	f.Close()

	backup := path + ".corrupted." + time.Now().Format("20060102-150405")
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("set aside corrupted file: %w", err)
	}

	p, err := NewJSONLPersistence(path)
	if err != nil {
		return err
	}
	defer p.Close()

	return p.AppendBatch(valid)
}
