// Package library provides the persistent store of imported audio clips.
package library

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"soundforge/internal/model"
)

// ChangeType indicates the type of store change.
type ChangeType int

const (
	// ChangeTypeAdd indicates clips were added.
	ChangeTypeAdd ChangeType = iota
	// ChangeTypeRemove indicates a clip was removed.
	ChangeTypeRemove
	// ChangeTypeUpdate indicates a clip was modified.
	ChangeTypeUpdate
	// ChangeTypeClear indicates all clips were cleared.
	ChangeTypeClear
)

// ChangeEvent signals store content changes.
type ChangeEvent struct {
	Type  ChangeType
	Count int
}

// Store errors.
var (
	ErrStoreClosed = storeError("library is closed")
	ErrNotFound    = storeError("clip not found")
	ErrAmbiguous   = storeError("clip reference is ambiguous")
)

type storeError string

func (e storeError) Error() string { return string(e) }

// Store holds the clip library in memory, mirrored to persistence when
// one is attached. All operations are safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	clips  []model.Clip
	byID   map[string]int
	byHash map[string]int
	// Content hashes of removed clips, so the same bytes stay out
	tombstones map[string]bool

	persist Persistence

	subscribers []chan ChangeEvent
	closed      bool
}

// NewStore creates an empty store. A nil persistence keeps the library
// purely in memory.
func NewStore(persistence Persistence) *Store {
	return &Store{
		byID:       make(map[string]int),
		byHash:     make(map[string]int),
		tombstones: make(map[string]bool),
		persist:    persistence,
	}
}

// admissible reports whether c may enter the store. seen carries
// content hashes already taken earlier in the same batch.
func (s *Store) admissible(c model.Clip, seen map[string]bool) bool {
	if c.ContentHash != "" {
		if s.tombstones[c.ContentHash] || seen[c.ContentHash] {
			return false
		}
		if _, dup := s.byHash[c.ContentHash]; dup {
			return false
		}
	}
	_, dup := s.byID[c.ID]
	return !dup
}

// insert appends c and indexes it. Caller holds the write lock.
func (s *Store) insert(c model.Clip) {
	idx := len(s.clips)
	s.clips = append(s.clips, c)
	s.byID[c.ID] = idx
	if c.ContentHash != "" {
		s.byHash[c.ContentHash] = idx
	}
}

// flush rewrites the whole persistence file from memory. Caller holds
// the write lock.
func (s *Store) flush() error {
	if s.persist == nil {
		return nil
	}
	return s.persist.Rewrite(s.clips)
}

// Add puts one clip into the library. Content that is already present
// or was removed earlier is skipped; the bool reports whether the clip
// actually went in.
func (s *Store) Add(c model.Clip) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrStoreClosed
	}
	if err := c.EnsureContentHash(); err != nil {
		return false, err
	}
	if !s.admissible(c, nil) {
		return false, nil
	}

	s.insert(c)
	if s.persist != nil {
		if err := s.persist.Append(c); err != nil {
			return false, err
		}
	}

	s.notify(ChangeEvent{Type: ChangeTypeAdd, Count: 1})
	return true, nil
}

// AddBatch adds multiple clips with one persistence write, returning
// how many survived deduplication.
func (s *Store) AddBatch(cs []model.Clip) (int, error) {
	if len(cs) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	seen := make(map[string]bool)
	var toAdd []model.Clip
	for i := range cs {
		if err := cs[i].EnsureContentHash(); err != nil {
			return 0, err
		}
		if !s.admissible(cs[i], seen) {
			continue
		}
		seen[cs[i].ContentHash] = true
		toAdd = append(toAdd, cs[i])
	}
	if len(toAdd) == 0 {
		return 0, nil
	}

	for _, c := range toAdd {
		s.insert(c)
	}
	if s.persist != nil {
		if err := s.persist.AppendBatch(toAdd); err != nil {
			return 0, err
		}
	}

	s.notify(ChangeEvent{Type: ChangeTypeAdd, Count: len(toAdd)})
	return len(toAdd), nil
}

// All returns all clips sorted by import time, newest first.
func (s *Store) All() []model.Clip {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Clip, len(s.clips))
	copy(result, s.clips)

	sort.Slice(result, func(i, j int) bool {
		if result[i].ImportedAt != result[j].ImportedAt {
			return result[i].ImportedAt > result[j].ImportedAt
		}
		return result[i].ID > result[j].ID
	})

	return result
}

// Get returns a clip by its ULID.
func (s *Store) Get(id string) *model.Clip {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx, ok := s.byID[id]; ok {
		c := s.clips[idx]
		return &c
	}
	return nil
}

// GetByPath returns the clip backed by the given absolute path.
func (s *Store) GetByPath(path string) *model.Clip {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.clips {
		if s.clips[i].Path == path {
			c := s.clips[i]
			return &c
		}
	}
	return nil
}

// Lookup resolves user input to a clip: exact ULID first, then an
// unambiguous ULID prefix, then an exact path, then an exact title.
func (s *Store) Lookup(input string) (*model.Clip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if input == "" {
		return nil, ErrNotFound
	}

	if idx, ok := s.byID[input]; ok {
		c := s.clips[idx]
		return &c, nil
	}

	// Unambiguous ULID prefix
	upper := strings.ToUpper(input)
	var prefixMatch *model.Clip
	for i := range s.clips {
		if strings.HasPrefix(s.clips[i].ID, upper) {
			if prefixMatch != nil {
				return nil, ErrAmbiguous
			}
			c := s.clips[i]
			prefixMatch = &c
		}
	}
	if prefixMatch != nil {
		return prefixMatch, nil
	}

	// Path, then title
	for i := range s.clips {
		if s.clips[i].Path == input {
			c := s.clips[i]
			return &c, nil
		}
	}
	for i := range s.clips {
		if s.clips[i].Title == input {
			c := s.clips[i]
			return &c, nil
		}
	}

	return nil, ErrNotFound
}

// Remove deletes a clip by ULID and tombstones its content hash so a
// later import of the same bytes stays out.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	idx, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}

	if hash := s.clips[idx].ContentHash; hash != "" {
		s.tombstones[hash] = true
	}
	s.clips = slices.Delete(s.clips, idx, idx+1)
	s.reindex()

	if err := s.flush(); err != nil {
		return err
	}

	s.notify(ChangeEvent{Type: ChangeTypeRemove, Count: 1})
	return nil
}

// mutate locates a clip by ULID, applies fn, and rewrites persistence.
func (s *Store) mutate(id string, fn func(*model.Clip)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	idx, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	fn(&s.clips[idx])

	if err := s.flush(); err != nil {
		return err
	}

	s.notify(ChangeEvent{Type: ChangeTypeUpdate, Count: 1})
	return nil
}

// Rename changes a clip's display title.
func (s *Store) Rename(id, title string) error {
	return s.mutate(id, func(c *model.Clip) { c.Title = title })
}

// Update replaces a stored clip wholesale, used after re-probing.
func (s *Store) Update(c model.Clip) error {
	return s.mutate(c.ID, func(dst *model.Clip) { *dst = c })
}

// Count returns the total number of clips.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clips)
}

// AddTombstone adds a content hash to the tombstone set.
func (s *Store) AddTombstone(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tombstones[hash] = true
}

// Tombstones returns all tombstone hashes.
func (s *Store) Tombstones() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := make([]string, 0, len(s.tombstones))
	for h := range s.tombstones {
		hashes = append(hashes, h)
	}
	return hashes
}

// LoadTombstones adds tombstones from a slice of hashes.
func (s *Store) LoadTombstones(hashes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range hashes {
		s.tombstones[h] = true
	}
}

// Subscribe returns a channel that receives change events.
func (s *Store) Subscribe() <-chan ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ChangeEvent, 10)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe drops a subscription and closes its channel.
func (s *Store) Unsubscribe(ch <-chan ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			close(sub)
			s.subscribers = slices.Delete(s.subscribers, i, i+1)
			return
		}
	}
}

// Close releases resources and closes all subscriber channels.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil

	if s.persist != nil {
		return s.persist.Close()
	}
	return nil
}

// Hydrate loads clips from persistence into the store. Tombstoned
// content stays out; records without a stored hash predate hashing and
// are admitted by ID alone.
func (s *Store) Hydrate() error {
	if s.persist == nil {
		return nil
	}

	clips, err := s.persist.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, c := range clips {
		if !s.admissible(c, nil) {
			continue
		}
		s.insert(c)
		added++
	}

	if added > 0 {
		s.notify(ChangeEvent{Type: ChangeTypeAdd, Count: added})
	}
	return nil
}

// Clear removes all clips from the store.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	count := len(s.clips)
	s.clips = nil
	s.byID = make(map[string]int)
	s.byHash = make(map[string]int)

	if s.persist != nil {
		if err := s.persist.Clear(); err != nil {
			return err
		}
	}

	s.notify(ChangeEvent{Type: ChangeTypeClear, Count: count})
	return nil
}

// reindex rebuilds both indices after a removal. Caller holds the
// write lock.
func (s *Store) reindex() {
	s.byID = make(map[string]int, len(s.clips))
	s.byHash = make(map[string]int, len(s.clips))
	for i, c := range s.clips {
		s.byID[c.ID] = i
		if c.ContentHash != "" {
			s.byHash[c.ContentHash] = i
		}
	}
}

// notify fans an event out to subscribers without blocking.
func (s *Store) notify(event ChangeEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
