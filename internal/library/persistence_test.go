package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundforge/internal/model"
)

func TestNewJSONLPersistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p.Close()

	// File should exist
	_, err = os.Stat(path)
	require.NoError(t, err)

	// File should have header
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "soundforge_schema_version")
}

func TestNewJSONLPersistence_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "nested", "library.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p.Close()

	// Directory should exist
	_, err = os.Stat(filepath.Dir(path))
	require.NoError(t, err)
}

func TestJSONLPersistence_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	// Append clips
	c1 := persistTestClip("persist1")
	c2 := persistTestClip("persist2")

	err = p.Append(c1)
	require.NoError(t, err)

	err = p.Append(c2)
	require.NoError(t, err)

	// Load and verify
	clips, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, clips, 2)
	assert.Equal(t, "persist1", clips[0].ID)
	assert.Equal(t, "persist2", clips[1].ID)

	p.Close()
}

func TestJSONLPersistence_AppendBatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	cs := []model.Clip{
		persistTestClip("batch1"),
		persistTestClip("batch2"),
		persistTestClip("batch3"),
	}

	err = p.AppendBatch(cs)
	require.NoError(t, err)

	clips, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, clips, 3)

	p.Close()
}

func TestJSONLPersistence_Rewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	// Add initial clips
	p.Append(persistTestClip("old1"))
	p.Append(persistTestClip("old2"))
	p.Append(persistTestClip("old3"))

	// Rewrite with new set
	newCs := []model.Clip{
		persistTestClip("new1"),
		persistTestClip("new2"),
	}

	err = p.Rewrite(newCs)
	require.NoError(t, err)

	// Verify
	clips, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, clips, 2)
	assert.Equal(t, "new1", clips[0].ID)
	assert.Equal(t, "new2", clips[1].ID)

	// Backup should be removed
	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err))

	p.Close()
}

func TestJSONLPersistence_Clear(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	p.Append(persistTestClip("clear1"))
	p.Append(persistTestClip("clear2"))

	err = p.Clear()
	require.NoError(t, err)

	clips, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, clips, 0)

	// File should still have header
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "soundforge_schema_version")

	p.Close()
}

func TestJSONLPersistence_LoadWithReopenedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	// Create and write
	p1, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	p1.Append(persistTestClip("reopen1"))
	p1.Append(persistTestClip("reopen2"))
	p1.Close()

	// Reopen and load
	p2, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p2.Close()

	clips, err := p2.Load()
	require.NoError(t, err)
	assert.Len(t, clips, 2)
}

func TestJSONLPersistence_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	p.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)

	// Should be 0600
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestJSONLPersistence_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	// Write file with malformed lines
	content := `{"soundforge_schema_version":1,"created_at":1703577600}
{"id":"valid1","path":"/home/user/a.wav","title":"A","format":".wav","imported_at":1703577600}
{invalid json}
{"id":"valid2","path":"/home/user/b.wav","title":"B","format":".wav","imported_at":1703577601}
`
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p.Close()

	clips, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, clips, 2)
}

func TestJSONLPersistence_SchemaVersionCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	// Write file with future schema version
	content := `{"soundforge_schema_version":999,"created_at":1703577600}
{"id":"test1","path":"/home/user/a.wav","title":"A","format":".wav","imported_at":1703577600}
`
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema version")
}

func TestStoreWithPersistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	// Create store with persistence
	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	s := NewStore(p)

	// Add clips (real files so content hashing works)
	s.Add(testClip(t, "persist1"))
	s.Add(testClip(t, "persist2"))

	s.Close()

	// Create new store and hydrate
	p2, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	s2 := NewStore(p2)
	err = s2.Hydrate()
	require.NoError(t, err)

	assert.Equal(t, 2, s2.Count())

	s2.Close()
}

func TestHydrate_HonorsTombstones(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	s := NewStore(p)
	c := testClip(t, "ghost1")
	s.Add(c)

	hash := s.Get("ghost1").ContentHash
	require.NotEmpty(t, hash)
	s.Close()

	// Hydrating with the hash tombstoned skips the record
	p2, err := NewJSONLPersistence(path)
	require.NoError(t, err)

	s2 := NewStore(p2)
	s2.LoadTombstones([]string{hash})
	require.NoError(t, s2.Hydrate())

	assert.Equal(t, 0, s2.Count())

	s2.Close()
}

func TestRecoverFromCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.jsonl")

	// Write file with corruption
	content := `{"soundforge_schema_version":1,"created_at":1703577600}
{"id":"valid1","path":"/home/user/a.wav","title":"A","format":".wav","imported_at":1703577600}
corrupt line that will break things
{"id":"valid2","path":"/home/user/b.wav","title":"B","format":".wav","imported_at":1703577601}
`
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)

	// Recover
	err = RecoverFromCorruption(path)
	require.NoError(t, err)

	// Verify recovered file
	p, err := NewJSONLPersistence(path)
	require.NoError(t, err)
	defer p.Close()

	clips, err := p.Load()
	require.NoError(t, err)
	assert.Len(t, clips, 2)

	// Backup should exist
	matches, _ := filepath.Glob(path + ".corrupted.*")
	assert.Len(t, matches, 1)
}

func persistTestClip(id string) model.Clip {
	return model.Clip{
		ID:          id,
		Path:        "/home/user/sounds/" + id + ".wav",
		Title:       "Clip " + id,
		Format:      ".wav",
		ContentHash: "hash-" + id, // Unique hash so hydration keeps every record
		ImportedAt:  time.Now().Unix(),
	}
}
