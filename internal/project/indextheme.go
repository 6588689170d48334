package project

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ini "gopkg.in/ini.v1"

	"soundforge/internal/catalog"
	"soundforge/internal/model"
)

func init() {
	// Theme index convention is Key=Value without padding
	ini.PrettyFormat = false
}

// IndexTheme is the parsed form of a theme manifest.
type IndexTheme struct {
	Name      string
	Comment   string
	Directory string // profile directory holding the audio files
	Example   string
}

// WriteIndexTheme writes the index.theme manifest for t.
func (t *Theme) WriteIndexTheme(w io.Writer) error {
	f := ini.Empty()

	sec := f.Section("Sound Theme")
	sec.Key("Name").SetValue(t.name)
	sec.Key("Comment").SetValue(t.comment)
	sec.Key("Directories").SetValue("stereo")
	sec.Key("Example").SetValue(catalog.ExampleEvent)

	f.Section("stereo").Key("OutputProfile").SetValue("stereo")

	_, err := f.WriteTo(w)
	return err
}

// ReadIndexTheme parses a theme manifest. Foreign manifests are read
// tolerantly: Name is required, stereo is preferred among the listed
// directories and the first one is used when stereo is absent.
func ReadIndexTheme(r io.Reader) (*IndexTheme, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotATheme, err)
	}

	sec := f.Section("Sound Theme")
	name := sec.Key("Name").String()
	if name == "" {
		return nil, fmt.Errorf("%w: index has no Name", ErrNotATheme)
	}

	dir := "stereo"
	if dirs := sec.Key("Directories").Strings(","); len(dirs) > 0 {
		dir = dirs[0]
		for _, d := range dirs {
			if d == "stereo" {
				dir = d
				break
			}
		}
	}

	return &IndexTheme{
		Name:      name,
		Comment:   sec.Key("Comment").String(),
		Directory: dir,
		Example:   sec.Key("Example").String(),
	}, nil
}

// ImportInstalled builds a Theme from an installed theme directory: the
// manifest supplies the metadata, the profile directory's files map back to
// catalog events by basename. Files that match no event (or are not audio)
// are returned as skipped, not errors. The result has no backing project
// file and is marked dirty.
func ImportInstalled(dir string) (*Theme, []string, error) {
	idxFile, err := os.Open(filepath.Join(dir, "index.theme"))
	if err != nil {
		return nil, nil, fmt.Errorf("read theme index: %w", err)
	}
	defer func() { _ = idxFile.Close() }()

	idx, err := ReadIndexTheme(idxFile)
	if err != nil {
		return nil, nil, err
	}

	t := New()
	t.name = idx.Name
	if idx.Comment != "" {
		t.comment = idx.Comment
	}

	soundsDir := filepath.Join(dir, idx.Directory)
	entries, err := os.ReadDir(soundsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("read theme sounds: %w", err)
	}

	var skipped []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		event := strings.TrimSuffix(name, filepath.Ext(name))
		if !catalog.Exists(event) || !model.IsAudioPath(name) {
			skipped = append(skipped, name)
			continue
		}

		abs, err := filepath.Abs(filepath.Join(soundsDir, name))
		if err != nil {
			return nil, nil, err
		}
		t.sounds[event] = abs
		t.rememberImport(abs)
	}

	t.modified = true

	return t, skipped, nil
}
