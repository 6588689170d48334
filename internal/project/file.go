package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"soundforge/internal/catalog"
)

// projectFile is the on-disk JSON shape. Sounds carries every catalog event,
// null for unassigned ones.
type projectFile struct {
	Name    string             `json:"name"`
	Comment string             `json:"comment"`
	Sounds  map[string]*string `json:"sounds"`
}

// Save writes the project to path, or to its backing file when path is
// empty, then clears the dirty flag.
func (t *Theme) Save(path string) error {
	if path == "" {
		path = t.path
	}
	if path == "" {
		return errors.New("no project file path")
	}

	sounds := make(map[string]*string, catalog.Count())
	for _, ev := range catalog.IDs() {
		if p, ok := t.sounds[ev]; ok {
			v := p
			sounds[ev] = &v
		} else {
			sounds[ev] = nil
		}
	}

	data, err := json.MarshalIndent(projectFile{
		Name:    t.name,
		Comment: t.comment,
		Sounds:  sounds,
	}, "", "    ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	t.path = path
	t.modified = false

	return nil
}

// Load reads and validates a project file. Validation is strict: the top
// level must be an object with name and comment strings and a sounds
// object. Every event key must be in the catalog and every non-null
// path must exist on disk.
func Load(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, ErrNotATheme)
	}

	nameRaw, ok := raw["name"]
	if !ok {
		return nil, fmt.Errorf("parse %s: %w", path, ErrNotATheme)
	}
	commentRaw, ok := raw["comment"]
	if !ok {
		return nil, fmt.Errorf("parse %s: %w", path, ErrNotATheme)
	}

	var name, comment string
	if err := json.Unmarshal(nameRaw, &name); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, ErrNotATheme)
	}
	if err := json.Unmarshal(commentRaw, &comment); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, ErrNotATheme)
	}

	var sounds map[string]*string
	soundsRaw, ok := raw["sounds"]
	if !ok {
		return nil, fmt.Errorf("parse %s: %w", path, ErrNotATheme)
	}
	if err := json.Unmarshal(soundsRaw, &sounds); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, ErrNotATheme)
	}

	t := New()
	t.name = name
	t.comment = comment
	t.path = path

	// Deterministic order so the first bad key reported is stable
	events := make([]string, 0, len(sounds))
	for ev := range sounds {
		events = append(events, ev)
	}
	sort.Strings(events)

	for _, ev := range events {
		if !catalog.Exists(ev) {
			return nil, fmt.Errorf("parse %s: %w: %s", path, ErrUnknownEvent, ev)
		}
		p := sounds[ev]
		if p == nil {
			continue
		}
		if _, err := os.Stat(*p); err != nil {
			return nil, fmt.Errorf("parse %s: missing sound: %s", path, *p)
		}
		t.sounds[ev] = *p
		t.rememberImport(*p)
	}

	t.modified = false

	return t, nil
}
