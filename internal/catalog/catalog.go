// Package catalog holds the table of sound event identifiers a theme can
// assign clips to, as defined by the XDG sound naming convention.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed events.yaml
var eventsYAML []byte

// Event is one named sound event a desktop environment can trigger.
type Event struct {
	ID          string `yaml:"id" json:"id"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description"`
}

// ExampleEvent is the event desktops play to demonstrate a theme. It is
// written as the Example key of every exported manifest.
const ExampleEvent = "theme-demo"

var (
	loadOnce sync.Once
	events   []Event
	byID     map[string]Event
	loadErr  error
)

func load() {
	loadOnce.Do(func() {
		var doc struct {
			Events []Event `yaml:"events"`
		}
		if err := yaml.Unmarshal(eventsYAML, &doc); err != nil {
			loadErr = fmt.Errorf("failed to parse embedded event table: %w", err)
			return
		}
		events = doc.Events
		sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
		byID = make(map[string]Event, len(events))
		for _, e := range events {
			byID[e.ID] = e
		}
	})
	if loadErr != nil {
		// The asset is compiled in; failing to parse it is a build defect.
		panic(loadErr)
	}
}

// All returns every event sorted by ID.
func All() []Event {
	load()
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Count returns the number of events in the table.
func Count() int {
	load()
	return len(events)
}

// Get returns the event with the given ID.
func Get(id string) (Event, bool) {
	load()
	e, ok := byID[id]
	return e, ok
}

// Exists reports whether the ID names a known event.
func Exists(id string) bool {
	_, ok := Get(id)
	return ok
}

// IDs returns all event IDs sorted.
func IDs() []string {
	load()
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

// Categories returns the distinct category names sorted.
func Categories() []string {
	load()
	seen := make(map[string]bool)
	var cats []string
	for _, e := range events {
		if !seen[e.Category] {
			seen[e.Category] = true
			cats = append(cats, e.Category)
		}
	}
	sort.Strings(cats)
	return cats
}

// ByCategory returns the events in the given category sorted by ID.
func ByCategory(category string) []Event {
	load()
	var out []Event
	for _, e := range events {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Filter returns events whose ID or description contains the substring,
// case-insensitively. An empty substring matches everything.
func Filter(substr string) []Event {
	load()
	if substr == "" {
		return All()
	}
	needle := strings.ToLower(substr)
	var out []Event
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.ID), needle) ||
			strings.Contains(strings.ToLower(e.Description), needle) {
			out = append(out, e)
		}
	}
	return out
}
