package catalog

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_CompleteAndSorted(t *testing.T) {
	events := All()
	require.Len(t, events, 80)
	assert.True(t, sort.SliceIsSorted(events, func(i, j int) bool {
		return events[i].ID < events[j].ID
	}))

	// Every entry is fully described.
	for _, e := range events {
		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.Category, "event %s should have a category", e.ID)
		assert.NotEmpty(t, e.Description, "event %s should have a description", e.ID)
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	first := All()
	first[0].ID = "mutated"
	assert.NotEqual(t, "mutated", All()[0].ID)
}

func TestGet(t *testing.T) {
	tests := []struct {
		id    string
		found bool
	}{
		{"bell", true},
		{"theme-demo", true},
		{"window-unshaded", true},
		{"alarm-clock-elapsed", true},
		{"not-an-event", false},
		{"", false},
		{"Bell", false}, // IDs are case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			e, ok := Get(tt.id)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.id, e.ID)
			}
		})
	}
}

func TestExampleEvent_IsKnown(t *testing.T) {
	assert.True(t, Exists(ExampleEvent))
}

func TestIDs_MatchesAll(t *testing.T) {
	ids := IDs()
	events := All()
	require.Equal(t, len(events), len(ids))
	for i, e := range events {
		assert.Equal(t, e.ID, ids[i])
	}
}

func TestCategories_CoverEveryEvent(t *testing.T) {
	cats := Categories()
	require.NotEmpty(t, cats)
	assert.True(t, sort.StringsAreSorted(cats))

	total := 0
	for _, c := range cats {
		members := ByCategory(c)
		assert.NotEmpty(t, members, "category %s should not be empty", c)
		total += len(members)
	}
	assert.Equal(t, Count(), total)
}

func TestByCategory_Unknown(t *testing.T) {
	assert.Empty(t, ByCategory("no-such-category"))
}

func TestFilter(t *testing.T) {
	t.Run("substring of id", func(t *testing.T) {
		hits := Filter("window-m")
		require.NotEmpty(t, hits)
		for _, e := range hits {
			assert.Contains(t, e.ID, "window-m")
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.Equal(t, len(Filter("BELL")), len(Filter("bell")))
	})

	t.Run("matches description", func(t *testing.T) {
		hits := Filter("ringing")
		require.NotEmpty(t, hits)
		found := false
		for _, e := range hits {
			if e.ID == "phone-incoming-call" {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("empty matches everything", func(t *testing.T) {
		assert.Len(t, Filter(""), Count())
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Filter("zzzzzz"))
	})
}

func TestEventIDs_WellFormed(t *testing.T) {
	for _, e := range All() {
		assert.Equal(t, strings.ToLower(e.ID), e.ID, "IDs are lowercase")
		assert.False(t, strings.Contains(e.ID, " "), "IDs have no spaces")
	}
}
