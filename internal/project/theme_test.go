package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	th := New()

	assert.Equal(t, "Sound theme", th.Name())
	assert.Equal(t, "This is a sound theme!", th.Comment())
	assert.Empty(t, th.Path())
	assert.False(t, th.Modified())
	assert.Equal(t, 0, th.AssignedCount())
}

func TestTheme_SetName(t *testing.T) {
	th := New()
	th.SetName("Retro Beeps")

	assert.Equal(t, "Retro Beeps", th.Name())
	assert.True(t, th.Modified())
}

func TestTheme_SetComment(t *testing.T) {
	th := New()
	th.SetComment("Bleeps and bloops")

	assert.Equal(t, "Bleeps and bloops", th.Comment())
	assert.True(t, th.Modified())
}

func TestTheme_Assign(t *testing.T) {
	t.Run("valid assignment", func(t *testing.T) {
		th := New()
		path := writeSound(t, "chime.wav")

		err := th.Assign("bell", path)
		require.NoError(t, err)

		got, ok := th.Assigned("bell")
		require.True(t, ok)
		assert.Equal(t, path, got)
		assert.True(t, filepath.IsAbs(got))
		assert.Equal(t, 1, th.AssignedCount())
		assert.True(t, th.Modified())
	})

	t.Run("unknown event", func(t *testing.T) {
		th := New()
		path := writeSound(t, "chime.wav")

		err := th.Assign("bell-tower-collapse", path)
		assert.ErrorIs(t, err, ErrUnknownEvent)
	})

	t.Run("missing file", func(t *testing.T) {
		th := New()

		err := th.Assign("bell", "/nonexistent/chime.wav")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing sound:")
	})
}

func TestTheme_Unassign(t *testing.T) {
	th := New()
	path := writeSound(t, "chime.wav")
	require.NoError(t, th.Assign("bell", path))

	err := th.Unassign("bell")
	require.NoError(t, err)

	_, ok := th.Assigned("bell")
	assert.False(t, ok)
	assert.Equal(t, 0, th.AssignedCount())

	err = th.Unassign("not-an-event")
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestTheme_Assignments_CatalogOrder(t *testing.T) {
	th := New()
	p1 := writeSound(t, "close.wav")
	p2 := writeSound(t, "ding.wav")

	// Assign out of order; listing comes back in catalog order
	require.NoError(t, th.Assign("window-close", p1))
	require.NoError(t, th.Assign("bell", p2))

	as := th.Assignments()
	require.Len(t, as, 2)
	assert.Equal(t, "bell", as[0].Event)
	assert.Equal(t, "window-close", as[1].Event)
}

func TestTheme_ImportedPaths(t *testing.T) {
	th := New()
	p1 := writeSound(t, "a.wav")
	p2 := writeSound(t, "b.wav")

	require.NoError(t, th.Assign("bell", p1))
	require.NoError(t, th.Assign("message", p2))
	// Same file again on another event stays unique
	require.NoError(t, th.Assign("complete", p1))

	assert.Equal(t, []string{p1, p2}, th.ImportedPaths())
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Sound theme", "soundtheme"},
		{"My Theme 2!", "mytheme2"},
		{"ALLCAPS", "allcaps"},
		{"retro-beeps_v2", "retrobeepsv2"},
		{"Überklang", "überklang"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Slug(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("no usable characters", func(t *testing.T) {
		_, err := Slug("!!! ???")
		assert.ErrorIs(t, err, ErrEmptySlug)
	})
}

// writeSound writes a throwaway audio file and returns its absolute path.
func writeSound(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF"+name), 0o644))
	return path
}
