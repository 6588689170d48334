package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"soundforge/internal/catalog"
	"soundforge/internal/exporter"
	"soundforge/internal/model"
)

func testClips() []model.Clip {
	now := time.Now()
	return []model.Clip{
		{
			ID:         "01AAAABBBBCCCCDDDDEEEEFFFF",
			Path:       "/home/user/sounds/chime.wav",
			Title:      "Door Chime",
			Format:     "wav",
			Duration:   1.5,
			SizeBytes:  52000,
			ImportedAt: now.Add(-5 * time.Minute).Unix(),
		},
		{
			ID:         "01GGGGHHHHIIIIJJJJKKKKLLLL",
			Path:       "/home/user/sounds/buzz.oga",
			Title:      "Buzzer",
			Format:     "oga",
			ImportedAt: now.Add(-2 * time.Hour).Unix(),
		},
	}
}

func testEvents() []catalog.Event {
	return []catalog.Event{
		{ID: "bell", Category: "Alerts", Description: "Bell"},
		{ID: "desktop-login", Category: "Desktop", Description: "Login greeting"},
	}
}

func testThemes() []exporter.InstalledTheme {
	return []exporter.InstalledTheme{
		{Name: "Retro Beeps", Dir: "/home/user/.local/share/sounds/retrobeeps", Events: []string{"bell", "desktop-login"}},
		{Name: "Quiet", Dir: "/home/user/.local/share/sounds/quiet"},
	}
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &PlainFormatter{}, NewFormatter(FormatPlain))
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML))
	assert.IsType(t, &PlainFormatter{}, NewFormatter("unknown"))
}

func TestPlainFormatter_Events(t *testing.T) {
	var buf bytes.Buffer

	err := NewPlainFormatter().Format(&buf, testEvents())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "EVENT")
	assert.Contains(t, lines[0], "CATEGORY")
	assert.Contains(t, lines[1], "bell")
	assert.Contains(t, lines[1], "Alerts")
	assert.Contains(t, lines[2], "desktop-login")
}

func TestPlainFormatter_Clips(t *testing.T) {
	var buf bytes.Buffer

	err := NewPlainFormatter().Format(&buf, testClips())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "TITLE")
	assert.Contains(t, lines[1], "01AAAABB")
	assert.NotContains(t, lines[1], "01AAAABBBB")
	assert.Contains(t, lines[1], "Door Chime")
	assert.Contains(t, lines[1], "1.5s")
	assert.Contains(t, lines[2], "Buzzer")
	// Unknown duration renders as a dash
	assert.Contains(t, lines[2], "-")
}

func TestPlainFormatter_Themes(t *testing.T) {
	var buf bytes.Buffer

	err := NewPlainFormatter().Format(&buf, testThemes())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Retro Beeps")
	assert.Contains(t, lines[1], "2")
	assert.Contains(t, lines[2], "Quiet")
	assert.Contains(t, lines[2], "0")
}

func TestPlainFormatter_Fallback(t *testing.T) {
	var buf bytes.Buffer

	err := NewPlainFormatter().Format(&buf, "plain string")
	require.NoError(t, err)
	assert.Equal(t, "plain string\n", buf.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer

	err := NewJSONFormatter().Format(&buf, testEvents())
	require.NoError(t, err)

	// Indented output
	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {"))

	var decoded []catalog.Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "bell", decoded[0].ID)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer

	err := NewYAMLFormatter().Format(&buf, testThemes())
	require.NoError(t, err)

	var decoded []exporter.InstalledTheme
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Retro Beeps", decoded[0].Name)
	assert.Equal(t, []string{"bell", "desktop-login"}, decoded[0].Events)
}
