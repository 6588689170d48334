package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundforge/internal/catalog"
	"soundforge/internal/config"
	"soundforge/internal/library"
	"soundforge/internal/model"
	"soundforge/internal/project"
)

// update runs one Update step and returns the concrete model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// runeKey builds a key message for a printable key.
func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// collectMsgs executes a command and flattens one level of batching.
// Only safe for commands whose messages resolve immediately.
func collectMsgs(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			if c == nil {
				continue
			}
			if inner := c(); inner != nil {
				out = append(out, inner)
			}
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// findStatus returns the first status message in msgs.
func findStatus(t *testing.T, msgs []tea.Msg) statusMsg {
	t.Helper()
	for _, msg := range msgs {
		if sm, ok := msg.(statusMsg); ok {
			return sm
		}
	}
	t.Fatal("no status message found")
	return statusMsg{}
}

// testModel builds a model that has seen a window size and the initial
// list load.
func testModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.Theme == nil {
		opts.Theme = project.New()
	}
	m := New(opts)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, reloadMsg{})
	return m
}

// writeClipFile creates a small stand-in audio file.
func writeClipFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF"+name), 0o644))
	return path
}

// addClip imports a file into the store under the given title.
func addClip(t *testing.T, store *library.Store, path, title string) model.Clip {
	t.Helper()
	clip, err := model.NewClip(path)
	require.NoError(t, err)
	clip.Title = title
	added, err := store.Add(*clip)
	require.NoError(t, err)
	require.True(t, added)
	got := store.GetByPath(clip.Path)
	require.NotNil(t, got)
	return *got
}

// findEventItem locates the list item for an event id.
func findEventItem(t *testing.T, m Model, event string) eventItem {
	t.Helper()
	for _, it := range m.events.Items() {
		if ei, ok := it.(eventItem); ok && ei.event.ID == event {
			return ei
		}
	}
	t.Fatalf("event %s not in list", event)
	return eventItem{}
}

func TestNew(t *testing.T) {
	m := New(Options{})

	assert.Equal(t, ModeEvents, m.mode)
	assert.NotNil(t, m.theme)
	assert.Equal(t, project.DefaultName, m.events.Title)
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_BuildsEventList(t *testing.T) {
	m := testModel(t, Options{})

	items := m.events.Items()
	require.Len(t, items, catalog.Count())

	first, ok := items[0].(eventItem)
	require.True(t, ok)
	assert.False(t, first.assigned)
	assert.NotEmpty(t, first.event.ID)
}

func TestModel_ShowsAssignments(t *testing.T) {
	store := library.NewStore(nil)
	path := writeClipFile(t, "chime.wav")
	addClip(t, store, path, "Door Chime")

	theme := project.New()
	require.NoError(t, theme.Assign("bell", path))

	m := testModel(t, Options{Store: store, Theme: theme})

	item := findEventItem(t, m, "bell")
	assert.True(t, item.assigned)
	assert.Equal(t, "Door Chime", item.clipTitle)
	assert.Contains(t, item.Description(), "Door Chime")

	// Dirty themes are flagged in the title bar
	assert.Equal(t, project.DefaultName+" (unsaved)", m.events.Title)
}

func TestModel_SearchFiltersEvents(t *testing.T) {
	m := testModel(t, Options{})

	m, _ = update(t, m, runeKey('/'))
	assert.Equal(t, ModeSearch, m.mode)

	for _, r := range "bell" {
		m, _ = update(t, m, runeKey(r))
	}

	items := m.events.Items()
	require.NotEmpty(t, items)
	assert.Less(t, len(items), catalog.Count())
	for _, it := range items {
		ei := it.(eventItem)
		haystack := strings.ToLower(ei.event.ID + " " + ei.event.Category + " " + ei.event.Description)
		assert.Contains(t, haystack, "bell", "event %s should match the filter", ei.event.ID)
	}

	// Esc clears the filter
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeEvents, m.mode)
	assert.Len(t, m.events.Items(), catalog.Count())
}

func TestModel_SearchEnterKeepsFilter(t *testing.T) {
	m := testModel(t, Options{})

	m, _ = update(t, m, runeKey('/'))
	for _, r := range "bell" {
		m, _ = update(t, m, runeKey(r))
	}
	filtered := len(m.events.Items())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeEvents, m.mode)
	assert.Len(t, m.events.Items(), filtered)

	// Esc in the list clears the applied filter
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, m.events.Items(), catalog.Count())
}

func TestModel_PickerOpensOnEnter(t *testing.T) {
	store := library.NewStore(nil)
	path := writeClipFile(t, "chime.wav")
	addClip(t, store, path, "Door Chime")

	m := testModel(t, Options{Store: store})
	selected := m.events.Items()[0].(eventItem).event.ID

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModePicker, m.mode)
	assert.Equal(t, selected, m.pickerEvent)
	assert.Equal(t, "Sound for "+selected, m.picker.Title)

	items := m.picker.Items()
	require.Len(t, items, 4)
	assert.Equal(t, "Unset sound...", items[0].(pickerItem).Title())
	assert.Equal(t, "Import sound...", items[1].(pickerItem).Title())
	assert.Equal(t, "Record new sound...", items[2].(pickerItem).Title())

	clipItem := items[3].(pickerItem)
	assert.Equal(t, pickClip, clipItem.action)
	assert.Equal(t, "Door Chime", clipItem.clip.Title)
}

func TestModel_AssignFromPicker(t *testing.T) {
	store := library.NewStore(nil)
	path := writeClipFile(t, "chime.wav")
	clip := addClip(t, store, path, "Door Chime")

	m := testModel(t, Options{Store: store})
	event := m.events.Items()[0].(eventItem).event.ID

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.picker.Select(3)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeEvents, m.mode)
	got, ok := m.theme.Assigned(event)
	require.True(t, ok)
	assert.Equal(t, clip.Path, got)

	sm := findStatus(t, collectMsgs(t, cmd))
	assert.Contains(t, sm.text, "Door Chime")
	assert.Contains(t, sm.text, event)
	assert.False(t, sm.isErr)
}

func TestModel_UnsetFromPicker(t *testing.T) {
	path := writeClipFile(t, "chime.wav")
	theme := project.New()

	m := testModel(t, Options{Theme: theme})
	event := m.events.Items()[0].(eventItem).event.ID
	require.NoError(t, theme.Assign(event, path))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.picker.Select(0)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeEvents, m.mode)
	_, ok := m.theme.Assigned(event)
	assert.False(t, ok)

	sm := findStatus(t, collectMsgs(t, cmd))
	assert.Contains(t, sm.text, "Cleared")
}

func TestModel_UnassignKey(t *testing.T) {
	path := writeClipFile(t, "chime.wav")
	theme := project.New()

	m := testModel(t, Options{Theme: theme})
	event := m.events.Items()[0].(eventItem).event.ID
	require.NoError(t, theme.Assign(event, path))
	m.refreshLists()

	m, cmd := update(t, m, runeKey('u'))

	_, ok := m.theme.Assigned(event)
	assert.False(t, ok)

	sm := findStatus(t, collectMsgs(t, cmd))
	assert.Equal(t, "Cleared "+event, sm.text)
}

func TestModel_QuitConfirmsWhenDirty(t *testing.T) {
	theme := project.New()
	theme.SetName("Dirty")

	m := testModel(t, Options{Theme: theme})
	m, cmd := update(t, m, runeKey('q'))

	assert.Equal(t, ModeConfirmQuit, m.mode)
	assert.Nil(t, cmd)

	t.Run("discard quits", func(t *testing.T) {
		_, cmd := update(t, m, runeKey('d'))
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	})

	t.Run("esc keeps editing", func(t *testing.T) {
		next, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
		assert.Equal(t, ModeEvents, next.mode)
		assert.Nil(t, cmd)
	})

	t.Run("save prompts for a path then quits", func(t *testing.T) {
		next, _ := update(t, m, runeKey('s'))
		require.Equal(t, ModePath, next.mode)

		dest := filepath.Join(t.TempDir(), "theme.json")
		next.pathInput.SetValue(dest)
		next, cmd := update(t, next, tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
		assert.FileExists(t, dest)
		assert.False(t, next.theme.Modified())
	})
}

func TestModel_QuitDirectlyWhenClean(t *testing.T) {
	m := testModel(t, Options{})

	_, cmd := update(t, m, runeKey('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_QuitSkipsConfirmWhenDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TUI.ConfirmQuit = false
	theme := project.New()
	theme.SetName("Dirty")

	m := testModel(t, Options{Config: cfg, Theme: theme})

	_, cmd := update(t, m, runeKey('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_SaveRemembersPath(t *testing.T) {
	theme := project.New()
	dest := filepath.Join(t.TempDir(), "proj.json")
	require.NoError(t, theme.Save(dest))
	theme.SetName("Renamed")

	m := testModel(t, Options{Theme: theme})
	m, cmd := update(t, m, runeKey('s'))

	assert.Equal(t, ModeEvents, m.mode)
	assert.False(t, m.theme.Modified())

	sm := findStatus(t, collectMsgs(t, cmd))
	assert.Equal(t, "Saved "+dest, sm.text)
}

func TestModel_SavePromptsForNewTheme(t *testing.T) {
	m := testModel(t, Options{})

	m, _ = update(t, m, runeKey('s'))
	assert.Equal(t, ModePath, m.mode)
	assert.Equal(t, "./soundtheme.json", m.pathInput.Value())
}

func TestModel_ExportPromptSuggestsSlug(t *testing.T) {
	m := testModel(t, Options{})

	m, _ = update(t, m, runeKey('e'))
	assert.Equal(t, ModePath, m.mode)
	assert.Equal(t, pathExport, m.pathPurpose)
	assert.Equal(t, "./soundtheme", m.pathInput.Value())

	// Esc abandons the prompt
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeEvents, m.mode)
}

func TestModel_ExportUnavailableWithoutExporter(t *testing.T) {
	m := testModel(t, Options{})

	m, _ = update(t, m, runeKey('e'))
	m.pathInput.SetValue("./out")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeEvents, m.mode)
	assert.Empty(t, m.busy)

	sm := findStatus(t, collectMsgs(t, cmd))
	assert.True(t, sm.isErr)
	assert.Contains(t, sm.text, "Export is not available")
}

func TestModel_MetadataForm(t *testing.T) {
	m := testModel(t, Options{})

	m, _ = update(t, m, runeKey('m'))
	require.Equal(t, ModeMetadata, m.mode)
	assert.Equal(t, project.DefaultName, m.nameInput.Value())
	assert.Equal(t, project.DefaultComment, m.commentInput.Value())
	assert.True(t, m.nameInput.Focused())

	// Tab moves focus to the comment field
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, m.commentInput.Focused())
	assert.False(t, m.nameInput.Focused())

	m.nameInput.SetValue("Retro Beeps")
	m.commentInput.SetValue("Bleeps and bloops")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeEvents, m.mode)
	assert.Equal(t, "Retro Beeps", m.theme.Name())
	assert.Equal(t, "Bleeps and bloops", m.theme.Comment())
	assert.True(t, m.theme.Modified())
	assert.Equal(t, "Retro Beeps (unsaved)", m.events.Title)

	sm := findStatus(t, collectMsgs(t, cmd))
	assert.Equal(t, "Metadata updated", sm.text)
}

func TestModel_MetadataEscCancels(t *testing.T) {
	m := testModel(t, Options{})

	m, _ = update(t, m, runeKey('m'))
	m.nameInput.SetValue("Scratch")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, ModeEvents, m.mode)
	assert.Equal(t, project.DefaultName, m.theme.Name())
	assert.False(t, m.theme.Modified())
}

func TestModel_RecordingUnavailable(t *testing.T) {
	m := testModel(t, Options{})

	m, cmd := update(t, m, runeKey('r'))
	assert.Equal(t, ModeEvents, m.mode)

	sm := findStatus(t, collectMsgs(t, cmd))
	assert.True(t, sm.isErr)
	assert.Contains(t, sm.text, "Recording is not available")
}

func TestModel_PreviewUnavailable(t *testing.T) {
	m := testModel(t, Options{})

	_, cmd := update(t, m, runeKey(' '))
	sm := findStatus(t, collectMsgs(t, cmd))
	assert.True(t, sm.isErr)
	assert.Contains(t, sm.text, "Preview is not available")
}

func TestModel_PreviewLifecycle(t *testing.T) {
	m := testModel(t, Options{})

	done := make(chan struct{})
	close(done)

	m, cmd := update(t, m, previewStartedMsg{path: "/tmp/x.wav", done: done})
	assert.Equal(t, "/tmp/x.wav", m.previewing)
	require.NotNil(t, cmd)
	assert.Equal(t, previewDoneMsg{path: "/tmp/x.wav"}, cmd())

	m, _ = update(t, m, previewDoneMsg{path: "/tmp/x.wav"})
	assert.Empty(t, m.previewing)
}

func TestModel_StalePreviewDoneIgnored(t *testing.T) {
	m := testModel(t, Options{})
	m.previewing = "/tmp/current.wav"

	m, _ = update(t, m, previewDoneMsg{path: "/tmp/old.wav"})
	assert.Equal(t, "/tmp/current.wav", m.previewing)
}

func TestModel_ImportResultAssigns(t *testing.T) {
	store := library.NewStore(nil)
	path := writeClipFile(t, "ding.wav")
	clip := addClip(t, store, path, "Ding")

	m := testModel(t, Options{Store: store})
	event := m.events.Items()[0].(eventItem).event.ID

	m, cmd := update(t, m, importResultMsg{clip: &clip, event: event})

	got, ok := m.theme.Assigned(event)
	require.True(t, ok)
	assert.Equal(t, clip.Path, got)

	sm := findStatus(t, collectMsgs(t, cmd))
	assert.Contains(t, sm.text, "Ding")
}

func TestModel_ImportResultError(t *testing.T) {
	m := testModel(t, Options{})

	_, cmd := update(t, m, importResultMsg{err: errors.New("boom")})
	sm := findStatus(t, collectMsgs(t, cmd))
	assert.True(t, sm.isErr)
	assert.Equal(t, "Import failed: boom", sm.text)
}

func TestModel_ExportDone(t *testing.T) {
	tests := []struct {
		name string
		msg  exportDoneMsg
		want string
		err  bool
	}{
		{"export success", exportDoneMsg{dest: "/tmp/out"}, "Exported to /tmp/out", false},
		{"install success", exportDoneMsg{dest: "/tmp/out", installed: true}, "Installed to /tmp/out", false},
		{"export failure", exportDoneMsg{dest: "/tmp/out", err: errors.New("disk full")}, "Export failed: disk full", true},
		{"install failure", exportDoneMsg{dest: "", installed: true, err: errors.New("no name")}, "Install failed: no name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t, Options{})
			m.busy = "Exporting"
			m.exportCh = make(chan exportProgressMsg)

			m, cmd := update(t, m, tt.msg)
			assert.Empty(t, m.busy)
			assert.Nil(t, m.exportCh)

			sm := findStatus(t, collectMsgs(t, cmd))
			assert.Equal(t, tt.want, sm.text)
			assert.Equal(t, tt.err, sm.isErr)
		})
	}
}

func TestModel_BusyGatesKeys(t *testing.T) {
	m := testModel(t, Options{})
	m.busy = "Exporting"

	next, cmd := update(t, m, runeKey('m'))
	assert.Equal(t, ModeEvents, next.mode)
	assert.Nil(t, cmd)

	// Ctrl+c still quits
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_StatusMessageLifecycle(t *testing.T) {
	m := testModel(t, Options{})

	m, cmd := update(t, m, statusMsg{text: "hello", isErr: false})
	assert.Equal(t, "hello", m.statusMsg)
	require.NotNil(t, cmd)

	m, _ = update(t, m, clearStatusMsg{})
	assert.Empty(t, m.statusMsg)
	assert.False(t, m.statusErr)
}

func TestModel_RefreshReissuesWatch(t *testing.T) {
	store := library.NewStore(nil)
	m := testModel(t, Options{Store: store})

	_, cmd := update(t, m, refreshMsg{})
	assert.NotNil(t, cmd)
}

func TestModel_DetailView(t *testing.T) {
	store := library.NewStore(nil)
	path := writeClipFile(t, "chime.wav")
	addClip(t, store, path, "Door Chime")

	theme := project.New()
	require.NoError(t, theme.Assign("bell", path))

	m := testModel(t, Options{Store: store, Theme: theme})

	item := findEventItem(t, m, "bell")
	detail := stripANSI(m.renderDetail(item))
	assert.Contains(t, detail, "bell")
	assert.Contains(t, detail, "Door Chime")
	assert.Contains(t, detail, path)

	unassigned := findEventItem(t, m, "desktop-login")
	detail = stripANSI(m.renderDetail(unassigned))
	assert.Contains(t, detail, "No sound assigned.")
}

func TestModel_DetailOpensForSelection(t *testing.T) {
	m := testModel(t, Options{})

	m, _ = update(t, m, runeKey('i'))
	assert.Equal(t, ModeDetail, m.mode)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeEvents, m.mode)
}

func TestEventItemDescription(t *testing.T) {
	ev := catalog.Event{ID: "bell", Category: "alerts", Description: "The system bell"}

	tests := []struct {
		name string
		item eventItem
		want string
	}{
		{"unassigned with category", eventItem{event: ev, showCategory: true}, "[alerts] The system bell"},
		{"unassigned plain", eventItem{event: ev}, "The system bell"},
		{"assigned with category", eventItem{event: ev, clipTitle: "Chime", assigned: true, showCategory: true}, "[alerts] ♪ Chime"},
		{"playing", eventItem{event: ev, clipTitle: "Chime", assigned: true, playing: true}, "▶ Chime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Description())
		})
	}
}

func TestPickerItemStrings(t *testing.T) {
	clip := model.Clip{
		Title:      "Door Chime",
		Format:     "wav",
		Duration:   1.5,
		ImportedAt: time.Now().Unix(),
	}

	it := pickerItem{action: pickClip, clip: clip}
	assert.Equal(t, "Door Chime", it.Title())
	assert.Contains(t, it.Description(), "wav")
	assert.Contains(t, it.Description(), "1.5s")
	assert.Contains(t, it.FilterValue(), "Door Chime")

	unset := pickerItem{action: pickUnset}
	assert.Equal(t, "Unset sound...", unset.Title())
	assert.Equal(t, "Clear this event's assignment", unset.Description())
	assert.Equal(t, unset.Title(), unset.FilterValue())
}

func TestBuildKeybindBar(t *testing.T) {
	m := New(Options{})

	wide := stripANSI(m.buildKeybindBar(200, "events"))
	assert.Contains(t, wide, "q quit")
	assert.Contains(t, wide, "space preview")
	assert.Contains(t, wide, "I install")

	narrow := stripANSI(m.buildKeybindBar(12, "events"))
	assert.Equal(t, "q quit", narrow)
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00.0"},
		{1500 * time.Millisecond, "00:01.5"},
		{65*time.Second + 300*time.Millisecond, "01:05.3"},
		{10 * time.Minute, "10:00.0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatElapsed(tt.d))
	}
}

func TestStripANSI(t *testing.T) {
	styled := "\x1b[1mhello\x1b[0m world"
	assert.Equal(t, "hello world", stripANSI(styled))
	assert.Equal(t, "plain", stripANSI("plain"))
}
