// Package tui provides the BubbleTea-based terminal user interface.
package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"soundforge/internal/audio"
	"soundforge/internal/catalog"
	"soundforge/internal/config"
	"soundforge/internal/exporter"
	"soundforge/internal/ffmpeg"
	"soundforge/internal/library"
	"soundforge/internal/model"
	"soundforge/internal/notify"
	"soundforge/internal/project"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeEvents Mode = iota
	ModePicker
	ModeImport
	ModeRecord
	ModeMetadata
	ModeDetail
	ModeSearch
	ModePath
	ModeConfirmQuit
	ModeHelp
)

// pathPurpose says what the path prompt is collecting a path for.
type pathPurpose int

const (
	pathSave pathPurpose = iota
	pathSaveQuit
	pathExport
)

// Options carries the collaborators the TUI works with. Store, Preview,
// Prober, Recorder, Exporter and Notifier may each be nil; the matching
// actions degrade to a status message.
type Options struct {
	Config   *config.Config
	Store    *library.Store
	Theme    *project.Theme
	Preview  *audio.Manager
	Prober   *ffmpeg.Prober
	Recorder *ffmpeg.Recorder
	Exporter *exporter.Exporter
	Notifier *notify.Notifier
}

// Model is the main TUI model.
type Model struct {
	// Collaborators
	cfg      *config.Config
	store    *library.Store
	theme    *project.Theme
	preview  *audio.Manager
	prober   *ffmpeg.Prober
	recorder *ffmpeg.Recorder
	exporter *exporter.Exporter
	notifier *notify.Notifier

	// Current mode
	mode Mode

	// Components
	events       list.Model
	picker       list.Model
	filePicker   filepicker.Model
	viewport     viewport.Model
	searchInput  textinput.Model
	nameInput    textinput.Model
	commentInput textinput.Model
	pathInput    textinput.Model
	spinner      spinner.Model
	progress     progress.Model

	// State
	searchQuery   string
	pickerEvent   string // event being assigned via picker/import/record
	metaFocus     int    // 0 = name input, 1 = comment input
	pathPurpose   pathPurpose
	lastImportDir string
	previewing    string // path currently playing, "" when idle
	recordPath    string
	recordFor     string
	busy          string // label while an export or install runs
	exportCh      chan exportProgressMsg
	width         int
	height        int
	ready         bool

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool

	// Refresh channel subscription
	refreshCh <-chan library.ChangeEvent
}

// eventItem wraps a sound event for the list component.
type eventItem struct {
	event        catalog.Event
	clipTitle    string
	assigned     bool
	playing      bool
	showCategory bool
}

func (i eventItem) Title() string {
	return i.event.ID
}

func (i eventItem) Description() string {
	if i.assigned {
		marker := "♪ "
		if i.playing {
			marker = "▶ "
		}
		if i.showCategory {
			return fmt.Sprintf("[%s] %s%s", i.event.Category, marker, i.clipTitle)
		}
		return marker + i.clipTitle
	}
	if i.showCategory {
		return fmt.Sprintf("[%s] %s", i.event.Category, i.event.Description)
	}
	return i.event.Description
}

func (i eventItem) FilterValue() string {
	return i.event.ID + " " + i.event.Category + " " + i.event.Description + " " + i.clipTitle
}

// eventDelegate is a custom list delegate that dims events without an
// assigned sound and marks the ones that have one.
type eventDelegate struct {
	list.DefaultDelegate
}

// newEventDelegate creates a new event delegate.
func newEventDelegate() eventDelegate {
	d := list.NewDefaultDelegate()
	return eventDelegate{DefaultDelegate: d}
}

// Render renders a list item with custom styling for unassigned events.
// All items are rendered consistently to avoid visual glitches.
func (d eventDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(eventItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	// Check if this item is selected
	isSelected := index == m.Index()

	// Get item width from the list
	itemWidth := m.Width() - d.DefaultDelegate.Styles.NormalTitle.GetHorizontalPadding()

	// Styles
	var titleStyle, descStyle lipgloss.Style

	if !ei.assigned {
		// Unassigned: dimmed/gray color
		if isSelected {
			titleStyle = d.DefaultDelegate.Styles.SelectedTitle.
				Foreground(lipgloss.Color("8"))
			descStyle = d.DefaultDelegate.Styles.SelectedDesc.
				Foreground(lipgloss.Color("8"))
		} else {
			titleStyle = d.DefaultDelegate.Styles.NormalTitle.
				Foreground(lipgloss.Color("8"))
			descStyle = d.DefaultDelegate.Styles.NormalDesc.
				Foreground(lipgloss.Color("8"))
		}
	} else {
		// Assigned: use default delegate styles
		if isSelected {
			titleStyle = d.DefaultDelegate.Styles.SelectedTitle
			descStyle = d.DefaultDelegate.Styles.SelectedDesc
		} else {
			titleStyle = d.DefaultDelegate.Styles.NormalTitle
			descStyle = d.DefaultDelegate.Styles.NormalDesc
		}
	}

	// Build title with an assignment marker
	title := ei.Title()
	if ei.playing {
		title = "▶ " + title
	} else if ei.assigned {
		title = "● " + title
	}

	// Truncate if needed
	if itemWidth > 0 && len(title) > itemWidth {
		title = title[:itemWidth-1] + "…"
	}

	desc := ei.Description()
	if itemWidth > 0 && len(desc) > itemWidth {
		desc = desc[:itemWidth-1] + "…"
	}

	// Render using the same structure as DefaultDelegate
	fmt.Fprint(w, titleStyle.Render(title))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(desc))
}

// pickerAction says what choosing a picker entry does.
type pickerAction int

const (
	pickClip pickerAction = iota
	pickUnset
	pickImport
	pickRecord
)

// pickerItem is one entry in the sound picker: a library clip or one of
// the special unset/import/record entries listed first.
type pickerItem struct {
	action pickerAction
	clip   model.Clip
}

func (i pickerItem) Title() string {
	switch i.action {
	case pickUnset:
		return "Unset sound..."
	case pickImport:
		return "Import sound..."
	case pickRecord:
		return "Record new sound..."
	}
	return i.clip.Title
}

func (i pickerItem) Description() string {
	switch i.action {
	case pickUnset:
		return "Clear this event's assignment"
	case pickImport:
		return "Pick an audio file from disk"
	case pickRecord:
		return "Capture from the microphone"
	}
	return fmt.Sprintf("%s  %s  %s", i.clip.Format, i.clip.DisplayDuration(), i.clip.RelativeTime())
}

func (i pickerItem) FilterValue() string {
	if i.action != pickClip {
		return i.Title()
	}
	return i.clip.Title + " " + i.clip.Format
}

// New creates a new TUI model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = project.New()
	}

	// Initialize components with custom delegate for styling
	delegate := newEventDelegate()
	events := list.New(nil, delegate, 0, 0)
	events.Title = theme.Name()
	events.SetShowStatusBar(true)
	events.SetShowHelp(false)
	events.SetFilteringEnabled(false)
	events.DisableQuitKeybindings()

	picker := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	picker.Title = "Pick a sound"
	picker.SetShowStatusBar(false)
	picker.SetShowHelp(false)
	picker.DisableQuitKeybindings()

	fp := filepicker.New()
	fp.AllowedTypes = model.AllowedExtensions
	fp.AutoHeight = false

	searchInput := textinput.New()
	searchInput.Placeholder = "Search events..."
	searchInput.CharLimit = 100

	nameInput := textinput.New()
	nameInput.Placeholder = "Theme name"
	nameInput.CharLimit = 120

	commentInput := textinput.New()
	commentInput.Placeholder = "Theme comment"
	commentInput.CharLimit = 200

	pathInput := textinput.New()
	pathInput.CharLimit = 250

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	home, _ := os.UserHomeDir()

	m := Model{
		cfg:           opts.Config,
		store:         opts.Store,
		theme:         theme,
		preview:       opts.Preview,
		prober:        opts.Prober,
		recorder:      opts.Recorder,
		exporter:      opts.Exporter,
		notifier:      opts.Notifier,
		mode:          ModeEvents,
		events:        events,
		picker:        picker,
		filePicker:    fp,
		searchInput:   searchInput,
		nameInput:     nameInput,
		commentInput:  commentInput,
		pathInput:     pathInput,
		spinner:       sp,
		progress:      progress.New(progress.WithDefaultGradient()),
		lastImportDir: home,
		keys:          DefaultKeyMap(),
	}

	// Subscribe to library changes if available
	if opts.Store != nil {
		m.refreshCh = opts.Store.Subscribe()
	}

	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadTheme,
		m.watchForChanges,
	)
}

// loadTheme triggers the initial list build.
func (m Model) loadTheme() tea.Msg {
	return reloadMsg{}
}

// watchForChanges watches for library changes.
func (m Model) watchForChanges() tea.Msg {
	if m.refreshCh == nil {
		return nil
	}
	// Wait for a change event
	if _, ok := <-m.refreshCh; !ok {
		return nil
	}
	return refreshMsg{}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Update component sizes
		m.events.SetSize(msg.Width, msg.Height-2)
		m.picker.SetSize(msg.Width, msg.Height-2)
		m.viewport = viewport.New(msg.Width, msg.Height-4)
		m.viewport.YPosition = 2
		m.filePicker.Height = msg.Height - 4
		pw := msg.Width / 3
		if pw > 40 {
			pw = 40
		}
		if pw < 10 {
			pw = 10
		}
		m.progress.Width = pw

		return m, nil

	case reloadMsg:
		m.refreshLists()
		return m, m.preloadAssigned()

	case refreshMsg:
		m.refreshLists()
		return m, m.watchForChanges

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case previewStartedMsg:
		m.previewing = msg.path
		m.refreshLists()
		return m, waitPreviewDone(msg.path, msg.done)

	case previewDoneMsg:
		if m.previewing == msg.path {
			m.previewing = ""
			m.refreshLists()
		}
		return m, nil

	case importResultMsg:
		return m.handleImportResult(msg)

	case recordTickMsg:
		if m.mode != ModeRecord || m.recorder == nil || !m.recorder.Recording() {
			return m, nil
		}
		return m, recordTick()

	case exportProgressMsg:
		if msg.total > 0 {
			cmds = append(cmds, m.progress.SetPercent(float64(msg.n)/float64(msg.total)))
		}
		if m.exportCh != nil {
			cmds = append(cmds, waitExportEvent(m.exportCh))
		}
		return m, tea.Batch(cmds...)

	case exportDoneMsg:
		return m.handleExportDone(msg)

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd
	}

	// Update child components
	switch m.mode {
	case ModeEvents:
		var cmd tea.Cmd
		m.events, cmd = m.events.Update(msg)
		cmds = append(cmds, cmd)
	case ModePicker:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		cmds = append(cmds, cmd)
	case ModeImport:
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)
		cmds = append(cmds, cmd)
	case ModeDetail:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	case ModeSearch:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text entry modes consume printable keys, so global bindings apply
	// only outside them. Ctrl+c still works everywhere except while
	// recording, where it discards the capture instead.
	if msg.Type == tea.KeyCtrlC && m.mode != ModeRecord {
		return m.requestQuit()
	}

	switch m.mode {
	case ModeSearch:
		return m.handleSearchKey(msg)
	case ModeMetadata:
		return m.handleMetadataKey(msg)
	case ModePath:
		return m.handlePathKey(msg)
	case ModeRecord:
		return m.handleRecordKey(msg)
	case ModeConfirmQuit:
		return m.handleConfirmQuitKey(msg)
	}

	if m.busy != "" {
		// An export or install is running; ignore everything else.
		return m, nil
	}

	// Global keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.requestQuit()
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeEvents
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	// Mode-specific keys
	switch m.mode {
	case ModeEvents:
		return m.handleEventsKey(msg)
	case ModePicker:
		return m.handlePickerKey(msg)
	case ModeImport:
		return m.handleImportKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeEvents
		}
		return m, nil
	}

	return m, nil
}

// requestQuit quits, or asks first when the theme has unsaved changes.
func (m Model) requestQuit() (tea.Model, tea.Cmd) {
	if m.theme.Modified() && (m.cfg == nil || m.cfg.TUI.ConfirmQuit) {
		m.mode = ModeConfirmQuit
		return m, nil
	}
	return m, tea.Quit
}

// handleEventsKey handles keys in the event list.
func (m Model) handleEventsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.selectedEvent(); ok {
			return m.openPicker(item.event.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Preview):
		item, ok := m.selectedEvent()
		if !ok {
			return m, nil
		}
		path, _ := m.theme.Assigned(item.event.ID)
		return m.togglePreview(path)

	case key.Matches(msg, m.keys.Unassign):
		if item, ok := m.selectedEvent(); ok && item.assigned {
			if err := m.theme.Unassign(item.event.ID); err != nil {
				return m, statusError(err.Error())
			}
			m.refreshLists()
			return m, status("Cleared " + item.event.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Detail):
		return m.openDetail()

	case key.Matches(msg, m.keys.Metadata):
		return m.openMetadata()

	case key.Matches(msg, m.keys.Record):
		event := ""
		if item, ok := m.selectedEvent(); ok {
			event = item.event.ID
		}
		return m.startRecording(event)

	case key.Matches(msg, m.keys.Save):
		return m.saveTheme(false)

	case key.Matches(msg, m.keys.Export):
		return m.openPathPrompt(pathExport)

	case key.Matches(msg, m.keys.Install):
		return m.startInstall()

	case key.Matches(msg, m.keys.Search):
		// Reset search when entering search mode
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.refreshLists()
		m.mode = ModeSearch
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Back):
		// Esc clears an applied search filter
		if m.searchQuery != "" {
			m.searchQuery = ""
			m.searchInput.SetValue("")
			m.refreshLists()
		}
		return m, nil
	}

	// Pass to list
	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

// handlePickerKey handles keys in the sound picker.
func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Let the list's own filter consume keys while it is active.
	if m.picker.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeEvents
		m.pickerEvent = ""
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		item, ok := m.picker.SelectedItem().(pickerItem)
		if !ok {
			return m, nil
		}
		switch item.action {
		case pickUnset:
			event := m.pickerEvent
			m.mode = ModeEvents
			m.pickerEvent = ""
			if err := m.theme.Unassign(event); err != nil {
				return m, statusError(err.Error())
			}
			m.refreshLists()
			return m, status("Cleared " + event)
		case pickImport:
			return m.openImport()
		case pickRecord:
			return m.startRecording(m.pickerEvent)
		}
		event := m.pickerEvent
		m.mode = ModeEvents
		m.pickerEvent = ""
		if err := m.theme.Assign(event, item.clip.Path); err != nil {
			return m, statusError(err.Error())
		}
		m.refreshLists()
		return m, status(fmt.Sprintf("Assigned %q to %s", item.clip.Title, event))

	case key.Matches(msg, m.keys.Preview):
		if item, ok := m.picker.SelectedItem().(pickerItem); ok && item.action == pickClip {
			return m.togglePreview(item.clip.Path)
		}
		return m, nil
	}

	// Pass to list
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// handleImportKey handles keys in the file picker. Backspace stays with
// the component, it navigates up a directory.
func (m Model) handleImportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		m.mode = ModePicker
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.lastImportDir = m.filePicker.CurrentDirectory
		event := m.pickerEvent
		m.mode = ModeEvents
		m.pickerEvent = ""
		return m, tea.Batch(cmd, m.importFile(path, event, false))
	}
	if didSelect, path := m.filePicker.DidSelectDisabledFile(msg); didSelect {
		return m, tea.Batch(cmd, statusError(filepath.Base(path)+" is not an audio file"))
	}

	return m, cmd
}

// handleDetailKey handles keys in detail mode.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.mode = ModeEvents
		return m, nil
	}

	// Pass to viewport
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleSearchKey handles keys in search mode.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		// Esc exits search mode and clears the filter
		m.mode = ModeEvents
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.refreshLists()
		return m, nil

	case tea.KeyEnter:
		// Enter keeps the filter applied and returns to the list
		m.mode = ModeEvents
		m.searchInput.Blur()
		return m, nil

	case tea.KeyUp, tea.KeyDown:
		// Allow navigating the list while searching
		var cmd tea.Cmd
		m.events, cmd = m.events.Update(msg)
		return m, cmd
	}

	// Pass to text input
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Live filtering: update search query and rebuild list on each keystroke
	m.searchQuery = m.searchInput.Value()
	m.refreshLists()

	return m, cmd
}

// handleMetadataKey handles keys in the name/comment form.
func (m Model) handleMetadataKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeEvents
		return m, nil

	case tea.KeyEnter:
		m.theme.SetName(m.nameInput.Value())
		m.theme.SetComment(m.commentInput.Value())
		m.mode = ModeEvents
		m.refreshLists()
		return m, status("Metadata updated")

	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.metaFocus = 1 - m.metaFocus
		if m.metaFocus == 0 {
			m.nameInput.Focus()
			m.commentInput.Blur()
		} else {
			m.nameInput.Blur()
			m.commentInput.Focus()
		}
		return m, textinput.Blink
	}

	// Pass to the focused input
	var cmd tea.Cmd
	if m.metaFocus == 0 {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.commentInput, cmd = m.commentInput.Update(msg)
	}
	return m, cmd
}

// handlePathKey handles keys in the path prompt.
func (m Model) handlePathKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.pathInput.Blur()
		m.mode = ModeEvents
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.pathInput.Value())
		if value == "" {
			return m, statusError("Enter a path")
		}
		m.pathInput.Blur()
		switch m.pathPurpose {
		case pathExport:
			m.mode = ModeEvents
			return m.startExport(value)
		case pathSaveQuit:
			if err := m.theme.Save(value); err != nil {
				m.mode = ModeEvents
				return m, statusError("Save failed: " + err.Error())
			}
			return m, tea.Quit
		default:
			m.mode = ModeEvents
			if err := m.theme.Save(value); err != nil {
				return m, statusError("Save failed: " + err.Error())
			}
			m.refreshLists()
			return m, status("Saved " + value)
		}
	}

	// Pass to text input
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

// handleRecordKey handles keys while recording.
func (m Model) handleRecordKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		path, err := m.recorder.Stop()
		event := m.recordFor
		m.mode = ModeEvents
		m.recordFor, m.recordPath = "", ""
		if err != nil {
			return m, statusError("Recording failed: " + err.Error())
		}
		return m, m.importFile(path, event, true)

	case tea.KeyEsc, tea.KeyCtrlC:
		_, _ = m.recorder.Stop()
		if m.recordPath != "" {
			_ = os.Remove(m.recordPath)
		}
		m.mode = ModeEvents
		m.recordFor, m.recordPath = "", ""
		return m, status("Recording discarded")
	}
	return m, nil
}

// handleConfirmQuitKey handles the save/discard/cancel prompt.
func (m Model) handleConfirmQuitKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "s":
		return m.saveTheme(true)
	case "d":
		return m, tea.Quit
	case "esc", "c", "n":
		m.mode = ModeEvents
		return m, nil
	}
	return m, nil
}

// handleImportResult applies a finished import or recording.
func (m Model) handleImportResult(msg importResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, statusError("Import failed: " + msg.err.Error())
	}
	text := "Imported " + msg.clip.Title
	if msg.event != "" {
		if err := m.theme.Assign(msg.event, msg.clip.Path); err != nil {
			return m, statusError(err.Error())
		}
		text = fmt.Sprintf("Assigned %q to %s", msg.clip.Title, msg.event)
	}
	m.refreshLists()
	return m, status(text)
}

// handleExportDone finishes an export or install run.
func (m Model) handleExportDone(msg exportDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = ""
	m.exportCh = nil
	verb := "Export"
	if msg.installed {
		verb = "Install"
	}
	if msg.err != nil {
		return m, statusError(verb + " failed: " + msg.err.Error())
	}
	if msg.installed {
		return m, tea.Batch(
			status("Installed to "+msg.dest),
			m.notifyCmd("Theme installed", m.theme.Name()+" is ready at "+msg.dest),
		)
	}
	return m, tea.Batch(
		status("Exported to "+msg.dest),
		m.notifyCmd("Theme exported", m.theme.Name()+" was written to "+msg.dest),
	)
}

// selectedEvent returns the currently selected event item, if any.
func (m Model) selectedEvent() (eventItem, bool) {
	item, ok := m.events.SelectedItem().(eventItem)
	return item, ok
}

// openPicker switches to the sound picker for the given event.
func (m Model) openPicker(event string) (tea.Model, tea.Cmd) {
	m.pickerEvent = event
	m.picker.SetItems(m.buildPickerItems())
	m.picker.Select(0)
	m.picker.Title = "Sound for " + event
	m.mode = ModePicker
	return m, nil
}

// openImport switches to the file picker, starting in the last used
// directory.
func (m Model) openImport() (tea.Model, tea.Cmd) {
	if m.lastImportDir != "" {
		m.filePicker.CurrentDirectory = m.lastImportDir
	}
	m.mode = ModeImport
	return m, m.filePicker.Init()
}

// openDetail shows the detail view for the selected event.
func (m Model) openDetail() (tea.Model, tea.Cmd) {
	item, ok := m.selectedEvent()
	if !ok {
		return m, nil
	}
	m.viewport.SetContent(m.renderDetail(item))
	m.viewport.GotoTop()
	m.mode = ModeDetail
	return m, nil
}

// openMetadata switches to the name/comment form.
func (m Model) openMetadata() (tea.Model, tea.Cmd) {
	m.nameInput.SetValue(m.theme.Name())
	m.commentInput.SetValue(m.theme.Comment())
	m.metaFocus = 0
	m.nameInput.Focus()
	m.commentInput.Blur()
	m.mode = ModeMetadata
	return m, textinput.Blink
}

// openPathPrompt asks for a save or export path.
func (m Model) openPathPrompt(purpose pathPurpose) (tea.Model, tea.Cmd) {
	m.pathPurpose = purpose
	m.pathInput.SetValue(m.defaultPathFor(purpose))
	m.pathInput.CursorEnd()
	m.pathInput.Focus()
	m.mode = ModePath
	return m, textinput.Blink
}

// defaultPathFor suggests a path for the prompt, derived from the theme
// name or the last save location.
func (m Model) defaultPathFor(purpose pathPurpose) string {
	if purpose == pathExport {
		if slug, err := project.Slug(m.theme.Name()); err == nil {
			return "./" + slug
		}
		return "./theme"
	}
	if m.theme.Path() != "" {
		return m.theme.Path()
	}
	if slug, err := project.Slug(m.theme.Name()); err == nil {
		return "./" + slug + ".json"
	}
	return "./theme.json"
}

// saveTheme saves to the remembered path, or prompts for one first.
func (m Model) saveTheme(quitAfter bool) (tea.Model, tea.Cmd) {
	if m.theme.Path() == "" {
		purpose := pathSave
		if quitAfter {
			purpose = pathSaveQuit
		}
		return m.openPathPrompt(purpose)
	}
	if err := m.theme.Save(""); err != nil {
		return m, statusError("Save failed: " + err.Error())
	}
	if quitAfter {
		return m, tea.Quit
	}
	m.refreshLists()
	return m, status("Saved " + m.theme.Path())
}

// startRecording begins capturing into a timestamped file under the
// recordings directory. event may be empty to record without assigning.
func (m Model) startRecording(event string) (tea.Model, tea.Cmd) {
	if m.recorder == nil {
		return m, statusError("Recording is not available")
	}
	if err := config.EnsureRecordingsDir(); err != nil {
		return m, statusError("Cannot create recordings dir: " + err.Error())
	}
	name := "rec-" + time.Now().Format("20060102-150405") + ".wav"
	path := filepath.Join(config.RecordingsPath(), name)
	if err := m.recorder.Start(path); err != nil {
		return m, statusError("Recording failed: " + err.Error())
	}
	m.recordPath = path
	m.recordFor = event
	m.pickerEvent = ""
	m.mode = ModeRecord
	return m, recordTick()
}

// togglePreview stops the running preview, and starts the given path
// unless it was the one playing.
func (m Model) togglePreview(path string) (tea.Model, tea.Cmd) {
	if m.preview == nil {
		return m, statusError("Preview is not available")
	}
	if m.previewing != "" {
		samePath := m.previewing == path
		m.preview.Stop()
		m.previewing = ""
		m.refreshLists()
		if samePath {
			return m, nil
		}
	}
	if path == "" {
		return m, statusError("No sound assigned")
	}
	return m, m.startPreview(path)
}

// refreshLists rebuilds the list items and the title bar.
func (m *Model) refreshLists() {
	m.events.SetItems(m.buildEventItems())
	if m.mode == ModePicker {
		m.picker.SetItems(m.buildPickerItems())
	}
	title := m.theme.Name()
	if m.theme.Modified() {
		title += " (unsaved)"
	}
	m.events.Title = title
}

// buildEventItems creates list items for the event catalog, honoring the
// active search filter.
func (m Model) buildEventItems() []list.Item {
	events := catalog.All()
	if m.searchQuery != "" {
		query := strings.ToLower(m.searchQuery)
		var filtered []catalog.Event
		for _, ev := range events {
			if strings.Contains(strings.ToLower(ev.ID), query) ||
				strings.Contains(strings.ToLower(ev.Category), query) ||
				strings.Contains(strings.ToLower(ev.Description), query) {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}

	showCategory := m.cfg == nil || m.cfg.TUI.ShowCategories

	items := make([]list.Item, len(events))
	for i, ev := range events {
		it := eventItem{event: ev, showCategory: showCategory}
		if path, ok := m.theme.Assigned(ev.ID); ok {
			it.assigned = true
			it.clipTitle = m.clipTitle(path)
			it.playing = m.previewing == path
		}
		items[i] = it
	}
	return items
}

// buildPickerItems creates picker entries: the special actions first,
// then every library clip.
func (m Model) buildPickerItems() []list.Item {
	items := []list.Item{
		pickerItem{action: pickUnset},
		pickerItem{action: pickImport},
		pickerItem{action: pickRecord},
	}
	if m.store != nil {
		for _, c := range m.store.All() {
			items = append(items, pickerItem{action: pickClip, clip: c})
		}
	}
	return items
}

// clipTitle resolves a display title for an assigned path.
func (m Model) clipTitle(path string) string {
	if m.store != nil {
		if c := m.store.GetByPath(path); c != nil {
			return c.Title
		}
	}
	return model.TitleFromPath(path)
}

// Run starts the TUI and blocks until the user quits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err := p.Run()

	// Stop any preview still playing on exit
	if opts.Preview != nil {
		opts.Preview.Stop()
	}

	return err
}
