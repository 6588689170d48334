package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"soundforge/internal/model"
)

// View renders the screen for the current mode.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModePicker:
		return m.viewPicker()
	case ModeImport:
		return m.viewImport()
	case ModeRecord:
		return m.viewRecord()
	case ModeMetadata:
		return m.viewMetadata()
	case ModeDetail:
		return m.viewDetail()
	case ModeSearch:
		return m.viewSearch()
	case ModePath:
		return m.viewPath()
	case ModeConfirmQuit:
		return m.viewConfirmQuit()
	case ModeHelp:
		return m.viewHelp()
	default:
		return m.viewEvents()
	}
}

func (m Model) viewEvents() string {
	return m.events.View() + "\n" + m.statusLine("events")
}

func (m Model) viewPicker() string {
	return m.picker.View() + "\n" + m.statusLine("picker")
}

func (m Model) viewImport() string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1)

	title := "Import sound"
	if m.pickerEvent != "" {
		title = "Import sound for " + m.pickerEvent
	}

	return headerStyle.Render(title) + "\n" + m.filePicker.View() + "\n" + m.statusLine("import")
}

func (m Model) viewRecord() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("9"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	var elapsed time.Duration
	if m.recorder != nil {
		elapsed = m.recorder.Elapsed()
	}

	s := titleStyle.Render("● Recording") + "  " + formatElapsed(elapsed) + "\n\n"
	if m.recordFor != "" {
		s += labelStyle.Render("Event: ") + m.recordFor + "\n"
	}
	s += labelStyle.Render("File: ") + m.recordPath + "\n"
	if m.cfg != nil && m.cfg.Record.MaxSeconds > 0 {
		s += labelStyle.Render("Limit: ") + fmt.Sprintf("%ds", m.cfg.Record.MaxSeconds) + "\n"
	}

	return s + "\n" + m.buildKeybindBar(m.width, "record")
}

func (m Model) viewMetadata() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	s := titleStyle.Render("Theme metadata") + "\n\n"
	s += labelStyle.Render("Name") + "\n"
	s += m.nameInput.View() + "\n\n"
	s += labelStyle.Render("Comment") + "\n"
	s += m.commentInput.View() + "\n\n"

	return s + m.buildKeybindBar(m.width, "metadata")
}

func (m Model) viewDetail() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Render("Event Detail")

	parts := []string{header, m.viewport.View(), m.buildKeybindBar(m.width, "detail")}
	return strings.Join(parts, "\n")
}

func (m Model) viewSearch() string {
	count := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(fmt.Sprintf("(%d matches)", len(m.events.Items())))

	// Search bar on top, filtered list under it
	bar := "Search: " + m.searchInput.View() + " " + count

	return bar + "\n" + m.events.View() + "\n" + m.buildKeybindBar(m.width, "search")
}

func (m Model) viewPath() string {
	prompt := "Save theme as: "
	if m.pathPurpose == pathExport {
		prompt = "Export to directory: "
	}

	return prompt + m.pathInput.View() + "\n" + m.buildKeybindBar(m.width, "path")
}

func (m Model) viewConfirmQuit() string {
	warnStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("11"))

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	s := warnStyle.Render("Unsaved changes") + "\n\n"
	s += "The theme has changes that have not been saved.\n\n"
	s += keyStyle.Render("  s") + "    save and quit\n"
	s += keyStyle.Render("  d") + "    discard and quit\n"
	s += keyStyle.Render("  esc") + "  keep editing\n"

	return s
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	row := func(key, desc string) string {
		pad := 13 - lipgloss.Width(key)
		if pad < 1 {
			pad = 1
		}
		return keyStyle.Render("  "+key) + strings.Repeat(" ", pad) + desc + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keyboard Shortcuts") + "\n\n")

	b.WriteString(sectionStyle.Render("Navigation") + "\n")
	b.WriteString(row("j/k, ↑/↓", "Move up/down"))
	b.WriteString(row("g/G", "Go to top/bottom"))
	b.WriteString(row("pgup/pgdn", "Page up/down"))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Theme") + "\n")
	b.WriteString(row("enter", "Pick a sound for the event"))
	b.WriteString(row("space", "Preview the event's sound (again to stop)"))
	b.WriteString(row("u", "Unset the event's sound"))
	b.WriteString(row("r", "Record a new sound"))
	b.WriteString(row("i", "Event and clip details"))
	b.WriteString(row("m", "Edit theme name and comment"))
	b.WriteString(row("/", "Search events"))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Output") + "\n")
	b.WriteString(row("s", "Save the theme project"))
	b.WriteString(row("e", "Export to a directory"))
	b.WriteString(row("I", "Install into your sounds directory"))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("General") + "\n")
	b.WriteString(row("?", "Toggle this help"))
	b.WriteString(row("esc", "Back / Cancel"))
	b.WriteString(row("q", "Quit"))

	b.WriteString("\n" + sectionStyle.Render("Press ? or esc to return"))

	return b.String()
}

// statusLine renders the bottom line: a running task, a status message,
// or the keybind bar for the mode.
func (m Model) statusLine(mode string) string {
	if m.busy != "" {
		return m.spinner.View() + " " + m.busy + " " + m.progress.View()
	}
	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		return statusStyle.Render(m.statusMsg)
	}
	return m.buildKeybindBar(m.width, mode)
}

// renderDetail renders the detail view for an event and its assignment.
func (m Model) renderDetail(item eventItem) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	var s string
	s += headerStyle.Render(item.event.ID) + "\n\n"

	s += labelStyle.Render("Category: ") + item.event.Category + "\n"
	s += labelStyle.Render("Purpose: ") + item.event.Description + "\n"

	path, ok := m.theme.Assigned(item.event.ID)
	if !ok {
		s += "\n" + labelStyle.Render("No sound assigned.") + "\n"
		return s
	}

	s += "\n" + labelStyle.Render("File: ") + path + "\n"

	var clip *model.Clip
	if m.store != nil {
		clip = m.store.GetByPath(path)
	}
	if clip == nil {
		s += labelStyle.Render("Not in the library.") + "\n"
		return s
	}

	s += labelStyle.Render("Title: ") + clip.Title + "\n"
	s += labelStyle.Render("Format: ") + clip.Format + "\n"
	if clip.Duration > 0 {
		s += labelStyle.Render("Duration: ") + clip.DisplayDuration() + "\n"
	}
	if clip.SampleRate > 0 {
		s += labelStyle.Render("Sample rate: ") + fmt.Sprintf("%d Hz", clip.SampleRate) + "\n"
	}
	if clip.Channels > 0 {
		s += labelStyle.Render("Channels: ") + fmt.Sprintf("%d", clip.Channels) + "\n"
	}
	if clip.Codec != "" {
		s += labelStyle.Render("Codec: ") + clip.Codec + "\n"
	}
	if clip.SizeBytes > 0 {
		s += labelStyle.Render("Size: ") + clip.DisplaySize() + "\n"
	}
	s += labelStyle.Render("Imported: ") + clip.RelativeTime() + "\n"
	if clip.Recorded {
		s += labelStyle.Render("Source: ") + "recorded in soundforge\n"
	}

	return s
}

// keybind is one entry in the bottom hint bar.
type keybind struct {
	key  string
	desc string
}

// keybindsFor lists the hints for a mode, most important first.
func keybindsFor(mode string) []keybind {
	switch mode {
	case "events":
		return []keybind{
			{"q", "quit"},
			{"enter", "pick"},
			{"space", "preview"},
			{"?", "help"},
			{"/", "search"},
			{"u", "unset"},
			{"r", "record"},
			{"s", "save"},
			{"e", "export"},
			{"I", "install"},
			{"i", "details"},
			{"m", "metadata"},
		}
	case "picker":
		return []keybind{
			{"enter", "assign"},
			{"esc", "back"},
			{"space", "preview"},
			{"/", "filter"},
		}
	case "import":
		return []keybind{
			{"enter", "select"},
			{"esc", "back"},
			{"backspace", "up dir"},
		}
	case "record":
		return []keybind{
			{"enter", "keep"},
			{"esc", "discard"},
		}
	case "metadata":
		return []keybind{
			{"enter", "apply"},
			{"esc", "cancel"},
			{"tab", "next field"},
		}
	case "detail":
		return []keybind{
			{"esc", "back"},
			{"j/k", "scroll"},
			{"q", "quit"},
		}
	case "search":
		return []keybind{
			{"enter", "apply"},
			{"esc", "clear"},
			{"↑/↓", "navigate"},
		}
	case "path":
		return []keybind{
			{"enter", "confirm"},
			{"esc", "cancel"},
		}
	default:
		return nil
	}
}

// buildKeybindBar renders the hint bar for mode, keeping entries in
// order until width runs out.
func (m Model) buildKeybindBar(width int, mode string) string {
	binds := keybindsFor(mode)

	// Work out how many entries fit, measuring unstyled text
	const sep = "  "
	fit, used := 0, 0
	for _, b := range binds {
		n := len(b.key) + 1 + len(b.desc)
		if fit > 0 {
			n += len(sep)
		}
		if width > 0 && used+n > width {
			break
		}
		used += n
		fit++
	}

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	var bar strings.Builder
	for i, b := range binds[:fit] {
		if i > 0 {
			bar.WriteString(sep)
		}
		bar.WriteString(keyStyle.Render(b.key))
		bar.WriteByte(' ')
		bar.WriteString(b.desc)
	}

	return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(bar.String())
}

// stripANSI drops ANSI escape sequences, for measuring rendered text.
func stripANSI(s string) string {
	out := make([]byte, 0, len(s))
	esc := false
	for i := 0; i < len(s); i++ {
		switch {
		case esc:
			if s[i] == 'm' {
				esc = false
			}
		case s[i] == '\x1b':
			esc = true
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

// formatElapsed renders an elapsed duration as mm:ss.t.
func formatElapsed(d time.Duration) string {
	tenths := d.Milliseconds() / 100
	return fmt.Sprintf("%02d:%02d.%d", tenths/600, (tenths/10)%60, tenths%10)
}
