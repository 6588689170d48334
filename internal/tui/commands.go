package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"soundforge/internal/catalog"
	"soundforge/internal/exporter"
	"soundforge/internal/ffmpeg"
	"soundforge/internal/library"
	"soundforge/internal/model"
)

type reloadMsg struct{}

type refreshMsg struct{}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type previewStartedMsg struct {
	path string
	done <-chan struct{}
}

type previewDoneMsg struct {
	path string
}

type importResultMsg struct {
	clip  *model.Clip
	event string
	err   error
}

type recordTickMsg time.Time

type exportProgressMsg struct {
	event string
	n     int
	total int
}

type exportDoneMsg struct {
	dest      string
	installed bool
	err       error
}

// status returns a command that shows a status message.
func status(text string) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text}
	}
}

// statusError returns a command that shows an error status message.
func statusError(text string) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: true}
	}
}

// startPreview starts playback of the given path. Decoding can hit
// ffmpeg for foreign formats, so it runs off the update loop.
func (m Model) startPreview(path string) tea.Cmd {
	mgr := m.preview
	return func() tea.Msg {
		done, err := mgr.Preview(path)
		if err != nil {
			return statusMsg{text: "Preview failed: " + err.Error(), isErr: true}
		}
		return previewStartedMsg{path: path, done: done}
	}
}

// waitPreviewDone blocks until the running preview finishes.
func waitPreviewDone(path string, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return previewDoneMsg{path: path}
	}
}

// preloadAssigned warms the preview cache with every assigned clip.
func (m Model) preloadAssigned() tea.Cmd {
	if m.preview == nil {
		return nil
	}
	mgr := m.preview
	var paths []string
	for _, a := range m.theme.Assignments() {
		paths = append(paths, a.Path)
	}
	if len(paths) == 0 {
		return nil
	}
	return func() tea.Msg {
		mgr.PreloadAll(paths)
		return nil
	}
}

// importFile hashes, probes and adds the file to the library. The
// resulting message carries the event to assign, if any.
func (m Model) importFile(path, event string, recorded bool) tea.Cmd {
	store, prober := m.store, m.prober
	return func() tea.Msg {
		clip, err := importClip(context.Background(), store, prober, path, recorded)
		if err != nil {
			return importResultMsg{err: err}
		}
		return importResultMsg{clip: clip, event: event}
	}
}

// importClip builds a library clip for path. Duplicate content resolves
// to the already stored clip.
func importClip(ctx context.Context, store *library.Store, prober *ffmpeg.Prober, path string, recorded bool) (*model.Clip, error) {
	clip, err := model.NewClip(path)
	if err != nil {
		return nil, err
	}
	clip.Recorded = recorded
	if err := clip.EnsureContentHash(); err != nil {
		return nil, err
	}

	if prober != nil {
		if info, err := prober.Probe(ctx, path); err == nil {
			clip.Duration = info.Duration
			clip.SampleRate = info.SampleRate
			clip.Channels = info.Channels
			clip.Codec = info.Codec
			if info.SizeBytes > 0 {
				clip.SizeBytes = info.SizeBytes
			}
		}
	}

	if store != nil {
		added, err := store.Add(*clip)
		if err != nil {
			return nil, err
		}
		if !added {
			if existing := store.GetByPath(clip.Path); existing != nil {
				return existing, nil
			}
		}
	}
	return clip, nil
}

// recordTick drives the elapsed display while recording.
func recordTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return recordTickMsg(t)
	})
}

// startExport kicks off an asynchronous export to dest.
func (m Model) startExport(dest string) (tea.Model, tea.Cmd) {
	if m.exporter == nil {
		return m, statusError("Export is not available")
	}
	ch := make(chan exportProgressMsg, 8)
	m.exportCh = ch
	m.busy = "Exporting to " + dest
	return m, tea.Batch(
		m.spinner.Tick,
		m.progress.SetPercent(0),
		m.runExport(dest, ch),
		waitExportEvent(ch),
	)
}

// startInstall kicks off an asynchronous install into the user's sounds
// directory.
func (m Model) startInstall() (tea.Model, tea.Cmd) {
	if m.exporter == nil {
		return m, statusError("Install is not available")
	}
	ch := make(chan exportProgressMsg, 8)
	m.exportCh = ch
	m.busy = "Installing theme"
	return m, tea.Batch(
		m.spinner.Tick,
		m.progress.SetPercent(0),
		m.runInstall(ch),
		waitExportEvent(ch),
	)
}

// runExport performs the export and closes the progress channel when
// done. Key handling is gated while it runs, so the theme is not
// mutated concurrently.
func (m Model) runExport(dest string, ch chan<- exportProgressMsg) tea.Cmd {
	exp, theme := m.exporter, m.theme
	return func() tea.Msg {
		err := exp.Export(context.Background(), theme, dest, func(event string, n, total int) {
			ch <- exportProgressMsg{event: event, n: n, total: total}
		})
		close(ch)
		return exportDoneMsg{dest: dest, err: err}
	}
}

// runInstall performs the install and closes the progress channel when
// done.
func (m Model) runInstall(ch chan<- exportProgressMsg) tea.Cmd {
	exp, theme := m.exporter, m.theme
	return func() tea.Msg {
		dest, err := exp.Install(context.Background(), theme, exporter.InstallOptions{}, func(event string, n, total int) {
			ch <- exportProgressMsg{event: event, n: n, total: total}
		})
		close(ch)
		return exportDoneMsg{dest: dest, installed: true, err: err}
	}
}

// waitExportEvent relays one progress event from the running export.
// It is re-issued after each event until the channel closes.
func waitExportEvent(ch <-chan exportProgressMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// notifyCmd sends a desktop notification tagged with the theme's
// example sound event.
func (m Model) notifyCmd(summary, body string) tea.Cmd {
	if m.notifier == nil {
		return nil
	}
	n := m.notifier
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n.Send(ctx, summary, body, catalog.ExampleEvent)
		return nil
	}
}
