package main

import (
	"context"

	"github.com/spf13/cobra"

	"soundforge/internal/audio"
	"soundforge/internal/config"
	"soundforge/internal/library"
	"soundforge/internal/notify"
	"soundforge/internal/project"
	"soundforge/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive theme builder",
	Long: `Launch the interactive terminal interface for building a sound theme.

The TUI provides:
  - The full freedesktop event catalog with assignment state
  - A per-event picker over the clip library, plus import and record
  - Previews through the speaker engine
  - Async export and install with progress

Key bindings:
  ↑/↓         Navigate events
  enter       Pick a sound for the event
  space       Preview the assigned sound
  u           Unset the assignment
  r           Record a new clip
  /           Search events
  m           Edit theme name and comment
  i           Event details
  s           Save the project
  e           Export the theme
  I           Install the theme
  ?           Show help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	theme := project.New()
	if globalOpts.projectFile != "" {
		loaded, err := project.Load(globalOpts.projectFile)
		if err != nil {
			return err
		}
		theme = loaded
		registerThemeSounds(cmd.Context(), theme)
	}

	preview := audio.NewManager(getConfig(), logger)
	preview.SetPipeDecoder(newTranscoder())
	defer preview.Close()

	// Watch previewed files so edits on disk invalidate the cache
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := preview.Start(ctx); err != nil {
		logger.Warn("failed to start preview watcher", "error", err)
	}

	// Pick up library changes made by other soundforge processes
	if fw, err := library.NewFileWatcher(getStore(), config.LibraryPath()); err != nil {
		logger.Warn("failed to watch library file", "error", err)
	} else if err := fw.Start(); err != nil {
		logger.Warn("failed to watch library file", "error", err)
	} else {
		defer func() { _ = fw.Stop() }()
	}

	exp, err := newExporter("")
	if err != nil {
		return err
	}

	notifier := notify.New(cfg.Notify.Enabled, logger)
	defer func() { _ = notifier.Close() }()

	return tui.Run(tui.Options{
		Config:   getConfig(),
		Store:    getStore(),
		Theme:    theme,
		Preview:  preview,
		Prober:   newProber(),
		Recorder: newRecorder(),
		Exporter: exp,
		Notifier: notifier,
	})
}

// registerThemeSounds adds the sounds a loaded project references to the
// clip library, so the picker offers them alongside everything else.
func registerThemeSounds(ctx context.Context, theme *project.Theme) {
	prober := newProber()
	for _, path := range theme.ImportedPaths() {
		if getStore().GetByPath(path) != nil {
			continue
		}
		if _, _, err := importOne(ctx, prober, path, false); err != nil {
			logger.Warn("failed to register project sound", "path", path, "error", err)
		}
	}
}
