package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"soundforge/internal/catalog"
	"soundforge/internal/config"
	"soundforge/internal/ffmpeg"
	"soundforge/internal/project"
)

var recordOpts struct {
	seconds int
	assign  string
	out     string
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a clip from the microphone",
	Long: `Capture audio from the default input device via ffmpeg and add the
recording to the library.

The capture backend (pulse, alsa) comes from the config unless it is
set to auto. Recording stops at the limit or on ctrl+c.

Examples:
  # Record up to the configured limit
  soundforge record

  # Five seconds, straight onto an event
  soundforge record --seconds 5 --assign bell --project mytheme.json`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().IntVar(&recordOpts.seconds, "seconds", 0,
		"Recording length in seconds (0 = configured limit)")
	recordCmd.Flags().StringVar(&recordOpts.assign, "assign", "",
		"Assign the recording to this event (requires --project)")
	recordCmd.Flags().StringVar(&recordOpts.out, "out", "",
		"Write the recording here instead of the recordings directory")
}

func runRecord(cmd *cobra.Command, args []string) error {
	if err := ffmpeg.Installed(cfg.Ffmpeg.Binary); err != nil {
		return err
	}

	// Validate the target before spending time on a capture
	var t *project.Theme
	if recordOpts.assign != "" {
		if !catalog.Exists(recordOpts.assign) {
			return fmt.Errorf("unknown event: %s", recordOpts.assign)
		}
		var err error
		t, err = loadProject()
		if err != nil {
			return err
		}
	}

	path := recordOpts.out
	if path == "" {
		if err := config.EnsureRecordingsDir(); err != nil {
			return err
		}
		name := "rec-" + time.Now().Format("20060102-150405") + ".wav"
		path = filepath.Join(config.RecordingsPath(), name)
	}

	backend := ffmpeg.ResolveBackend(cfg.Record.Backend)
	fmt.Printf("Recording to %s (%s), ctrl+c to stop...\n", path, backend)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	limit := time.Duration(recordOpts.seconds) * time.Second
	captured, err := newRecorder().Record(ctx, path, limit)
	if err != nil {
		return err
	}

	c, _, err := importOne(cmd.Context(), newProber(), captured, true)
	if err != nil {
		return fmt.Errorf("recording captured to %s but not added: %w", captured, err)
	}
	fmt.Printf("Recorded %s (%s)\n", captured, c.DisplayDuration())

	if recordOpts.assign != "" {
		if err := t.Assign(recordOpts.assign, captured); err != nil {
			return err
		}
		if err := t.Save(""); err != nil {
			return err
		}
		fmt.Printf("Assigned to %s\n", recordOpts.assign)
	}
	return nil
}
