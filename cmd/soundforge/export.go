package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"soundforge/internal/catalog"
	"soundforge/internal/exporter"
	"soundforge/internal/ffmpeg"
	"soundforge/internal/notify"
)

var exportOpts struct {
	profile string
}

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Export the theme to a directory",
	Long: `Export the theme as an XDG sound theme directory: an index.theme
file plus the sounds under stereo/.

The copy profile keeps each sound's source format. The other profiles
transcode through ffmpeg.

Examples:
  soundforge export ./mytheme --project mytheme.json
  soundforge export ./mytheme --profile ogg --project mytheme.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportOpts.profile, "profile", "",
		"Encode profile ("+profileList()+"; default from config)")
}

func runExport(cmd *cobra.Command, args []string) error {
	t, err := loadProject()
	if err != nil {
		return err
	}

	exp, err := newExporter(exportOpts.profile)
	if err != nil {
		return err
	}

	if err := exp.Export(cmd.Context(), t, args[0], exportProgress); err != nil {
		return err
	}

	fmt.Printf("Exported %q to %s\n", t.Name(), args[0])
	notifyDone(fmt.Sprintf("Exported %q", t.Name()), args[0])
	return nil
}

// exportProgress prints one line per staged event.
func exportProgress(event string, n, total int) {
	fmt.Printf("  [%d/%d] %s\n", n, total, event)
}

// profileList names the selectable encode profiles for flag help.
func profileList() string {
	return exporter.ProfileCopy + ", " + strings.Join(ffmpeg.ProfileNames(), ", ")
}

// notifyDone fires a desktop notification for finished theme output.
func notifyDone(summary, body string) {
	n := notify.New(cfg.Notify.Enabled, logger)
	defer func() { _ = n.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n.Send(ctx, summary, body, catalog.ExampleEvent)
}
