package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"soundforge/internal/audio"
	"soundforge/internal/catalog"
)

var previewCmd = &cobra.Command{
	Use:   "preview <event|clip|path>",
	Short: "Play a sound",
	Long: `Play an event's assigned sound, a library clip, or an audio file
through the preview engine.

Event names need --project. Formats the native decoders cannot read
are piped through ffmpeg.

Examples:
  # The clip assigned to an event
  soundforge preview bell --project mytheme.json

  # A library clip by title
  soundforge preview "Door Chime"

  # Any audio file
  soundforge preview ~/sounds/chime.oga`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	path, err := resolvePreviewPath(args[0])
	if err != nil {
		return err
	}

	mgr := audio.NewManager(getConfig(), logger)
	mgr.SetPipeDecoder(newTranscoder())
	defer mgr.Close()

	done, err := mgr.Preview(path)
	if err != nil {
		return fmt.Errorf("failed to play %s: %w", path, err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	select {
	case <-done:
	case <-ctx.Done():
		mgr.Stop()
	}
	return nil
}

// resolvePreviewPath resolves the argument as an event first, then as a
// library clip, then as a file path.
func resolvePreviewPath(input string) (string, error) {
	if catalog.Exists(input) {
		t, err := loadProject()
		if err != nil {
			return "", fmt.Errorf("%s is an event; %w", input, err)
		}
		path, ok := t.Assigned(input)
		if !ok {
			return "", fmt.Errorf("no sound assigned to %s", input)
		}
		return path, nil
	}
	return resolveClipPath(input)
}
