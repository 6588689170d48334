package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"soundforge/internal/ffmpeg"
	"soundforge/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import <path>...",
	Short: "Add audio files to the library",
	Long: `Probe audio files with ffprobe and add them to the clip library.

Files whose content is already in the library are skipped, as are files
whose content was previously removed.

Examples:
  soundforge import ~/sounds/chime.oga
  soundforge import ~/sounds/*.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	prober := newProber()

	added := 0
	for _, arg := range args {
		c, ok, err := importOne(ctx, prober, arg, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipped %s: %v\n", arg, err)
			continue
		}
		if !ok {
			fmt.Printf("Already in library: %s\n", arg)
			continue
		}

		added++
		fmt.Printf("Imported %s (%s, %s)\n", c.Title, c.Format, c.DisplayDuration())
	}

	fmt.Printf("%d of %d files added\n", added, len(args))
	return nil
}

// importOne probes one file and adds it to the library. A false result
// with nil error means the content was already present or tombstoned.
func importOne(ctx context.Context, prober *ffmpeg.Prober, path string, recorded bool) (*model.Clip, bool, error) {
	if !model.IsAudioPath(path) {
		return nil, false, fmt.Errorf("unsupported extension (have: %s)",
			strings.Join(model.AllowedExtensions, ", "))
	}

	c, err := model.NewClip(path)
	if err != nil {
		return nil, false, err
	}
	c.Recorded = recorded
	if err := c.EnsureContentHash(); err != nil {
		return nil, false, err
	}

	if info, err := prober.Probe(ctx, c.Path); err != nil {
		logger.Warn("probe failed", "path", c.Path, "error", err)
	} else {
		c.Duration = info.Duration
		c.SampleRate = info.SampleRate
		c.Channels = info.Channels
		c.Codec = info.Codec
		if info.SizeBytes > 0 {
			c.SizeBytes = info.SizeBytes
		}
	}

	added, err := getStore().Add(*c)
	if err != nil {
		return nil, false, err
	}
	return c, added, nil
}
