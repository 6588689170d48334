package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"soundforge/internal/config"
	"soundforge/internal/exporter"
	"soundforge/internal/ffmpeg"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the tools and data soundforge depends on",
	Long: `Check that ffmpeg and ffprobe are installed, that the config and data
directories are usable, and that the library loads.

Exits non-zero when a check fails.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	problems := 0

	check := func(name, detail string, err error) {
		state := "ok"
		if err != nil {
			problems++
			state = "FAIL"
			detail = err.Error()
		}
		fmt.Printf("%-16s %-5s %s\n", name, state, detail)
	}

	check("ffmpeg", cfg.Ffmpeg.Binary, ffmpeg.Installed(cfg.Ffmpeg.Binary))
	check("ffprobe", cfg.Ffmpeg.ProbeBinary, ffmpeg.Installed(cfg.Ffmpeg.ProbeBinary))
	check("record backend", ffmpeg.ResolveBackend(cfg.Record.Backend), nil)

	configPath := globalOpts.configPath
	if configPath == "" {
		configPath = config.ConfigPath()
	}
	check("config", configPath, nil)
	check("data dir", config.DataPath(), config.EnsureDataDir())

	if _, err := os.Stat(config.LibraryPath()); errors.Is(err, fs.ErrNotExist) {
		check("library", "empty (no file yet)", nil)
	} else if err != nil {
		check("library", "", err)
	} else {
		s := getStore()
		check("library", fmt.Sprintf("%d clips, %d removed", s.Count(), len(s.Tombstones())), nil)
	}

	for _, system := range []bool{false, true} {
		label := "user themes"
		if system {
			label = "system themes"
		}

		root := config.SoundsRoot(system)
		themes, err := exporter.Installed(root)
		if err != nil {
			check(label, "", err)
			continue
		}
		check(label, fmt.Sprintf("%d under %s", len(themes), root), nil)
	}

	if problems > 0 {
		return fmt.Errorf("%d problem(s) found", problems)
	}

	fmt.Println("\nAll checks passed")
	return nil
}
