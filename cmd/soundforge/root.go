// Package main provides the CLI entrypoint for soundforge.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"soundforge/internal/config"
	"soundforge/internal/exporter"
	"soundforge/internal/ffmpeg"
	"soundforge/internal/library"
	"soundforge/internal/output"
	"soundforge/internal/project"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose     bool
		projectFile string
		configPath  string
	}
	logger *slog.Logger

	// clipStore is the global library instance
	clipStore     *library.Store
	tombstoneFile *library.TombstoneFile
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "soundforge",
	Short: "Sound theme builder for Linux desktops",
	Long: `soundforge builds XDG sound themes for Linux desktops.

Collect audio clips into a shared library, assign them to the standard
freedesktop sound events, preview the result, and export or install the
finished theme.

Running soundforge without a subcommand launches the interactive TUI.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// The clip library is always on
		if err := config.EnsureDataDir(); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		persistence, err := library.NewJSONLPersistence(config.LibraryPath())
		if err != nil {
			return fmt.Errorf("failed to initialize library persistence: %w", err)
		}

		clipStore = library.NewStore(persistence)

		// Tombstones keep removed clips from coming back on re-import
		tombstoneFile = library.NewTombstoneFile(config.TombstonePath())
		tombstones, err := tombstoneFile.Load()
		if err != nil {
			logger.Warn("failed to load tombstones", "error", err)
		} else if len(tombstones) > 0 {
			clipStore.LoadTombstones(tombstones)
		}

		if err := clipStore.Hydrate(); err != nil {
			logger.Warn("failed to hydrate library from disk", "error", err)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if tombstoneFile != nil && clipStore != nil {
			tombstones := clipStore.Tombstones()
			if len(tombstones) > 0 {
				if err := tombstoneFile.Save(tombstones); err != nil {
					logger.Warn("failed to save tombstones", "error", err)
				}
			}
		}

		if clipStore != nil {
			return clipStore.Close()
		}
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.projectFile, "project", "",
		"Path to a project file")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/soundforge/config.toml)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// getStore returns the global library instance.
func getStore() *library.Store {
	return clipStore
}

// getConfig returns the global config instance.
func getConfig() *config.Config {
	return cfg
}

// loadProject loads the project named by --project.
func loadProject() (*project.Theme, error) {
	if globalOpts.projectFile == "" {
		return nil, errors.New("no project file; pass --project (create one with 'soundforge new')")
	}
	return project.Load(globalOpts.projectFile)
}

// ffmpegTimeout returns the configured subprocess timeout.
func ffmpegTimeout() time.Duration {
	return time.Duration(cfg.Ffmpeg.TimeoutSeconds) * time.Second
}

// newProber builds an ffprobe client from the config.
func newProber() *ffmpeg.Prober {
	return ffmpeg.NewProber(cfg.Ffmpeg.ProbeBinary, ffmpegTimeout(), logger)
}

// newTranscoder builds an ffmpeg transcoder from the config.
func newTranscoder() *ffmpeg.Transcoder {
	return ffmpeg.NewTranscoder(cfg.Ffmpeg.Binary, ffmpegTimeout(), logger)
}

// newRecorder builds a microphone recorder from the config.
func newRecorder() *ffmpeg.Recorder {
	return ffmpeg.NewRecorder(cfg.Ffmpeg.Binary, cfg.Record.Backend, cfg.Record.MaxSeconds, logger)
}

// newExporter builds an exporter for the given profile, falling back to
// the configured one.
func newExporter(profile string) (*exporter.Exporter, error) {
	if profile == "" {
		profile = cfg.Export.Profile
	}
	return exporter.New(newTranscoder(), profile, logger)
}

// createFormatter creates the output formatter for -o flags.
func createFormatter(format string) output.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return output.NewFormatter(output.FormatJSON)
	case "yaml":
		return output.NewFormatter(output.FormatYAML)
	default:
		return output.NewFormatter(output.FormatPlain)
	}
}
