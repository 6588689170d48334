package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"soundforge/internal/config"
	"soundforge/internal/exporter"
	"soundforge/internal/project"
)

var themesOpts struct {
	system     bool
	importName string
	out        string
	output     string
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List installed sound themes",
	Long: `List the sound themes installed under the sounds root.

With --import, convert an installed theme back into a project file so
it can be edited.

Examples:
  # Per-user themes
  soundforge themes

  # System themes
  soundforge themes --system

  # Reopen an installed theme as a project
  soundforge themes --import "Retro Beeps" --out retro.json`,
	RunE: runThemes,
}

func init() {
	rootCmd.AddCommand(themesCmd)

	themesCmd.Flags().BoolVar(&themesOpts.system, "system", false,
		"Use the system sounds root")
	themesCmd.Flags().StringVar(&themesOpts.importName, "import", "",
		"Import the installed theme with this name into a project file")
	themesCmd.Flags().StringVar(&themesOpts.out, "out", "",
		"Project file to write for --import (default: <slug>.json)")
	themesCmd.Flags().StringVarP(&themesOpts.output, "output", "o", "plain",
		"Output format (plain, json, yaml)")
}

func runThemes(cmd *cobra.Command, args []string) error {
	root := config.SoundsRoot(themesOpts.system)

	if themesOpts.importName != "" {
		return importInstalledTheme(root)
	}

	themes, err := exporter.Installed(root)
	if err != nil {
		return err
	}
	if len(themes) == 0 {
		logger.Debug("no themes installed", "root", root)
		return nil
	}

	return createFormatter(themesOpts.output).Format(os.Stdout, themes)
}

// importInstalledTheme converts an installed theme into a project file.
func importInstalledTheme(root string) error {
	slug, err := project.Slug(themesOpts.importName)
	if err != nil {
		return err
	}

	t, skipped, err := project.ImportInstalled(filepath.Join(root, slug))
	if err != nil {
		return err
	}
	for _, name := range skipped {
		fmt.Fprintf(os.Stderr, "Skipped %s: no matching event\n", name)
	}

	out := themesOpts.out
	if out == "" {
		out = slug + ".json"
	}
	if err := t.Save(out); err != nil {
		return err
	}

	fmt.Printf("Imported %q to %s (%d sounds)\n", t.Name(), out, t.AssignedCount())
	return nil
}
