package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soundforge/internal/config"
	"soundforge/internal/exporter"
)

var installOpts struct {
	system  bool
	profile string
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the theme",
	Long: `Export the theme into the sounds root so desktops can pick it up.

Per-user themes go under ~/.local/share/sounds, named by the slugged
theme name. With --system the root is ` + config.SystemSoundsDir + `,
which usually needs elevated permissions.

Examples:
  soundforge install --project mytheme.json
  soundforge install --system --project mytheme.json`,
	RunE: runInstall,
}

var uninstallOpts struct {
	system bool
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <name>",
	Short: "Remove an installed theme",
	Long: `Remove an installed theme directory from the sounds root.

The name is slugged the same way install slugs it, so the display name
and the directory name both work.`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)

	installCmd.Flags().BoolVar(&installOpts.system, "system", false,
		"Install under the system sounds root")
	installCmd.Flags().StringVar(&installOpts.profile, "profile", "",
		"Encode profile ("+profileList()+"; default from config)")

	uninstallCmd.Flags().BoolVar(&uninstallOpts.system, "system", false,
		"Remove from the system sounds root")
}

func runInstall(cmd *cobra.Command, args []string) error {
	t, err := loadProject()
	if err != nil {
		return err
	}

	exp, err := newExporter(installOpts.profile)
	if err != nil {
		return err
	}

	opts := exporter.InstallOptions{System: installOpts.system}
	dest, err := exp.Install(cmd.Context(), t, opts, exportProgress)
	if err != nil {
		return err
	}

	fmt.Printf("Installed %q to %s\n", t.Name(), dest)
	notifyDone(fmt.Sprintf("Installed %q", t.Name()), dest)
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	root := config.SoundsRoot(uninstallOpts.system)

	removed, err := exporter.Uninstall(root, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Removed %s\n", removed)
	return nil
}
