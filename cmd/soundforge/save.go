package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save [file]",
	Short: "Save the project",
	Long: `Write the project back to its file, or to a new file when one is
given.

Examples:
  # Rewrite in place
  soundforge save --project mytheme.json

  # Save a copy
  soundforge save backup.json --project mytheme.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	t, err := loadProject()
	if err != nil {
		return err
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	if err := t.Save(path); err != nil {
		return err
	}

	fmt.Printf("Saved %s\n", t.Path())
	return nil
}
