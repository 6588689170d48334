package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soundforge/internal/project"
)

var newOpts struct {
	name    string
	comment string
}

var newCmd = &cobra.Command{
	Use:   "new <file>",
	Short: "Create an empty project file",
	Long: `Create a new project file with no sounds assigned.

Examples:
  # Start a project
  soundforge new mytheme.json

  # Start with a name
  soundforge new mytheme.json --name "Retro Beeps"`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().StringVar(&newOpts.name, "name", "",
		"Theme name (default: \""+project.DefaultName+"\")")
	newCmd.Flags().StringVar(&newOpts.comment, "comment", "",
		"Theme comment")
}

func runNew(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	t := project.New()
	if newOpts.name != "" {
		t.SetName(newOpts.name)
	}
	if newOpts.comment != "" {
		t.SetComment(newOpts.comment)
	}

	if err := t.Save(path); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	return nil
}
