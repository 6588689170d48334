package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"soundforge/internal/library"
)

var assignCmd = &cobra.Command{
	Use:   "assign <event> <clip>",
	Short: "Assign a sound to an event",
	Long: `Assign a library clip or an audio file to a sound event and save the
project.

The clip argument is tried against the library first (ID, ID prefix, or
exact title), then treated as a file path.

Examples:
  # By library title
  soundforge assign bell "Door Chime" --project mytheme.json

  # By ID prefix
  soundforge assign bell 01JD --project mytheme.json

  # By path
  soundforge assign bell ~/sounds/chime.oga --project mytheme.json`,
	Args: cobra.ExactArgs(2),
	RunE: runAssign,
}

var unassignCmd = &cobra.Command{
	Use:   "unassign <event>",
	Short: "Clear an event's sound",
	Long:  `Remove the sound assigned to an event and save the project.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUnassign,
}

func init() {
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(unassignCmd)
}

func runAssign(cmd *cobra.Command, args []string) error {
	t, err := loadProject()
	if err != nil {
		return err
	}

	path, err := resolveClipPath(args[1])
	if err != nil {
		return err
	}

	if err := t.Assign(args[0], path); err != nil {
		return err
	}
	if err := t.Save(""); err != nil {
		return err
	}

	fmt.Printf("Assigned %s to %s\n", filepath.Base(path), args[0])
	return nil
}

func runUnassign(cmd *cobra.Command, args []string) error {
	t, err := loadProject()
	if err != nil {
		return err
	}

	if err := t.Unassign(args[0]); err != nil {
		return err
	}
	if err := t.Save(""); err != nil {
		return err
	}

	fmt.Printf("Cleared %s\n", args[0])
	return nil
}

// resolveClipPath resolves a clip reference against the library, falling
// back to treating it as a file path.
func resolveClipPath(input string) (string, error) {
	c, err := getStore().Lookup(input)
	if err == nil {
		return c.Path, nil
	}
	if errors.Is(err, library.ErrNotFound) {
		return input, nil
	}
	return "", err
}
