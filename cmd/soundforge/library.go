package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var libraryListOpts struct {
	output string
}

// libraryCmd represents the library command group.
var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the clip library",
	Long: `Manage the clip library shared by every project.

Use 'soundforge library list' to list clips.
Use 'soundforge library remove' to remove a clip.
Use 'soundforge library rename' to retitle a clip.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to listing
		return runLibraryList(cmd, args)
	},
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List library clips",
	Long:  `List every clip in the library with its probe metadata.`,
	RunE:  runLibraryList,
}

var libraryRemoveCmd = &cobra.Command{
	Use:   "remove <clip>",
	Short: "Remove a clip from the library",
	Long: `Remove a clip by ID, ID prefix, or title.

The clip's content hash is tombstoned so re-importing the same file
does not bring it back. The file on disk is untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runLibraryRemove,
}

var libraryRenameCmd = &cobra.Command{
	Use:   "rename <clip> <title>",
	Short: "Retitle a clip",
	Long:  `Set a clip's display title.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runLibraryRename,
}

func init() {
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryRemoveCmd)
	libraryCmd.AddCommand(libraryRenameCmd)

	for _, cmd := range []*cobra.Command{libraryCmd, libraryListCmd} {
		cmd.Flags().StringVarP(&libraryListOpts.output, "output", "o", "plain",
			"Output format (plain, json, yaml)")
	}

	rootCmd.AddCommand(libraryCmd)
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	clips := getStore().All()
	if len(clips) == 0 {
		logger.Debug("library is empty")
		return nil
	}

	return createFormatter(libraryListOpts.output).Format(os.Stdout, clips)
}

func runLibraryRemove(cmd *cobra.Command, args []string) error {
	s := getStore()

	c, err := s.Lookup(args[0])
	if err != nil {
		return err
	}
	if err := s.Remove(c.ID); err != nil {
		return err
	}

	fmt.Printf("Removed %s\n", c.Title)
	return nil
}

func runLibraryRename(cmd *cobra.Command, args []string) error {
	s := getStore()

	c, err := s.Lookup(args[0])
	if err != nil {
		return err
	}
	if err := s.Rename(c.ID, args[1]); err != nil {
		return err
	}

	fmt.Printf("Renamed %q to %q\n", c.Title, args[1])
	return nil
}
