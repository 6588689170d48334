package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var setNameCmd = &cobra.Command{
	Use:   "set-name <name>",
	Short: "Set the theme name",
	Long: `Set the theme's display name and save the project.

The name also determines the install directory: it is slugged down to
lowercase letters and digits.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetName,
}

var setCommentCmd = &cobra.Command{
	Use:   "set-comment <comment>",
	Short: "Set the theme comment",
	Long:  `Set the theme's descriptive comment and save the project.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSetComment,
}

func init() {
	rootCmd.AddCommand(setNameCmd)
	rootCmd.AddCommand(setCommentCmd)
}

func runSetName(cmd *cobra.Command, args []string) error {
	t, err := loadProject()
	if err != nil {
		return err
	}

	t.SetName(args[0])
	if err := t.Save(""); err != nil {
		return err
	}

	fmt.Printf("Name set to %q\n", args[0])
	return nil
}

func runSetComment(cmd *cobra.Command, args []string) error {
	t, err := loadProject()
	if err != nil {
		return err
	}

	t.SetComment(args[0])
	if err := t.Save(""); err != nil {
		return err
	}

	fmt.Println("Comment updated")
	return nil
}
