package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"soundforge/internal/catalog"
)

var showOpts struct {
	output string
}

// projectSummary is the structured form of 'show' for json/yaml output.
type projectSummary struct {
	Name     string            `json:"name" yaml:"name"`
	Comment  string            `json:"comment" yaml:"comment"`
	File     string            `json:"file" yaml:"file"`
	Assigned int               `json:"assigned" yaml:"assigned"`
	Events   int               `json:"events" yaml:"events"`
	Sounds   map[string]string `json:"sounds,omitempty" yaml:"sounds,omitempty"`
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the project summary",
	Long: `Show the project's metadata and assignments.

Examples:
  soundforge show --project mytheme.json
  soundforge show --project mytheme.json -o json`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showOpts.output, "output", "o", "plain",
		"Output format (plain, json, yaml)")
}

func runShow(cmd *cobra.Command, args []string) error {
	t, err := loadProject()
	if err != nil {
		return err
	}

	if !strings.EqualFold(showOpts.output, "plain") {
		sounds := make(map[string]string, t.AssignedCount())
		for _, a := range t.Assignments() {
			sounds[a.Event] = a.Path
		}
		return createFormatter(showOpts.output).Format(os.Stdout, projectSummary{
			Name:     t.Name(),
			Comment:  t.Comment(),
			File:     t.Path(),
			Assigned: t.AssignedCount(),
			Events:   catalog.Count(),
			Sounds:   sounds,
		})
	}

	fmt.Printf("Name:     %s\n", t.Name())
	fmt.Printf("Comment:  %s\n", t.Comment())
	fmt.Printf("File:     %s\n", t.Path())
	fmt.Printf("Assigned: %d of %d events\n", t.AssignedCount(), catalog.Count())

	if t.AssignedCount() == 0 {
		return nil
	}

	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, a := range t.Assignments() {
		fmt.Fprintf(tw, "%s\t%s\n", a.Event, a.Path)
	}
	return tw.Flush()
}
