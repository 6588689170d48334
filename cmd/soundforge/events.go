package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"soundforge/internal/catalog"
)

var eventsOpts struct {
	category string
	filter   string
	output   string
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the freedesktop sound events",
	Long: `List the sound events a theme can provide, from the freedesktop
sound naming catalog.

Examples:
  # All events
  soundforge events

  # One category
  soundforge events --category alerts

  # Substring match, JSON output
  soundforge events --filter message -o json`,
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVar(&eventsOpts.category, "category", "",
		"Filter by category")
	eventsCmd.Flags().StringVar(&eventsOpts.filter, "filter", "",
		"Filter by substring in id, category, or description")
	eventsCmd.Flags().StringVarP(&eventsOpts.output, "output", "o", "plain",
		"Output format (plain, json, yaml)")
}

func runEvents(cmd *cobra.Command, args []string) error {
	var events []catalog.Event
	switch {
	case eventsOpts.category != "":
		events = catalog.ByCategory(eventsOpts.category)
		if len(events) == 0 {
			return fmt.Errorf("unknown category %q (have: %s)",
				eventsOpts.category, strings.Join(catalog.Categories(), ", "))
		}
		if eventsOpts.filter != "" {
			events = matchEvents(events, eventsOpts.filter)
		}
	case eventsOpts.filter != "":
		events = catalog.Filter(eventsOpts.filter)
	default:
		events = catalog.All()
	}

	return createFormatter(eventsOpts.output).Format(os.Stdout, events)
}

// matchEvents keeps events whose id, category, or description contains
// the needle, case-insensitively.
func matchEvents(events []catalog.Event, needle string) []catalog.Event {
	needle = strings.ToLower(needle)

	var out []catalog.Event
	for _, e := range events {
		hay := strings.ToLower(e.ID + " " + e.Category + " " + e.Description)
		if strings.Contains(hay, needle) {
			out = append(out, e)
		}
	}
	return out
}
