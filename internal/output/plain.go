package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"soundforge/internal/catalog"
	"soundforge/internal/exporter"
	"soundforge/internal/model"
)

// PlainFormatter renders listings as aligned text columns.
type PlainFormatter struct{}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter() *PlainFormatter {
	return &PlainFormatter{}
}

// Format writes the listing as columns. Values without a listing
// layout print with their default formatting.
func (f *PlainFormatter) Format(w io.Writer, v any) error {
	switch items := v.(type) {
	case []catalog.Event:
		return formatEvents(w, items)
	case []model.Clip:
		return formatClips(w, items)
	case []exporter.InstalledTheme:
		return formatThemes(w, items)
	default:
		_, err := fmt.Fprintln(w, v)
		return err
	}
}

func formatEvents(w io.Writer, events []catalog.Event) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT\tCATEGORY\tDESCRIPTION")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Category, e.Description)
	}
	return tw.Flush()
}

func formatClips(w io.Writer, clips []model.Clip) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tFORMAT\tDURATION\tSIZE\tIMPORTED")
	for i := range clips {
		c := &clips[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(c.ID), c.Title, c.Format,
			c.DisplayDuration(), c.DisplaySize(), c.RelativeTime())
	}
	return tw.Flush()
}

func formatThemes(w io.Writer, themes []exporter.InstalledTheme) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSOUNDS\tLOCATION")
	for _, t := range themes {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", t.Name, len(t.Events), t.Dir)
	}
	return tw.Flush()
}

// shortID truncates a ULID for display; the short prefix still
// resolves through library lookup.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
