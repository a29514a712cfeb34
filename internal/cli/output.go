package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/amirbrooks/tasker-notes/internal/dates"
	"github.com/amirbrooks/tasker-notes/internal/task"
)

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(payload)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
}

// plainCell keeps a value on one TSV cell.
func plainCell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.NewReplacer("\t", " ", "\n", " ").Replace(s)
}

func writeTaskRows(w io.Writer, tasks []*task.Task) {
	fmt.Fprintln(w, "LOCATION\tST\tPRI\tDUE\tTASK")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = dates.Format(*t.DueDate)
		}
		fmt.Fprintf(w, "%s:%d\t%s\t%s\t%s\t%s\n",
			t.Path, t.LineNumber, t.Status, priorityAbbrev(t.Priority), due, plainCell(t.Description))
	}
}

func priorityAbbrev(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return "H"
	case task.PriorityMedium:
		return "M"
	case task.PriorityLow:
		return "L"
	default:
		return "-"
	}
}
