// Package task defines the task record read from Markdown checkbox lines.
package task

import (
	"path"
	"strings"
	"time"

	"github.com/amirbrooks/tasker-notes/internal/dates"
)

type Status string

const (
	StatusTodo Status = "todo"
	StatusDone Status = "done"
)

func (s Status) Label() string {
	if s == StatusDone {
		return "Done"
	}
	return "Todo"
}

type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "none"
	}
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Symbols are the glyphs that introduce each metadata field on a task line.
type Symbols struct {
	Due            string `mapstructure:"due" json:"due" yaml:"due" toml:"due"`
	Start          string `mapstructure:"start" json:"start" yaml:"start" toml:"start"`
	Scheduled      string `mapstructure:"scheduled" json:"scheduled" yaml:"scheduled" toml:"scheduled"`
	Done           string `mapstructure:"done" json:"done" yaml:"done" toml:"done"`
	Recurrence     string `mapstructure:"recurrence" json:"recurrence" yaml:"recurrence" toml:"recurrence"`
	PriorityHigh   string `mapstructure:"priority_high" json:"priority_high" yaml:"priority_high" toml:"priority_high"`
	PriorityMedium string `mapstructure:"priority_medium" json:"priority_medium" yaml:"priority_medium" toml:"priority_medium"`
	PriorityLow    string `mapstructure:"priority_low" json:"priority_low" yaml:"priority_low" toml:"priority_low"`
}

// DefaultSymbols is the emoji vocabulary tasks are written in.
var DefaultSymbols = Symbols{
	Due:            "📅",
	Start:          "🛫",
	Scheduled:      "⏳",
	Done:           "✅",
	Recurrence:     "🔁",
	PriorityHigh:   "⏫",
	PriorityMedium: "🔼",
	PriorityLow:    "🔽",
}

// Priorities returns the non-empty priority symbols, highest first.
func (s Symbols) Priorities() []string {
	var out []string
	for _, sym := range []string{s.PriorityHigh, s.PriorityMedium, s.PriorityLow} {
		if sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

// WithDefaults fills any empty symbol from DefaultSymbols.
func (s Symbols) WithDefaults() Symbols {
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&s.Due, DefaultSymbols.Due)
	fill(&s.Start, DefaultSymbols.Start)
	fill(&s.Scheduled, DefaultSymbols.Scheduled)
	fill(&s.Done, DefaultSymbols.Done)
	fill(&s.Recurrence, DefaultSymbols.Recurrence)
	fill(&s.PriorityHigh, DefaultSymbols.PriorityHigh)
	fill(&s.PriorityMedium, DefaultSymbols.PriorityMedium)
	fill(&s.PriorityLow, DefaultSymbols.PriorityLow)
	return s
}

// Task is one checkbox line of a note. Dates are calendar dates at UTC
// midnight; nil means the field is absent.
type Task struct {
	Status      Status     `json:"status"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags,omitempty"`
	Recurrence  string     `json:"recurrence,omitempty"`
	StartDate   *time.Time `json:"start,omitempty"`
	Scheduled   *time.Time `json:"scheduled,omitempty"`
	DueDate     *time.Time `json:"due,omitempty"`
	DoneDate    *time.Time `json:"done,omitempty"`

	Path             string `json:"path"`
	LineNumber       int    `json:"line"`
	PrecedingHeading string `json:"heading,omitempty"`

	Indentation string `json:"-"`
	ListMarker  string `json:"-"`
	StatusChar  string `json:"-"`

	// symbols the line was written with; nil means DefaultSymbols.
	symbols *Symbols
}

// Location describes where a line was read from.
type Location struct {
	Path             string
	LineNumber       int
	PrecedingHeading string
}

// PathWithoutExtension is the vault path minus its file extension.
func (t *Task) PathWithoutExtension() string {
	return strings.TrimSuffix(t.Path, path.Ext(t.Path))
}

// Filename is the base name of the note without extension.
func (t *Task) Filename() string {
	if t.Path == "" {
		return ""
	}
	base := path.Base(t.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Folder is the directory of the note with a trailing slash, or "/" for
// notes at the vault root.
func (t *Task) Folder() string {
	dir := path.Dir(t.Path)
	if dir == "." || dir == "/" || dir == "" {
		return "/"
	}
	return dir + "/"
}

// Backlink is "<filename> > <heading>", or just the filename when the task
// has no preceding heading. Empty when the task has no path.
func (t *Task) Backlink() string {
	name := t.Filename()
	if name == "" {
		return ""
	}
	if heading := strings.TrimSpace(t.PrecedingHeading); heading != "" {
		return name + " > " + heading
	}
	return name
}

func (t *Task) IsDone() bool {
	return t.Status == StatusDone
}

// String serializes the task back to a Markdown line with metadata in
// canonical order, using the symbols it was parsed with.
func (t *Task) String() string {
	sym := DefaultSymbols
	if t.symbols != nil {
		sym = *t.symbols
	}
	marker := t.ListMarker
	if marker == "" {
		marker = "-"
	}
	char := t.StatusChar
	if char == "" {
		char = " "
		if t.IsDone() {
			char = "x"
		}
	}
	var b strings.Builder
	b.WriteString(t.Indentation)
	b.WriteString(marker)
	b.WriteString(" [")
	b.WriteString(char)
	b.WriteString("] ")
	b.WriteString(t.Description)
	switch t.Priority {
	case PriorityHigh:
		b.WriteString(" " + sym.PriorityHigh)
	case PriorityMedium:
		b.WriteString(" " + sym.PriorityMedium)
	case PriorityLow:
		b.WriteString(" " + sym.PriorityLow)
	}
	if t.Recurrence != "" {
		b.WriteString(" " + sym.Recurrence + " " + t.Recurrence)
	}
	writeDate := func(symbol string, d *time.Time) {
		if d != nil {
			b.WriteString(" " + symbol + " " + dates.Format(*d))
		}
	}
	writeDate(sym.Start, t.StartDate)
	writeDate(sym.Scheduled, t.Scheduled)
	writeDate(sym.Due, t.DueDate)
	writeDate(sym.Done, t.DoneDate)
	return b.String()
}
