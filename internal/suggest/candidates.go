package suggest

import (
	"strings"
	"time"

	"github.com/amirbrooks/tasker-notes/internal/dates"
	"github.com/amirbrooks/tasker-notes/internal/task"
)

type candidate struct {
	display string
	append  string
}

type datePhrase struct {
	label   string
	resolve func(today time.Time) time.Time
}

func identity(t time.Time) time.Time { return t }

func weekdayPhrase(w time.Weekday) datePhrase {
	return datePhrase{
		label:   w.String(),
		resolve: func(today time.Time) time.Time { return dates.NextWeekday(today, w) },
	}
}

var datePhrases = func() []datePhrase {
	out := []datePhrase{
		{"today", identity},
		{"tomorrow", dates.Tomorrow},
	}
	for _, w := range dates.Weekdays {
		out = append(out, weekdayPhrase(w))
	}
	return append(out,
		datePhrase{"next week", dates.NextWeek},
		datePhrase{"next month", dates.NextMonth},
		datePhrase{"next year", dates.NextYear},
	)
}()

var recurrencePhrases = func() []string {
	out := []string{
		"every",
		"every day",
		"every week",
		"every month",
		"every month on the",
		"every year",
	}
	for _, w := range dates.Weekdays {
		out = append(out, "every week on "+w.String())
	}
	return out
}()

func dateCandidates(symbol string, today time.Time) []candidate {
	out := make([]candidate, 0, len(datePhrases))
	for _, p := range datePhrases {
		iso := dates.Format(p.resolve(today))
		out = append(out, candidate{
			display: p.label + " (" + iso + ")",
			append:  symbol + " " + iso + " ",
		})
	}
	return out
}

func recurrenceCandidates(symbol string) []candidate {
	out := make([]candidate, 0, len(recurrencePhrases))
	for _, p := range recurrencePhrases {
		out = append(out, candidate{display: p, append: symbol + " " + p + " "})
	}
	return out
}

// menuCandidates lists the metadata a line does not carry yet. Any priority on
// the line hides all three priority entries.
func menuCandidates(line string, s task.Symbols) []candidate {
	var out []candidate
	add := func(symbol, label string) {
		out = append(out, candidate{display: symbol + " " + label, append: symbol + " "})
	}
	if !strings.Contains(line, s.Due) {
		add(s.Due, "due date")
	}
	if !strings.Contains(line, s.Start) {
		add(s.Start, "start date")
	}
	if !strings.Contains(line, s.Scheduled) {
		add(s.Scheduled, "scheduled date")
	}
	hasPriority := false
	for _, p := range s.Priorities() {
		if strings.Contains(line, p) {
			hasPriority = true
		}
	}
	if !hasPriority {
		add(s.PriorityHigh, "high priority")
		add(s.PriorityMedium, "medium priority")
		add(s.PriorityLow, "low priority")
	}
	if !strings.Contains(line, s.Recurrence) {
		add(s.Recurrence, "recurring (repeat)")
	}
	return out
}
