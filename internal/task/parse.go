package task

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/amirbrooks/tasker-notes/internal/dates"
)

// Metadata is peeled off the end of the body one field at a time, so fields
// may appear in any order. maxMetadataRuns bounds the loop.
const maxMetadataRuns = 20

var (
	taskRe        = regexp.MustCompile(`^([\s\t>]*)([-*+]|[0-9]+[.)]) +\[(.)\] *(.*)`)
	trailingTagRe = regexp.MustCompile(`(?:^|\s)(#[^\s#,.!?;:()\[\]{}"']+)$`)
)

// Parser reads task lines written with one set of metadata symbols.
type Parser struct {
	symbols Symbols

	doneDateRe      *regexp.Regexp
	dueDateRe       *regexp.Regexp
	scheduledDateRe *regexp.Regexp
	startDateRe     *regexp.Regexp
	priorityRe      *regexp.Regexp
	recurrenceRe    *regexp.Regexp
}

// DefaultParser reads the emoji vocabulary of DefaultSymbols.
var DefaultParser = NewParser(DefaultSymbols)

// NewParser builds a Parser for s. Empty symbols fall back to the defaults.
func NewParser(s Symbols) *Parser {
	s = s.WithDefaults()
	date := func(symbol string) *regexp.Regexp {
		return regexp.MustCompile(regexp.QuoteMeta(symbol) + ` *(\d{4}-\d{2}-\d{2})$`)
	}
	priorities := make([]string, 0, 3)
	for _, sym := range s.Priorities() {
		priorities = append(priorities, regexp.QuoteMeta(sym))
	}
	return &Parser{
		symbols:         s,
		doneDateRe:      date(s.Done),
		dueDateRe:       date(s.Due),
		scheduledDateRe: date(s.Scheduled),
		startDateRe:     date(s.Start),
		priorityRe:      regexp.MustCompile(`(` + strings.Join(priorities, "|") + `)$`),
		recurrenceRe:    regexp.MustCompile(regexp.QuoteMeta(s.Recurrence) + ` ?([a-zA-Z0-9, !]+)$`),
	}
}

func (p *Parser) Symbols() Symbols {
	return p.symbols
}

// IsTaskLine reports whether line is a checkbox list item.
func IsTaskLine(line string) bool {
	return taskRe.MatchString(line)
}

// Parse reads line with DefaultParser.
func Parse(line string, loc Location) (*Task, bool) {
	return DefaultParser.Parse(line, loc)
}

// Parse reads a checkbox line. The second result is false when the line is not
// a task; malformed metadata is left in the description rather than rejected.
func (p *Parser) Parse(line string, loc Location) (*Task, bool) {
	m := taskRe.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return nil, false
	}
	t := &Task{
		Indentation:      m[1],
		ListMarker:       m[2],
		StatusChar:       m[3],
		Status:           StatusTodo,
		Path:             loc.Path,
		LineNumber:       loc.LineNumber,
		PrecedingHeading: loc.PrecedingHeading,
		symbols:          &p.symbols,
	}
	if m[3] == "x" || m[3] == "X" {
		t.Status = StatusDone
	}

	body := strings.TrimSpace(m[4])
	// Tags after the metadata are set aside so the fields before them are
	// still found, then restored to the description.
	var trailingTags []string
	matched := true
	for runs := 0; matched && runs <= maxMetadataRuns; runs++ {
		matched = false
		if sub, rest, ok := peel(p.priorityRe, body); ok {
			t.Priority = p.priorityFromSymbol(sub)
			body, matched = rest, true
		}
		if d, rest, ok := peelDate(p.doneDateRe, body); ok {
			t.DoneDate, body, matched = d, rest, true
		}
		if d, rest, ok := peelDate(p.dueDateRe, body); ok {
			t.DueDate, body, matched = d, rest, true
		}
		if d, rest, ok := peelDate(p.scheduledDateRe, body); ok {
			t.Scheduled, body, matched = d, rest, true
		}
		if d, rest, ok := peelDate(p.startDateRe, body); ok {
			t.StartDate, body, matched = d, rest, true
		}
		if sub, rest, ok := peel(p.recurrenceRe, body); ok {
			t.Recurrence = strings.TrimSpace(sub)
			body, matched = rest, true
		}
		if sub, rest, ok := peel(trailingTagRe, body); ok {
			trailingTags = append([]string{sub}, trailingTags...)
			body, matched = rest, true
		}
	}
	if len(trailingTags) > 0 {
		body = strings.TrimSpace(body + " " + strings.Join(trailingTags, " "))
	}
	t.Description = body
	t.Tags = extractTags(body)
	return t, true
}

func peel(re *regexp.Regexp, body string) (string, string, bool) {
	loc := re.FindStringSubmatchIndex(body)
	if loc == nil {
		return "", body, false
	}
	return body[loc[2]:loc[3]], strings.TrimSpace(body[:loc[0]]), true
}

func peelDate(re *regexp.Regexp, body string) (*time.Time, string, bool) {
	raw, rest, ok := peel(re, body)
	if !ok {
		return nil, body, false
	}
	d, ok := dates.Parse(raw)
	if !ok {
		// Shaped like a date but not one (2022-02-31): keep it as text.
		return nil, body, false
	}
	return &d, rest, true
}

func (p *Parser) priorityFromSymbol(sym string) Priority {
	switch sym {
	case p.symbols.PriorityHigh:
		return PriorityHigh
	case p.symbols.PriorityMedium:
		return PriorityMedium
	case p.symbols.PriorityLow:
		return PriorityLow
	default:
		return PriorityNone
	}
}

// extractTags returns the #tags of a description in order of first
// appearance. Nested tags keep their slashes (#work/admin).
func extractTags(text string) []string {
	var tags []string
	seen := map[string]bool{}
	for i := 0; i < len(text); i++ {
		if text[i] != '#' {
			continue
		}
		if i > 0 && text[i-1] != ' ' && text[i-1] != '\t' {
			continue
		}
		j := i + 1
		for j < len(text) && isTagChar(text[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		tag := text[i:j]
		if !seen[strings.ToLower(tag)] {
			seen[strings.ToLower(tag)] = true
			tags = append(tags, tag)
		}
		i = j - 1
	}
	return tags
}

func isTagChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '/':
		return true
	case b >= 0x80:
		// Non-ASCII letters are allowed in tags.
		return true
	default:
		return false
	}
}

// HasTag reports whether the task carries tag, with or without the leading
// '#', compared case-insensitively.
func (t *Task) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	if tag == "" {
		return false
	}
	for _, have := range t.Tags {
		if strings.ToLower(strings.TrimPrefix(have, "#")) == tag {
			return true
		}
	}
	return false
}

// SortedTags returns the tags in byte order, for stable output.
func (t *Task) SortedTags() []string {
	out := append([]string(nil), t.Tags...)
	sort.Strings(out)
	return out
}
