package suggest

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/amirbrooks/tasker-notes/internal/task"
)

type contextKind int

const (
	contextNone contextKind = iota
	contextMenu
	contextDate
	contextRecurrence
)

// lineContext is what the user is typing at the cursor.
type lineContext struct {
	kind     contextKind
	cursor   int
	symbol   string
	symbolAt int
	typed    string
}

var checkboxRe = regexp.MustCompile(`^[\s>]*(?:[-*+]|[0-9]+[.)]) +\[.\]`)

// parseContext scans back from the cursor for the nearest value symbol. The
// field it opens is still being typed while the text after it stays within the
// symbol's alphabet; anything else falls back to the metadata menu.
func parseContext(line string, cursor int, symbols task.Symbols) lineContext {
	cursor = clampCursor(line, cursor)
	box := checkboxRe.FindStringIndex(line)
	if box == nil || cursor < box[1] {
		return lineContext{kind: contextNone, cursor: cursor}
	}

	before := line[:cursor]
	best := lineContext{kind: contextMenu, cursor: cursor, symbolAt: -1}
	fields := []struct {
		symbol string
		kind   contextKind
	}{
		{symbols.Due, contextDate},
		{symbols.Start, contextDate},
		{symbols.Scheduled, contextDate},
		{symbols.Recurrence, contextRecurrence},
	}
	for _, f := range fields {
		if at := strings.LastIndex(before, f.symbol); at > best.symbolAt {
			best.symbolAt = at
			best.symbol = f.symbol
			best.kind = f.kind
		}
	}
	if best.symbolAt < 0 {
		return lineContext{kind: contextMenu, cursor: cursor}
	}

	typed := strings.TrimLeft(before[best.symbolAt+len(best.symbol):], " ")
	if !inAlphabet(typed, best.kind == contextRecurrence) {
		return lineContext{kind: contextMenu, cursor: cursor}
	}
	best.typed = typed
	return best
}

func clampCursor(line string, cursor int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > len(line) {
		return len(line)
	}
	for cursor > 0 && cursor < len(line) && !utf8.RuneStart(line[cursor]) {
		cursor--
	}
	return cursor
}

func inAlphabet(s string, allowComma bool) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == ' ':
		case c == ',' && allowComma:
		default:
			return false
		}
	}
	return true
}

// wordAt returns the bounds of the word touching the cursor.
func wordAt(line string, cursor int) (int, int) {
	start := cursor
	for start > 0 && isWordChar(line[start-1]) {
		start--
	}
	end := cursor
	for end < len(line) && isWordChar(line[end]) {
		end++
	}
	return start, end
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '\'' || c == '_' || c == '-'
}
