// Package suggest offers completions for task metadata while a line is being
// typed.
//
// BuildSuggestions classifies the text before the cursor, picks the candidate
// table for that context and filters it by what has already been typed. It is
// pure: the reference instant is passed in and nothing is retained between
// calls.
package suggest

import (
	"strings"
	"time"

	"github.com/amirbrooks/tasker-notes/internal/dates"
	"github.com/amirbrooks/tasker-notes/internal/task"
)

const DefaultMaxItems = 6

type SuggestionType string

const (
	TypeEmpty SuggestionType = "empty"
	TypeMatch SuggestionType = "match"
)

// Insertion locates the span of the line a suggestion replaces. Offsets are
// in bytes.
type Insertion struct {
	At   int `json:"insertAt"`
	Skip int `json:"insertSkip"`
}

// SuggestInfo is one completion candidate. Insertion is nil for suggestions
// that are appended at the cursor.
type SuggestInfo struct {
	DisplayText    string         `json:"displayText"`
	AppendText     string         `json:"appendText"`
	SuggestionType SuggestionType `json:"suggestionType,omitempty"`
	*Insertion
}

type Settings struct {
	// MinMatch is how many characters must be typed before filtered
	// suggestions are offered.
	MinMatch int `mapstructure:"min_match" json:"min_match" yaml:"min_match" toml:"min_match"`
	// MaxItems caps the result. Zero or less means DefaultMaxItems.
	MaxItems int          `mapstructure:"max_items" json:"max_items" yaml:"max_items" toml:"max_items"`
	Symbols  task.Symbols `mapstructure:"symbols" json:"symbols" yaml:"symbols" toml:"symbols"`
}

func DefaultSettings() Settings {
	return Settings{MaxItems: DefaultMaxItems, Symbols: task.DefaultSymbols}
}

func (s Settings) maxItems() int {
	if s.MaxItems <= 0 {
		return DefaultMaxItems
	}
	return s.MaxItems
}

// BuildSuggestions returns the ordered completions for line with the cursor at
// byte offset cursor. An empty result means there is nothing to suggest.
func BuildSuggestions(line string, cursor int, settings Settings, now time.Time) []SuggestInfo {
	settings.Symbols = settings.Symbols.WithDefaults()
	ctx := parseContext(line, cursor, settings.Symbols)

	var out []SuggestInfo
	switch ctx.kind {
	case contextNone:
		return []SuggestInfo{}
	case contextDate, contextRecurrence:
		out = fieldSuggestions(ctx, settings, dates.Today(now))
	}
	if len(out) == 0 {
		out = menuSuggestions(line, ctx.cursor, settings)
	}

	if len(out) == 0 {
		return []SuggestInfo{}
	}
	if !hasMatch(out) {
		out = append([]SuggestInfo{emptyLineSuggestion()}, out...)
	}
	return capItems(out, settings.maxItems())
}

// fieldSuggestions completes the value after a date or recurrence symbol. The
// suggestion replaces everything from the symbol to the cursor.
func fieldSuggestions(ctx lineContext, settings Settings, today time.Time) []SuggestInfo {
	var candidates []candidate
	if ctx.kind == contextDate {
		candidates = dateCandidates(ctx.symbol, today)
	} else {
		candidates = recurrenceCandidates(ctx.symbol)
	}

	at := &Insertion{At: ctx.symbolAt, Skip: ctx.cursor - ctx.symbolAt}
	if ctx.typed == "" {
		// appendText repeats the symbol, so the unfiltered list still replaces it.
		return asMatches(candidates, at)
	}
	if len(ctx.typed) < settings.MinMatch {
		return nil
	}
	typed := strings.ToLower(ctx.typed)
	var kept []candidate
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.display), typed) {
			kept = append(kept, c)
		}
	}
	return asMatches(kept, at)
}

// menuSuggestions offers the metadata symbols missing from the line. The word
// under the cursor narrows the menu once it is long enough.
func menuSuggestions(line string, cursor int, settings Settings) []SuggestInfo {
	menu := menuCandidates(line, settings.Symbols)

	start, end := wordAt(line, cursor)
	word := line[start:end]
	if len(word) > 0 && len(word) >= max(1, settings.MinMatch) {
		needle := strings.ToLower(word)
		var kept []candidate
		for _, c := range menu {
			if strings.Contains(strings.ToLower(c.display), needle) {
				kept = append(kept, c)
			}
		}
		if len(kept) > 0 {
			return asMatches(kept, &Insertion{At: start, Skip: len(word)})
		}
	}
	if settings.MinMatch > 0 {
		return nil
	}
	out := make([]SuggestInfo, 0, len(menu))
	for _, c := range menu {
		out = append(out, SuggestInfo{DisplayText: c.display, AppendText: c.append})
	}
	return out
}

func asMatches(candidates []candidate, at *Insertion) []SuggestInfo {
	out := make([]SuggestInfo, 0, len(candidates))
	for _, c := range candidates {
		ins := *at
		out = append(out, SuggestInfo{
			DisplayText:    c.display,
			AppendText:     c.append,
			SuggestionType: TypeMatch,
			Insertion:      &ins,
		})
	}
	return out
}

func emptyLineSuggestion() SuggestInfo {
	return SuggestInfo{SuggestionType: TypeEmpty, DisplayText: "⏎", AppendText: "\n"}
}

func hasMatch(items []SuggestInfo) bool {
	for _, item := range items {
		if item.SuggestionType == TypeMatch {
			return true
		}
	}
	return false
}

func capItems(items []SuggestInfo, n int) []SuggestInfo {
	if len(items) > n {
		return items[:n]
	}
	return items
}
