// Package report renders grouped tasks for people and delivers the result to
// notes and export files.
package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/amirbrooks/tasker-notes/internal/group"
)

type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatTelegram Format = "telegram"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatTelegram:
		return FormatTelegram, nil
	default:
		return "", errors.WithHint(
			errors.Newf("unknown report format %q", s),
			"use text, markdown or telegram",
		)
	}
}

// Ext is the file extension exports in this format use.
func (f Format) Ext() string {
	if f == FormatText {
		return "txt"
	}
	return "md"
}

type Options struct {
	Title string
	Now   time.Time
}

// Render renders tree in format f.
func Render(tree *group.Tree, f Format, opts Options) string {
	switch f {
	case FormatMarkdown:
		return Markdown(tree)
	case FormatTelegram:
		return Telegram(tree, opts.Title, opts.Now)
	default:
		return tree.String()
	}
}

// Markdown renders tree as headings and task lines. Headings follow the same
// suppression as the text form: a leaf only repeats the levels where its path
// departs from the previous leaf.
func Markdown(tree *group.Tree) string {
	var b strings.Builder
	headings := tree.Headings()
	for i, leaf := range tree.Leaves() {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, level := range headings[i] {
			b.WriteString(group.HeadingPrefix(level))
			b.WriteString(" ")
			b.WriteString(leaf.Names[level])
			b.WriteString("\n")
		}
		for _, t := range leaf.Tasks {
			b.WriteString(t.String())
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(countLabel(tree.TotalTasks()))
	b.WriteString("\n")
	return b.String()
}

func countLabel(n int) string {
	return strconv.Itoa(n) + " tasks"
}
