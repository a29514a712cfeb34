package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirbrooks/tasker-notes/internal/group"
	"github.com/amirbrooks/tasker-notes/internal/task"
)

const telegramMaxChars = 3800

func trimTelegramOutput(s string) string {
	s = strings.TrimRight(s, "\n")
	runes := []rune(s)
	if len(runes) <= telegramMaxChars {
		return s
	}
	suffix := "\n… (truncated)"
	limit := telegramMaxChars - len([]rune(suffix))
	return string(runes[:limit]) + suffix
}

func telegramPriorityEmoji(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return "🔴"
	case task.PriorityLow:
		return "🟡"
	default:
		return ""
	}
}

func cleanDescription(s string) string {
	s = strings.TrimSpace(strings.NewReplacer("\n", " ", "\r", " ").Replace(s))
	if s == "" {
		return "(untitled)"
	}
	return s
}

func formatDueShort(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	if due.Year() == now.Year() {
		return due.Format("Jan 02")
	}
	return due.Format("Jan 02 2006")
}

func telegramTaskLine(t *task.Task, now time.Time) string {
	var b strings.Builder
	b.WriteString("• ")
	if t.IsDone() {
		b.WriteString("✅ ")
	} else if pri := telegramPriorityEmoji(t.Priority); pri != "" {
		b.WriteString(pri)
		b.WriteString(" ")
	}
	b.WriteString(cleanDescription(t.Description))
	if due := formatDueShort(t.DueDate, now); due != "" && !t.IsDone() {
		b.WriteString(" (due ")
		b.WriteString(due)
		b.WriteString(")")
	}
	b.WriteString("\n")
	return b.String()
}

// Telegram renders tree as a chat digest: one 📁 header per leaf with its
// count, bullet lines below, cut to fit a single message.
func Telegram(tree *group.Tree, title string, now time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Tasks"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s (%d)\n\n", title, tree.TotalTasks())
	if tree.TotalTasks() == 0 {
		b.WriteString("No tasks.\n")
		return trimTelegramOutput(b.String())
	}
	for _, leaf := range tree.Leaves() {
		if len(leaf.Tasks) == 0 {
			continue
		}
		if len(leaf.Names) > 0 {
			fmt.Fprintf(&b, "📁 %s (%d)\n", strings.Join(leaf.Names, " / "), len(leaf.Tasks))
		}
		for _, t := range leaf.Tasks {
			b.WriteString(telegramTaskLine(t, now))
		}
		b.WriteString("\n")
	}
	return trimTelegramOutput(b.String())
}
