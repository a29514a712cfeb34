package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/amirbrooks/tasker-notes/internal/dates"
	"github.com/amirbrooks/tasker-notes/internal/suggest"
)

type suggestOptions struct {
	cursor   int
	today    string
	minMatch int
	maxItems int
}

func suggestCmd(a *app) *cobra.Command {
	var opts suggestOptions
	cmd := &cobra.Command{
		Use:   "suggest <line>",
		Short: "Suggest task metadata for a line being typed",
		Long: `Suggest task metadata for the line, as an editor would while the cursor sits
at --cursor (a byte offset; default the end of the line).

JSON output (--json) is the list an editor integration consumes: each entry
has displayText and appendText, and positioned entries add insertAt and
insertSkip.`,
		Example: `  tasker suggest "- [ ] pay rent 📅 to"
  tasker suggest --json --cursor 6 "- [ ] "`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := a.cfg.Suggest
			if cmd.Flags().Changed("min-match") {
				settings.MinMatch = opts.minMatch
			}
			if cmd.Flags().Changed("max-items") {
				settings.MaxItems = opts.maxItems
			}
			if settings.MinMatch < 0 || settings.MaxItems < 0 {
				return usageError(errors.New("--min-match and --max-items must be >= 0"))
			}
			clock := a.now
			if opts.today != "" {
				day, ok := dates.Parse(opts.today)
				if !ok {
					return usageError(errors.WithHint(
						errors.Newf("invalid --today %q", opts.today),
						"use YYYY-MM-DD",
					))
				}
				clock = func() time.Time { return day }
			}

			line := args[0]
			cursor := opts.cursor
			if !cmd.Flags().Changed("cursor") {
				cursor = len(line)
			}
			items := suggest.NewService(settings, suggest.WithClock(clock)).Suggest(line, cursor)
			return a.printSuggestions(items)
		},
	}
	cmd.Flags().IntVar(&opts.cursor, "cursor", 0, "Cursor byte offset in the line (default: end of line)")
	cmd.Flags().StringVar(&opts.today, "today", "", "Reference date for date phrases (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.minMatch, "min-match", 0, "Characters typed before filtered suggestions show (default: suggest.min_match)")
	cmd.Flags().IntVar(&opts.maxItems, "max-items", 0, "Maximum suggestions (default: suggest.max_items)")
	return cmd
}

func (a *app) printSuggestions(items []suggest.SuggestInfo) error {
	if a.flags.JSON {
		return writeJSON(a.stdout, items)
	}
	if a.flags.Plain {
		fmt.Fprintln(a.stdout, "DISPLAY\tAPPEND\tINSERT_AT\tINSERT_SKIP")
		for _, item := range items {
			at, skip := insertion(item)
			fmt.Fprintf(a.stdout, "%s\t%s\t%s\t%s\n", plainCell(item.DisplayText), plainCell(quoteAppend(item.AppendText)), at, skip)
		}
		return nil
	}
	if len(items) == 0 {
		a.info("No suggestions.")
		return nil
	}
	w := newTable(a.stdout)
	fmt.Fprintln(w, "SUGGESTION\tAPPEND\tAT\tSKIP")
	for _, item := range items {
		at, skip := insertion(item)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.DisplayText, quoteAppend(item.AppendText), at, skip)
	}
	return w.Flush()
}

func insertion(item suggest.SuggestInfo) (string, string) {
	if item.Insertion == nil {
		return "-", "-"
	}
	return fmt.Sprint(item.At), fmt.Sprint(item.Skip)
}

// quoteAppend shows trailing spaces and newlines in append text.
func quoteAppend(s string) string {
	return "\"" + strings.ReplaceAll(s, "\n", `\n`) + "\""
}
