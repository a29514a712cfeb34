package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/amirbrooks/tasker-notes/internal/group"
	"github.com/amirbrooks/tasker-notes/internal/report"
	"github.com/amirbrooks/tasker-notes/internal/task"
	"github.com/amirbrooks/tasker-notes/internal/vault"
	"github.com/amirbrooks/tasker-notes/internal/watch"
)

type filterFlags struct {
	path   string
	status string
	tag    string
	search string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "path", "", "Only notes under this vault path")
	cmd.Flags().StringVar(&f.status, "status", "", "Status (todo|done)")
	cmd.Flags().StringVar(&f.tag, "tag", "", "Task or note tag")
	cmd.Flags().StringVar(&f.search, "search", "", "Search query (description)")
}

func (f *filterFlags) filter() (vault.ListFilter, error) {
	status, err := vault.ParseStatus(f.status)
	if err != nil {
		return vault.ListFilter{}, err
	}
	return vault.ListFilter{Path: f.path, Status: status, Tag: f.tag, Search: f.search}, nil
}

func (a *app) listTasks(ctx context.Context, f *filterFlags) (*vault.Vault, []*task.Task, error) {
	filter, err := f.filter()
	if err != nil {
		return nil, nil, err
	}
	v, err := a.openVault()
	if err != nil {
		return nil, nil, err
	}
	tasks, err := v.ListTasks(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return v, tasks, nil
}

func lsCmd(a *app) *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the vault's tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tasks, err := a.listTasks(cmd.Context(), &f)
			if err != nil {
				return err
			}
			if a.flags.JSON {
				return writeJSON(a.stdout, map[string]any{"tasks": tasks})
			}
			if a.flags.Plain {
				writeTaskRows(a.stdout, tasks)
				return nil
			}
			if len(tasks) == 0 {
				a.info("No tasks.")
				return nil
			}
			w := newTable(a.stdout)
			writeTaskRows(w, tasks)
			return w.Flush()
		},
	}
	f.register(cmd)
	return cmd
}

type reportFlags struct {
	filterFlags
	by        []string
	format    string
	into      string
	title     string
	export    bool
	exportDir string
}

func (r *reportFlags) register(cmd *cobra.Command) {
	r.filterFlags.register(cmd)
	cmd.Flags().StringArrayVar(&r.by, "by", nil, "Group by PROPERTY[:reverse], repeatable (default: report.group_by)")
	cmd.Flags().StringVar(&r.format, "format", "", "text|markdown|telegram (default: report.format)")
	cmd.Flags().StringVar(&r.title, "title", "", "Telegram digest title")
}

// reportRequest is a report with flags and config defaults resolved.
type reportRequest struct {
	groupings []group.Grouping
	format    report.Format
	filter    *filterFlags
	title     string
}

func (a *app) resolveReport(cmd *cobra.Command, r *reportFlags) (reportRequest, error) {
	req := reportRequest{filter: &r.filterFlags, title: r.title}
	if cmd.Flags().Changed("by") {
		gs, err := group.ParseGroupings(r.by)
		if err != nil {
			return req, usageError(err)
		}
		req.groupings = gs
	} else {
		req.groupings = a.cfg.Groupings()
	}
	format := a.cfg.Report.Format
	if r.format != "" {
		format = r.format
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return req, usageError(err)
	}
	req.format = f
	return req, nil
}

// render scans the vault and renders the report.
func (a *app) render(ctx context.Context, req reportRequest) (*vault.Vault, *group.Tree, string, error) {
	v, tasks, err := a.listTasks(ctx, req.filter)
	if err != nil {
		return nil, nil, "", err
	}
	tree := group.By(req.groupings, tasks)
	out := report.Render(tree, req.format, report.Options{Title: req.title, Now: a.now()})
	return v, tree, out, nil
}

func groupCmd(a *app) *cobra.Command {
	var r reportFlags
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Group the vault's tasks into a report",
		Long: `Group the vault's tasks by one or more properties and render the result.

Properties: backlink, done, due, filename, folder, heading, path, scheduled,
start, status. Append :reverse to sort a level's group names descending.

The report is printed, written into a note between tasker markers (--into),
or saved under the export directory (--export).`,
		Example: `  tasker group --by folder --by filename
  tasker group --by due:reverse --status todo --format telegram
  tasker group --into Reports/Tasks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.resolveReport(cmd, &r)
			if err != nil {
				return err
			}
			v, tree, out, err := a.render(cmd.Context(), req)
			if err != nil {
				return err
			}

			if r.into == "" && !r.export {
				if a.flags.JSON {
					return writeJSON(a.stdout, tree)
				}
				_, err := a.stdout.Write([]byte(out))
				return err
			}
			if r.into != "" {
				if err := report.WriteSection(v, r.into, out); err != nil {
					return err
				}
				a.info("Wrote report to: %s", r.into)
			}
			if r.export {
				dir := r.exportDir
				if dir == "" {
					dir = a.cfg.Report.ExportDir
				}
				if !filepath.IsAbs(dir) {
					dir = filepath.Join(v.Root, dir)
				}
				path, err := report.WriteExport(dir, "tasks", req.format.Ext(), []byte(out))
				if err != nil {
					return err
				}
				a.info("Wrote export to: %s", path)
			}
			return nil
		},
	}
	r.register(cmd)
	cmd.Flags().StringVar(&r.into, "into", "", "Upsert the report into this vault note")
	cmd.Flags().BoolVar(&r.export, "export", false, "Write the report to the export directory")
	cmd.Flags().StringVar(&r.exportDir, "export-dir", "", "Export directory (default: report.export_dir under the vault)")
	return cmd
}

func watchCmd(a *app) *cobra.Command {
	var r reportFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep a report note up to date as the vault changes",
		Long: `Render the report into a note, then re-render it whenever a Markdown
note in the vault changes. Changes are debounced (watch.debounce_ms) and the
report note itself is ignored. Stops on interrupt.`,
		Example: `  tasker watch --into Reports/Tasks --by due`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			note := r.into
			if note == "" {
				note = a.cfg.Report.Note
			}
			if note == "" {
				return usageError(errors.WithHint(
					errors.New("watch needs a report note"),
					"pass --into NOTE or set report.note",
				))
			}
			req, err := a.resolveReport(cmd, &r)
			if err != nil {
				return err
			}
			v, err := a.openVault()
			if err != nil {
				return err
			}
			notePath, err := v.NotePath(note)
			if err != nil {
				return err
			}

			update := func(ctx context.Context) error {
				_, tree, out, err := a.render(ctx, req)
				if err != nil {
					return err
				}
				if err := report.WriteSection(v, note, out); err != nil {
					return err
				}
				a.info("Updated %s (%d tasks)", note, tree.TotalTasks())
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := update(ctx); err != nil {
				return err
			}
			w, err := watch.New(v.Root, a.cfg.Watch.Debounce(), update)
			if err != nil {
				return err
			}
			w.Ignore(notePath)
			a.info("Watching %s (Ctrl-C to stop)", v.Root)
			return w.Run(ctx)
		},
	}
	r.register(cmd)
	cmd.Flags().StringVar(&r.into, "into", "", "Vault note to keep updated (default: report.note)")
	return cmd
}
