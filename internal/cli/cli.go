// Package cli implements the tasker command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/amirbrooks/tasker-notes/internal/config"
	"github.com/amirbrooks/tasker-notes/internal/logger"
	"github.com/amirbrooks/tasker-notes/internal/vault"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitNotFound = 3
	ExitConflict = 4
	ExitInternal = 10
)

// errUsage marks errors caused by bad arguments or settings.
var errUsage = errors.New("usage")

func usageError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, errUsage)
}

type globalFlags struct {
	Root       string
	ConfigFile string
	JSON       bool
	Plain      bool
	Quiet      bool
	Verbose    int
}

// app is the state shared by one invocation's commands.
type app struct {
	flags   globalFlags
	cfg     *config.Config
	userDir string
	stdout  io.Writer
	stderr  io.Writer
	now     func() time.Time
	started bool
}

// Run executes tasker with args and returns the process exit code.
func Run(args []string) int {
	return run(context.Background(), args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, now: time.Now}
	return a.execute(ctx, args)
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	if !a.started {
		// Flag parsing, argument checks and unknown commands fail before any
		// command starts.
		err = usageError(err)
	}
	a.printError(err)
	if errors.Is(err, errUsage) && !a.started {
		fmt.Fprintf(a.stderr, "Run '%s --help' for usage.\n", root.Name())
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, vault.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, vault.ErrConflict):
		return ExitConflict
	case errors.Is(err, vault.ErrInvalid), errors.Is(err, errUsage):
		return ExitUsage
	default:
		return ExitInternal
	}
}

func (a *app) printError(err error) {
	fmt.Fprintln(a.stderr, "tasker:", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintln(a.stderr, "hint:", hint)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tasker",
		Short: "Task metadata suggestions and grouped reports for Markdown notes",
		Long: `tasker reads checkbox tasks from a directory of Markdown notes (the vault).

It suggests task metadata (due, start and scheduled dates, priorities,
recurrence) for a line being typed, and groups the vault's tasks into
reports printed to stdout, written into a note, or exported.

Configuration sources (lowest precedence first):
  built-in defaults
  ~/.tasker/config.yaml
  <vault>/.tasker.yaml, or --config FILE
  TASKER_* environment variables (TASKER_SUGGEST_MAX_ITEMS=3)
  command line flags

Examples:
  tasker suggest "- [ ] pay rent 📅 to"
  tasker ls --status todo --tag work
  tasker group --by folder --by due:reverse
  tasker group --into Reports/Tasks
  tasker watch --into Reports/Tasks`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.started = true
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.Root, "root", "", "Vault root (default: vault.root, or the current directory)")
	pf.StringVar(&a.flags.ConfigFile, "config", "", "Config file used instead of <vault>/.tasker.yaml")
	pf.BoolVar(&a.flags.JSON, "json", false, "JSON output")
	pf.BoolVar(&a.flags.Plain, "plain", false, "TSV output")
	pf.BoolVar(&a.flags.Quiet, "quiet", false, "Suppress informational messages")
	pf.CountVarP(&a.flags.Verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")

	root.AddCommand(suggestCmd(a))
	root.AddCommand(lsCmd(a))
	root.AddCommand(groupCmd(a))
	root.AddCommand(watchCmd(a))
	root.AddCommand(configCmd(a))
	return root
}

// setup initialises logging and loads the configuration.
func (a *app) setup() error {
	if a.flags.JSON && a.flags.Plain {
		return usageError(errors.New("--json and --plain are mutually exclusive"))
	}
	if err := logger.Initialize(false, a.flags.Verbose); err != nil {
		return errors.Wrap(err, "initialize logger")
	}
	cfg, err := config.Load(a.configOptions())
	if err != nil {
		return usageError(err)
	}
	if cfg.Log.JSON {
		if err := logger.Initialize(true, a.flags.Verbose); err != nil {
			return errors.Wrap(err, "initialize logger")
		}
	}
	a.cfg = cfg
	logger.Logger.Debugw("config loaded", "vault", cfg.Vault.Root)
	return nil
}

func (a *app) configOptions() config.Options {
	return config.Options{File: a.flags.ConfigFile, VaultRoot: a.flags.Root, UserDir: a.userDir}
}

func (a *app) openVault() (*vault.Vault, error) {
	return vault.Open(a.cfg.Vault.Root, vault.WithSymbols(a.cfg.Suggest.Symbols))
}

// info prints a status line unless --quiet is set.
func (a *app) info(format string, args ...any) {
	if a.flags.Quiet {
		return
	}
	fmt.Fprintf(a.stdout, format+"\n", args...)
}
