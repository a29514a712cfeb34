package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/tasker-notes/internal/config"
)

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Show or change settings",
		Args:    cobra.NoArgs,
	}
	cmd.AddCommand(configShowCmd(a))
	cmd.AddCommand(configSetCmd(a))
	cmd.AddCommand(configWhereCmd(a))
	return cmd
}

func configShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.JSON {
				format = "json"
			}
			b, err := config.Marshal(a.cfg, format)
			if err != nil {
				return usageError(err)
			}
			_, err = a.stdout.Write(b)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml, json, toml")
	return cmd
}

func configSetCmd(a *app) *cobra.Command {
	var user bool
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a setting",
		Long: `Persist a setting in the vault config (<vault>/.tasker.yaml), the --config
file when given, or the user config with --user.

Lists (report.group_by) take comma-separated values.`,
		Example: `  tasker config set suggest.max_items 8
  tasker config set report.group_by folder,due:reverse
  tasker config set --user log.json true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.writablePath(user)
			if err := config.Set(path, args[0], args[1]); err != nil {
				return err
			}
			a.info("Set %s in %s", args[0], path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config (~/.tasker/config.yaml)")
	return cmd
}

func configWhereCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "where",
		Short: "List the config files, lowest precedence first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := config.Sources(a.configOptions(), a.cfg.Vault.Root)
			if a.flags.JSON {
				type source struct {
					Path   string `json:"path"`
					Exists bool   `json:"exists"`
				}
				out := make([]source, 0, len(sources))
				for _, p := range sources {
					out = append(out, source{Path: p, Exists: fileExists(p)})
				}
				return writeJSON(a.stdout, map[string]any{"sources": out, "env_prefix": config.EnvPrefix + "_"})
			}
			w := newTable(a.stdout)
			fmt.Fprintln(w, "PATH\tEXISTS")
			for _, p := range sources {
				fmt.Fprintf(w, "%s\t%t\n", p, fileExists(p))
			}
			return w.Flush()
		},
	}
}

func (a *app) writablePath(user bool) string {
	switch {
	case user:
		return config.UserConfigPath(a.configOptions())
	case a.flags.ConfigFile != "":
		return a.flags.ConfigFile
	default:
		return filepath.Join(a.cfg.Vault.Root, config.VaultFileName)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
