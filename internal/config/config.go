// Package config loads tasker settings from defaults, YAML files and
// TASKER_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/amirbrooks/tasker-notes/internal/group"
	"github.com/amirbrooks/tasker-notes/internal/logger"
	"github.com/amirbrooks/tasker-notes/internal/report"
	"github.com/amirbrooks/tasker-notes/internal/suggest"
	"github.com/amirbrooks/tasker-notes/internal/task"
)

const (
	EnvPrefix     = "TASKER"
	VaultFileName = ".tasker.yaml"
)

type Config struct {
	Vault   VaultConfig      `mapstructure:"vault" json:"vault" yaml:"vault" toml:"vault"`
	Suggest suggest.Settings `mapstructure:"suggest" json:"suggest" yaml:"suggest" toml:"suggest"`
	Report  ReportConfig     `mapstructure:"report" json:"report" yaml:"report" toml:"report"`
	Watch   WatchConfig      `mapstructure:"watch" json:"watch" yaml:"watch" toml:"watch"`
	Log     LogConfig        `mapstructure:"log" json:"log" yaml:"log" toml:"log"`
}

type VaultConfig struct {
	Root string `mapstructure:"root" json:"root" yaml:"root" toml:"root"`
}

type ReportConfig struct {
	GroupBy   []string `mapstructure:"group_by" json:"group_by" yaml:"group_by" toml:"group_by"`
	Format    string   `mapstructure:"format" json:"format" yaml:"format" toml:"format"`
	Note      string   `mapstructure:"note" json:"note" yaml:"note" toml:"note"`
	ExportDir string   `mapstructure:"export_dir" json:"export_dir" yaml:"export_dir" toml:"export_dir"`
}

type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms" toml:"debounce_ms"`
}

func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

type LogConfig struct {
	JSON bool `mapstructure:"json" json:"json" yaml:"json" toml:"json"`
}

// SetDefaults registers a default for every key, which also makes each key
// visible to environment lookup during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("vault.root", ".")

	v.SetDefault("suggest.min_match", 0)
	v.SetDefault("suggest.max_items", suggest.DefaultMaxItems)
	sym := task.DefaultSymbols
	v.SetDefault("suggest.symbols.due", sym.Due)
	v.SetDefault("suggest.symbols.start", sym.Start)
	v.SetDefault("suggest.symbols.scheduled", sym.Scheduled)
	v.SetDefault("suggest.symbols.done", sym.Done)
	v.SetDefault("suggest.symbols.recurrence", sym.Recurrence)
	v.SetDefault("suggest.symbols.priority_high", sym.PriorityHigh)
	v.SetDefault("suggest.symbols.priority_medium", sym.PriorityMedium)
	v.SetDefault("suggest.symbols.priority_low", sym.PriorityLow)

	v.SetDefault("report.group_by", []string{"folder", "filename"})
	v.SetDefault("report.format", string(report.FormatMarkdown))
	v.SetDefault("report.note", "")
	v.SetDefault("report.export_dir", ".tasker/exports")

	v.SetDefault("watch.debounce_ms", 500)
	v.SetDefault("log.json", false)
}

// Options selects the files Load reads.
type Options struct {
	// File replaces the vault config file when set.
	File string
	// VaultRoot is where the vault config file is looked up; it also
	// overrides vault.root.
	VaultRoot string
	// UserDir holds the user config.yaml. Empty means ~/.tasker.
	UserDir string
}

// UserConfigPath is the per-user config file for opts.
func UserConfigPath(opts Options) string {
	dir := opts.UserDir
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".tasker")
	}
	return filepath.Join(dir, "config.yaml")
}

// Sources lists the config files Load reads, lowest precedence first.
func Sources(opts Options, vaultRoot string) []string {
	paths := []string{UserConfigPath(opts)}
	if opts.File != "" {
		return append(paths, opts.File)
	}
	if vaultRoot != "" {
		paths = append(paths, filepath.Join(vaultRoot, VaultFileName))
	}
	return paths
}

// Load builds a Config. Precedence, lowest first: defaults, the user file,
// the vault file (or opts.File), TASKER_* variables, opts.VaultRoot.
func Load(opts Options) (*Config, error) {
	v := newViper()

	if err := mergeFile(v, UserConfigPath(opts), false); err != nil {
		return nil, err
	}
	vaultRoot := opts.VaultRoot
	if vaultRoot == "" {
		vaultRoot = v.GetString("vault.root")
	}
	if opts.File != "" {
		if err := mergeFile(v, opts.File, true); err != nil {
			return nil, err
		}
	} else if vaultRoot != "" {
		if err := mergeFile(v, filepath.Join(vaultRoot, VaultFileName), false); err != nil {
			return nil, err
		}
	}
	if opts.VaultRoot != "" {
		v.Set("vault.root", opts.VaultRoot)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// mergeFile layers one config file into v below environment variables.
func mergeFile(v *viper.Viper, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.WithHint(errors.Wrapf(err, "config file %s", path), "check --config")
	}
	fileViper := viper.New()
	fileViper.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		fileViper.SetConfigType("yaml")
	}
	if err := fileViper.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	if err := v.MergeConfigMap(fileViper.AllSettings()); err != nil {
		return errors.Wrapf(err, "merge config %s", path)
	}
	logger.Logger.Debugw("config file loaded", "path", path)
	return nil
}

// Validate rejects values the commands cannot use.
func (c *Config) Validate() error {
	if c.Suggest.MinMatch < 0 {
		return errors.Newf("suggest.min_match must be >= 0, got %d", c.Suggest.MinMatch)
	}
	if c.Suggest.MaxItems < 0 {
		return errors.Newf("suggest.max_items must be >= 0, got %d", c.Suggest.MaxItems)
	}
	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		return errors.Wrap(err, "report.format")
	}
	if _, err := group.ParseGroupings(c.Report.GroupBy); err != nil {
		return errors.Wrap(err, "report.group_by")
	}
	return nil
}

// Groupings parses report.group_by. Load has already validated it.
func (c *Config) Groupings() []group.Grouping {
	gs, _ := group.ParseGroupings(c.Report.GroupBy)
	return gs
}
