package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/tasker-notes/internal/group"
	"github.com/amirbrooks/tasker-notes/internal/task"
	"github.com/amirbrooks/tasker-notes/internal/vault"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(Options{VaultRoot: root, UserDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Vault.Root)
	assert.Equal(t, 0, cfg.Suggest.MinMatch)
	assert.Equal(t, 6, cfg.Suggest.MaxItems)
	assert.Equal(t, task.DefaultSymbols, cfg.Suggest.Symbols)
	assert.Equal(t, []string{"folder", "filename"}, cfg.Report.GroupBy)
	assert.Equal(t, "markdown", cfg.Report.Format)
	assert.Equal(t, ".tasker/exports", cfg.Report.ExportDir)
	assert.Equal(t, 500, cfg.Watch.DebounceMS)
	assert.False(t, cfg.Log.JSON)
	assert.Equal(t, []group.Grouping{{Property: group.Folder}, {Property: group.Filename}}, cfg.Groupings())
}

func TestLoad_Layering(t *testing.T) {
	root := t.TempDir()
	userDir := t.TempDir()
	writeFile(t, filepath.Join(userDir, "config.yaml"), `
suggest:
  min_match: 1
  max_items: 3
report:
  format: telegram
`)
	writeFile(t, filepath.Join(root, VaultFileName), `
suggest:
  max_items: 9
  symbols:
    due: "due:"
report:
  group_by: [due]
`)
	t.Setenv("TASKER_SUGGEST_MIN_MATCH", "2")

	cfg, err := Load(Options{VaultRoot: root, UserDir: userDir})
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Suggest.MinMatch, "env beats files")
	assert.Equal(t, 9, cfg.Suggest.MaxItems, "vault file beats user file")
	assert.Equal(t, "telegram", cfg.Report.Format, "user file beats defaults")
	assert.Equal(t, "due:", cfg.Suggest.Symbols.Due)
	assert.Equal(t, "🛫", cfg.Suggest.Symbols.Start, "unset nested keys keep defaults")
	assert.Equal(t, []string{"due"}, cfg.Report.GroupBy)
}

func TestLoad_ExplicitFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, VaultFileName), "suggest:\n  max_items: 9\n")
	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, explicit, "suggest:\n  max_items: 4\n")

	cfg, err := Load(Options{File: explicit, VaultRoot: root, UserDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Suggest.MaxItems)

	_, err = Load(Options{File: filepath.Join(root, "missing.yaml"), VaultRoot: root, UserDir: t.TempDir()})
	require.Error(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative max items", "suggest:\n  max_items: -1\n"},
		{"unknown format", "report:\n  format: html\n"},
		{"unknown grouping", "report:\n  group_by: [priority]\n"},
		{"negative debounce", "watch:\n  debounce_ms: -5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, VaultFileName), tt.content)

			_, err := Load(Options{VaultRoot: root, UserDir: t.TempDir()})
			require.Error(t, err)
		})
	}
}

func TestSet_RoundTrip(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, VaultFileName)
	writeFile(t, path, "# vault settings\nreport:\n  note: Reports/Tasks\n")

	require.NoError(t, Set(path, "suggest.max_items", "8"))
	require.NoError(t, Set(path, "report.group_by", "due:reverse, path"))
	require.NoError(t, Set(path, "log.json", "yes"))

	cfg, err := Load(Options{VaultRoot: root, UserDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Suggest.MaxItems)
	assert.Equal(t, []string{"due:reverse", "path"}, cfg.Report.GroupBy)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "Reports/Tasks", cfg.Report.Note, "existing keys survive")

	var raw map[string]any
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(b, &raw))
	assert.Equal(t, 8, raw["suggest"].(map[string]any)["max_items"])
}

func TestSet_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", VaultFileName)

	require.NoError(t, Set(path, "report.format", "telegram"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "format: telegram")
}

func TestSet_Rejects(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown key", "report.colour", "red"},
		{"not a number", "suggest.max_items", "many"},
		{"not a boolean", "log.json", "maybe"},
		{"invalid format", "report.format", "html"},
		{"invalid grouping", "report.group_by", "priority"},
		{"negative", "suggest.min_match", "-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), VaultFileName)

			err := Set(path, tt.key, tt.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, vault.ErrInvalid), "got %v", err)
			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr), "nothing written")
		})
	}
}

func TestMarshal_Formats(t *testing.T) {
	cfg, err := Load(Options{VaultRoot: t.TempDir(), UserDir: t.TempDir()})
	require.NoError(t, err)

	tests := []struct {
		format string
		want   []string
	}{
		{"yaml", []string{"max_items: 6", "group_by:", "debounce_ms: 500"}},
		{"json", []string{`"max_items": 6`, `"group_by": [`, `"debounce_ms": 500`}},
		{"toml", []string{"[suggest]", "max_items = 6", "debounce_ms = 500"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			b, err := Marshal(cfg, tt.format)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, string(b), w)
			}
		})
	}

	_, err = Marshal(cfg, "ini")
	require.Error(t, err)
}

func TestKeys_Sorted(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "suggest.symbols.due")
	assert.IsIncreasing(t, keys)
}
