package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirbrooks/tasker-notes/internal/report"
	"github.com/amirbrooks/tasker-notes/internal/vault"
)

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newVault builds a small vault and points HOME at an empty directory so no
// user config leaks into the run.
func newVault(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()
	writeNote(t, root, "inbox.md", "# Inbox\n- [ ] pay rent 📅 2022-07-15 #home\n- [x] call mom ✅ 2022-07-10\n")
	writeNote(t, root, "projects/alpha.md", "## Plan\n- [ ] draft outline ⏫\n")
	return root
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestSuggest_JSON(t *testing.T) {
	root := newVault(t)

	code, out, errOut := runCLI(t, "--root", root, "--json", "suggest", "--today", "2022-07-11", "- [ ] pay 📅 to")
	require.Equal(t, ExitOK, code, errOut)

	var items []struct {
		DisplayText    string `json:"displayText"`
		AppendText     string `json:"appendText"`
		SuggestionType string `json:"suggestionType"`
		InsertAt       *int   `json:"insertAt"`
		InsertSkip     *int   `json:"insertSkip"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "today (2022-07-11)", items[0].DisplayText)
	assert.Equal(t, "📅 2022-07-11 ", items[0].AppendText)
	assert.Equal(t, "match", items[0].SuggestionType)
	require.NotNil(t, items[0].InsertAt)
	assert.Equal(t, strings.Index("- [ ] pay 📅 to", "📅"), *items[0].InsertAt)
	assert.Equal(t, len("📅 to"), *items[0].InsertSkip)
}

func TestSuggest_FlagsOverrideConfig(t *testing.T) {
	root := newVault(t)
	writeNote(t, root, ".tasker.yaml", "suggest:\n  max_items: 2\n")

	code, out, _ := runCLI(t, "--root", root, "--plain", "suggest", "- [ ] ")
	require.Equal(t, ExitOK, code)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3, "header plus two rows")

	code, out, _ = runCLI(t, "--root", root, "--plain", "suggest", "--max-items", "4", "- [ ] ")
	require.Equal(t, ExitOK, code)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 5)
	assert.Contains(t, out, "📅 due date\t\"📅 \"\t-\t-")
}

func TestSuggest_Table(t *testing.T) {
	root := newVault(t)

	code, out, _ := runCLI(t, "--root", root, "suggest", "--cursor", "6", "- [ ] ")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "SUGGESTION")
	assert.Contains(t, out, `"\n"`)

	code, out, _ = runCLI(t, "--root", root, "suggest", "plain text")
	require.Equal(t, ExitOK, code)
	assert.Equal(t, "No suggestions.\n", out)
}

func TestSuggest_UsageErrors(t *testing.T) {
	root := newVault(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing line", []string{"suggest"}},
		{"bad today", []string{"suggest", "--today", "tomorrow", "- [ ] "}},
		{"negative max items", []string{"suggest", "--max-items", "-1", "- [ ] "}},
		{"unknown flag", []string{"suggest", "--colour", "- [ ] "}},
		{"json and plain", []string{"--json", "--plain", "suggest", "- [ ] "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, append([]string{"--root", root}, tt.args...)...)
			assert.Equal(t, ExitUsage, code)
			assert.Contains(t, errOut, "tasker:")
		})
	}
}

func TestLs(t *testing.T) {
	root := newVault(t)

	code, out, errOut := runCLI(t, "--root", root, "--plain", "ls")
	require.Equal(t, ExitOK, code, errOut)
	assert.Equal(t, "LOCATION\tST\tPRI\tDUE\tTASK\n"+
		"inbox.md:2\ttodo\t-\t2022-07-15\tpay rent #home\n"+
		"inbox.md:3\tdone\t-\t-\tcall mom\n"+
		"projects/alpha.md:2\ttodo\tH\t-\tdraft outline\n", out)

	code, out, _ = runCLI(t, "--root", root, "--json", "ls", "--status", "todo", "--tag", "home")
	require.Equal(t, ExitOK, code)
	var payload struct {
		Tasks []struct {
			Description string `json:"description"`
			Path        string `json:"path"`
			Line        int    `json:"line"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Tasks, 1)
	assert.Equal(t, "inbox.md", payload.Tasks[0].Path)
	assert.Equal(t, 2, payload.Tasks[0].Line)

	code, out, _ = runCLI(t, "--root", root, "ls", "--search", "nothing like this")
	require.Equal(t, ExitOK, code)
	assert.Equal(t, "No tasks.\n", out)

	code, _, _ = runCLI(t, "--root", root, "ls", "--status", "blocked")
	assert.Equal(t, ExitUsage, code)
}

func TestLs_ReadsConfiguredSymbols(t *testing.T) {
	root := newVault(t)
	writeNote(t, root, ".tasker.yaml", "suggest:\n  symbols:\n    due: \"due:\"\n")
	writeNote(t, root, "bills.md", "- [ ] pay gas due: 2022-07-20\n")

	code, out, _ := runCLI(t, "--root", root, "--plain", "suggest", "--today", "2022-07-11", "- [ ] pay gas due:tod")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "\"due: 2022-07-11 \"")

	code, out, errOut := runCLI(t, "--root", root, "--plain", "ls", "--path", "bills")
	require.Equal(t, ExitOK, code, errOut)
	assert.Equal(t, "LOCATION\tST\tPRI\tDUE\tTASK\n"+
		"bills.md:1\ttodo\t-\t2022-07-20\tpay gas\n", out)
}

func TestLs_MissingVault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	code, _, errOut := runCLI(t, "--root", filepath.Join(t.TempDir(), "nope"), "ls")
	assert.Equal(t, ExitNotFound, code)
	assert.Contains(t, errOut, "hint:")
}

func TestGroup_Stdout(t *testing.T) {
	root := newVault(t)

	code, out, errOut := runCLI(t, "--root", root, "group")
	require.Equal(t, ExitOK, code, errOut)
	assert.Equal(t, "#### /\n"+
		"##### inbox\n"+
		"- [ ] pay rent #home 📅 2022-07-15\n"+
		"- [x] call mom ✅ 2022-07-10\n"+
		"\n"+
		"#### projects/\n"+
		"##### alpha\n"+
		"- [ ] draft outline ⏫\n"+
		"\n3 tasks\n", out)

	code, out, _ = runCLI(t, "--root", root, "group", "--by", "status:reverse", "--format", "text", "--status", "todo")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Group names: [Todo]\n#### Todo\n")
	assert.Contains(t, out, "2 tasks\n")

	code, out, _ = runCLI(t, "--root", root, "--json", "group", "--by", "filename")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, `"groupings": [`)
	assert.Contains(t, out, `"names": [`)
}

func TestGroup_UsageErrors(t *testing.T) {
	root := newVault(t)

	for _, args := range [][]string{
		{"group", "--by", "priority"},
		{"group", "--format", "html"},
		{"group", "extra"},
		{"frobnicate"},
	} {
		code, _, _ := runCLI(t, append([]string{"--root", root}, args...)...)
		assert.Equal(t, ExitUsage, code, "%v", args)
	}
}

func TestGroup_IntoNoteIsIdempotent(t *testing.T) {
	root := newVault(t)
	writeNote(t, root, "Reports/Tasks.md", "# Weekly\n\nNotes above.\n")

	code, out, errOut := runCLI(t, "--root", root, "group", "--into", "Reports/Tasks", "--by", "filename")
	require.Equal(t, ExitOK, code, errOut)
	assert.Equal(t, "Wrote report to: Reports/Tasks\n", out)

	first, err := os.ReadFile(filepath.Join(root, "Reports", "Tasks.md"))
	require.NoError(t, err)
	content := string(first)
	assert.True(t, strings.HasPrefix(content, "# Weekly\n\nNotes above.\n"))
	assert.Contains(t, content, report.SectionStart)
	assert.Contains(t, content, "#### alpha\n- [ ] draft outline ⏫\n")
	assert.Contains(t, content, report.SectionEnd)

	code, _, _ = runCLI(t, "--root", root, "--quiet", "group", "--into", "Reports/Tasks", "--by", "filename")
	require.Equal(t, ExitOK, code)
	second, err := os.ReadFile(filepath.Join(root, "Reports", "Tasks.md"))
	require.NoError(t, err)
	assert.Equal(t, content, string(second))
}

func TestGroup_Export(t *testing.T) {
	root := newVault(t)

	code, out, errOut := runCLI(t, "--root", root, "group", "--export", "--format", "telegram", "--title", "Vault")
	require.Equal(t, ExitOK, code, errOut)
	require.True(t, strings.HasPrefix(out, "Wrote export to: "))

	path := strings.TrimSpace(strings.TrimPrefix(out, "Wrote export to: "))
	assert.Equal(t, filepath.Join(root, ".tasker", "exports"), filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "tasks-"))
	assert.Equal(t, ".md", filepath.Ext(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "📋 Vault (3)\n"))

	// Exports live in a hidden directory, so they are not scanned back.
	code, out, _ = runCLI(t, "--root", root, "--plain", "ls")
	require.Equal(t, ExitOK, code)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)
}

func TestConfig_SetShowWhere(t *testing.T) {
	root := newVault(t)

	code, out, errOut := runCLI(t, "--root", root, "config", "set", "suggest.max_items", "3")
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, filepath.Join(root, ".tasker.yaml"))

	code, out, _ = runCLI(t, "--root", root, "config", "show", "--format", "toml")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "max_items = 3")

	code, out, _ = runCLI(t, "--root", root, "--json", "config", "show")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, `"max_items": 3`)

	code, out, _ = runCLI(t, "--root", root, "config", "where")
	require.Equal(t, ExitOK, code)
	var vaultLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, filepath.Join(root, ".tasker.yaml")) {
			vaultLine = line
		}
	}
	assert.True(t, strings.HasSuffix(vaultLine, "true"), "where output:\n%s", out)

	code, _, errOut = runCLI(t, "--root", root, "config", "set", "suggest.colour", "red")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "valid keys:")
}

func TestConfig_EnvOverridesFile(t *testing.T) {
	root := newVault(t)
	writeNote(t, root, ".tasker.yaml", "suggest:\n  max_items: 2\n")
	t.Setenv("TASKER_SUGGEST_MAX_ITEMS", "7")

	code, out, _ := runCLI(t, "--root", root, "--json", "config", "show")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, `"max_items": 7`)
}

func TestWatch_RequiresNote(t *testing.T) {
	root := newVault(t)

	code, _, errOut := runCLI(t, "--root", root, "watch")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "report.note")
}

func TestWatch_RewritesReportOnChange(t *testing.T) {
	root := newVault(t)
	t.Setenv("TASKER_WATCH_DEBOUNCE_MS", "50")
	reportPath := filepath.Join(root, "Reports", "Tasks.md")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"--root", root, "watch", "--into", "Reports/Tasks", "--by", "filename"}, io.Discard, io.Discard)
	}()

	require.Eventually(t, func() bool {
		b, err := os.ReadFile(reportPath)
		return err == nil && strings.Contains(string(b), "3 tasks")
	}, 5*time.Second, 20*time.Millisecond)

	// Let the watcher register before the vault changes.
	time.Sleep(200 * time.Millisecond)
	writeNote(t, root, "inbox.md", "# Inbox\n- [ ] pay rent\n- [ ] water plants\n")

	require.Eventually(t, func() bool {
		b, err := os.ReadFile(reportPath)
		return err == nil && strings.Contains(string(b), "- [ ] water plants")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, ExitOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.Wrap(vault.ErrNotFound, "note x"), ExitNotFound},
		{errors.Wrap(vault.ErrConflict, "export y"), ExitConflict},
		{errors.Wrap(vault.ErrInvalid, "status"), ExitUsage},
		{usageError(errors.New("bad flag")), ExitUsage},
		{errors.New("disk on fire"), ExitInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}
