// Package vault reads tasks out of a directory of Markdown notes.
package vault

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/amirbrooks/tasker-notes/internal/logger"
	"github.com/amirbrooks/tasker-notes/internal/task"
)

// Markers around a generated report inside a note. Tasks between them are
// not read back.
const (
	ReportStart = "<!-- TASKER_REPORT_START -->"
	ReportEnd   = "<!-- TASKER_REPORT_END -->"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
)

type Vault struct {
	Root   string
	parser *task.Parser
}

type Option func(*Vault)

// WithSymbols reads task metadata written with s instead of the default
// emoji.
func WithSymbols(s task.Symbols) Option {
	return func(v *Vault) { v.parser = task.NewParser(s) }
}

type ListFilter struct {
	Path   string // vault path prefix
	Status task.Status
	Tag    string // task tag or front matter tag
	Search string
}

// Open opens the vault rooted at root, which must be an existing directory.
func Open(root string, opts ...Option) (*Vault, error) {
	root = expandHome(strings.TrimSpace(root))
	if root == "" {
		return nil, errors.Wrap(ErrInvalid, "vault root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve vault root %s", root)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(
				errors.Wrapf(ErrNotFound, "vault %s", abs),
				"pass --root or set vault.root in the config",
			)
		}
		return nil, errors.Wrapf(err, "stat vault %s", abs)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrInvalid, "vault %s is not a directory", abs)
	}
	v := &Vault{Root: abs, parser: task.DefaultParser}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// ListTasks scans every Markdown note under the vault and returns the tasks
// matching f, ordered by note path then line. Hidden directories are skipped.
// A note that cannot be read or parsed is logged and skipped.
func (v *Vault) ListTasks(ctx context.Context, f ListFilter) ([]*task.Task, error) {
	var out []*task.Task
	notes := 0
	err := filepath.WalkDir(v.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Logger.Warnw("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != v.Root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsNote(d.Name()) {
			return nil
		}
		rel, err := v.Rel(path)
		if err != nil {
			return nil
		}
		if !f.matchesPath(rel) {
			return nil
		}
		note, err := v.readNote(path, rel)
		if err != nil {
			logger.Logger.Warnw("skipping note", "path", rel, "error", err)
			return nil
		}
		notes++
		for _, t := range note.Tasks() {
			if f.matches(t, note) {
				out = append(out, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan vault")
	}
	logger.Logger.Infow("vault scanned", "root", v.Root, "notes", notes, "tasks", len(out))
	return out, nil
}

// matchesPath reports whether rel is the filter's note or lies under its
// folder. Prefixes only match whole path segments.
func (f ListFilter) matchesPath(rel string) bool {
	p := strings.Trim(filepath.ToSlash(strings.TrimSpace(f.Path)), "/")
	if p == "" {
		return true
	}
	return rel == p || rel == p+".md" || strings.HasPrefix(rel, p+"/")
}

func (f ListFilter) matches(t *task.Task, n *Note) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Tag != "" && !t.HasTag(f.Tag) && !n.HasTag(f.Tag) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

// ParseStatus reads a --status value.
func ParseStatus(s string) (task.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "todo", "open":
		return task.StatusTodo, nil
	case "done":
		return task.StatusDone, nil
	default:
		return "", errors.WithHint(
			errors.Wrapf(ErrInvalid, "unknown status %q", s),
			"use todo or done",
		)
	}
}

// IsNote reports whether name is a Markdown note.
func IsNote(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".md")
}

// Rel converts an absolute path inside the vault to a vault path with forward
// slashes.
func (v *Vault) Rel(path string) (string, error) {
	rel, err := filepath.Rel(v.Root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Abs resolves a vault path to a file path, rejecting paths that escape the
// vault.
func (v *Vault) Abs(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", errors.Wrap(ErrInvalid, "note path is empty")
	}
	if filepath.IsAbs(rel) {
		return "", errors.Wrapf(ErrInvalid, "note path %s must be relative to the vault", rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", errors.Wrapf(ErrInvalid, "note path %s escapes the vault", rel)
	}
	return filepath.Join(v.Root, clean), nil
}

// NotePath is Abs with a .md extension added when missing.
func (v *Vault) NotePath(rel string) (string, error) {
	if !IsNote(rel) {
		rel += ".md"
	}
	return v.Abs(rel)
}

// ReadFile returns the raw content of a vault file, ErrNotFound if missing.
func (v *Vault) ReadFile(rel string) ([]byte, error) {
	path, err := v.Abs(rel)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "note %s", rel)
		}
		return nil, errors.Wrapf(err, "read %s", rel)
	}
	return b, nil
}

// WriteFile atomically replaces a vault file, creating parent directories.
func (v *Vault) WriteFile(rel string, data []byte) error {
	path, err := v.Abs(rel)
	if err != nil {
		return err
	}
	if err := AtomicWriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", rel)
	}
	logger.Logger.Infow("note written", "path", rel, "bytes", len(data))
	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || path == "~" {
		home, _ := os.UserHomeDir()
		if home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// AtomicWriteFile writes to a temporary file in the target directory and
// renames it over path.
func AtomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
