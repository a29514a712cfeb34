package report

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/oklog/ulid/v2"

	"github.com/amirbrooks/tasker-notes/internal/vault"
)

var (
	timeNow = func() time.Time { return time.Now().UTC() }

	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newULID() (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(timeNow()), entropy)
	if err != nil {
		return "", errors.Wrap(err, "generate export id")
	}
	return id.String(), nil
}

// WriteExport writes data to dir as <base>-<ULID>.<ext> and returns the path.
// Names sort by creation time.
func WriteExport(dir, base, ext string, data []byte) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.WithHint(errors.New("export directory is empty"), "set --export-dir")
	}
	base = strings.TrimSpace(base)
	if base == "" {
		base = "tasks"
	}
	id, err := newULID()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, base+"-"+id+"."+strings.TrimPrefix(ext, "."))
	if _, err := os.Stat(path); err == nil {
		return "", errors.Wrapf(vault.ErrConflict, "export %s already exists", path)
	}
	if err := vault.AtomicWriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write export %s", path)
	}
	return path, nil
}
