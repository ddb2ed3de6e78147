// Package store implements the content-addressed side of spec.md §2: a
// task stages bytes under a hash-derived name and gets back a stable URL
// other tasks can embed. Staged files stay under the cache directory:
// neither this package nor the finaliser copies them into dist/.
//
// Layout, adapted from the teacher's FileCache (internal/core/cache.go):
//
//	{cacheDir}/hash/{hex}.{ext}   -- staged blobs, written once, read many
//
// Writing is idempotent on hash collision (the same bytes always produce
// the same path, so a second Put of identical content is a no-op) and
// uses the teacher's temp-file-then-rename pattern so a crash mid-write
// never leaves a torn file at the canonical path.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/loomweave/loom/internal/engine"
)

// Store is the concrete, filesystem-backed engine.ContentStore.
type Store struct {
	cacheDir string
}

// New returns a Store staging blobs under cacheDir/hash.
func New(cacheDir string) *Store {
	return &Store{cacheDir: filepath.Join(cacheDir, "hash")}
}

var _ engine.ContentStore = (*Store)(nil)

// Put stages data under a content-addressed name and returns the URL
// (relative to the site root) other tasks should embed to reference it.
// ext, if non-empty, is appended to the hash verbatim (including any
// leading dot the caller wants); an empty ext yields an extensionless
// name.
func (s *Store) Put(data []byte, ext string) (string, error) {
	prov := engine.ComputeProvenance(data)
	name := prov.String() + ext
	dest := filepath.Join(s.cacheDir, name)

	if _, err := os.Stat(dest); err == nil {
		return "/hash/" + name, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("store: stat %s: %w", dest, err)
	}

	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("store: creating cache dir: %w", err)
	}
	if err := writeFileAtomic(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("store: staging %s: %w", name, err)
	}
	return "/hash/" + name, nil
}

// Path returns the on-disk staging path Put would use for data/ext,
// without writing anything.
func (s *Store) Path(data []byte, ext string) string {
	return filepath.Join(s.cacheDir, engine.ComputeProvenance(data).String()+ext)
}

// writeFileAtomic writes data to path via a same-directory temp file and
// an atomic rename, so a crash mid-write can never leave a torn file
// visible at path (adapted from the teacher's internal/core/cache.go
// writeFileAtomic).
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
