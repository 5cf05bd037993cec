// Package fsatomic provides crash-safe file replacement for the JSON
// documents this service shares with the boot sequence. A reader must
// observe either the previous complete file or the new complete file,
// never a partial write.
package fsatomic

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// SaveJSON atomically writes v as pretty JSON to path. It writes to
// path+".tmp", fsyncs the file, renames into place, then fsyncs the parent
// directory so the rename itself is durable. On any error the temp file is
// removed and the previous file, if any, is left untouched.
// If perm is 0, 0600 is used.
func SaveJSON(path string, v any, perm fs.FileMode) error {
	if perm == 0 {
		perm = 0o600
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := fsyncDir(filepath.Dir(path)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return fsyncDir(filepath.Dir(path))
}

// LoadJSON loads JSON from path into v. Returns exists=false if the file is
// missing. Reads never touch path+".tmp": a concurrent writer may have a
// fully-written temp file pending rename, and unlinking it would fail that
// write. Stale temp cleanup belongs to lock holders, see RemoveStale.
func LoadJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, err
	}
	return true, nil
}

// RemoveStale deletes a temp file a crashed writer may have left at
// path+".tmp". Callers must hold the write lock for path; from anywhere
// else the temp file may belong to a live write.
func RemoveStale(path string) error {
	if err := os.Remove(path + ".tmp"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Remove deletes path and persists the removal with a parent-directory
// fsync. A missing file is success: removal is idempotent.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return fsyncDir(filepath.Dir(path))
}

// WithLock runs fn while holding an exclusive advisory lock on path+".lock".
// The lock is visible to other processes reading the same file, which is the
// point: the boot-time logic shares these files with this service.
func WithLock(path string, fn func() error) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	unlock, err := flockExclusive(path + ".lock")
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
