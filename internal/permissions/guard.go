// Package permissions hardens on-disk authentication state to owner-only
// access. Failure to harden is reported to the caller for logging but is
// never fatal: the file stays usable, just without the tightened bits.
package permissions

import (
	"fmt"
	"os"
	"path/filepath"
)

// HardenFile restricts a file to owner-only read/write. The file must
// already exist.
func HardenFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot harden %s: %w", path, err)
	}
	return hardenFile(path)
}

// EnsureDir creates the parent directory of path if needed and restricts
// a newly created directory to owner-only read/write/execute. Existing
// directories are left untouched.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return hardenDir(dir)
}
