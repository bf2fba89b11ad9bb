//go:build !windows

package permissions

import (
	"fmt"
	"os"
)

func hardenFile(path string) error {
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set owner-only permissions on %s: %w", path, err)
	}
	return nil
}

func hardenDir(path string) error {
	if err := os.Chmod(path, 0700); err != nil {
		return fmt.Errorf("failed to set owner-only permissions on %s: %w", path, err)
	}
	return nil
}
