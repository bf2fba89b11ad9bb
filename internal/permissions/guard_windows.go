//go:build windows

package permissions

import (
	"context"
	"fmt"
	"os/exec"
	"os/user"
	"time"
)

// Windows ignores POSIX mode bits, so the ACL is rewritten instead:
// inheritance is stripped and full control granted to the current user
// only. icacls ships with every supported Windows version.

func hardenFile(path string) error {
	return restrictACL(path)
}

func hardenDir(path string) error {
	return restrictACL(path)
}

func restrictACL(path string) error {
	current, err := user.Current()
	if err != nil {
		return fmt.Errorf("failed to resolve current user: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "icacls", path,
		"/inheritance:r",
		"/grant:r", current.Username+":(F)",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to restrict ACL on %s: %w (%s)", path, err, out)
	}
	return nil
}
