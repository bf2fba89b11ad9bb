//go:build darwin

package machineid

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// macOS has no machine-id file; the IOKit registry is the only source.
var machineIDFiles []string

// probeHardware queries IOKit for the platform UUID. The subprocess runs
// under a short deadline so a wedged ioreg cannot stall identity
// resolution; on timeout or any other failure the caller falls through to
// the fallback token.
var probeHardware = func() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
	if err != nil {
		return ""
	}

	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, "IOPlatformUUID") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		return strings.Trim(strings.TrimSpace(parts[1]), `"`)
	}

	return ""
}
