//go:build linux

package machineid

import (
	"os"
	"strings"
)

// machineIDFiles are the well-known machine-id locations on Linux.
// systemd writes /etc/machine-id; older D-Bus setups use the dbus path.
var machineIDFiles = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
}

// probeHardware reads the DMI product UUID exposed by the kernel. This is
// root-only on many distributions, in which case the read fails and the
// caller falls through to the fallback token.
var probeHardware = func() string {
	data, err := os.ReadFile("/sys/class/dmi/id/product_uuid")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
