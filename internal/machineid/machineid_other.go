//go:build !linux && !darwin && !windows

package machineid

// No known machine-id source on this platform; Resolve goes straight to
// the fallback token.
var machineIDFiles []string

var probeHardware = func() string {
	return ""
}
