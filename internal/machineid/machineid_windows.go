//go:build windows

package machineid

import (
	"golang.org/x/sys/windows/registry"
)

// Windows has no machine-id file; the registry holds the machine GUID.
var machineIDFiles []string

// probeHardware reads the MachineGuid written by Windows at install time.
var probeHardware = func() string {
	key, err := registry.OpenKey(
		registry.LOCAL_MACHINE,
		`SOFTWARE\Microsoft\Cryptography`,
		registry.QUERY_VALUE|registry.WOW64_64KEY,
	)
	if err != nil {
		return ""
	}
	defer key.Close()

	guid, _, err := key.GetStringValue("MachineGuid")
	if err != nil {
		return ""
	}
	return guid
}
