//go:build windows
// +build windows

package buildenv

import (
	"golang.org/x/sys/windows/registry"
)

const innoSetupUninstallKey = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\Inno Setup 5_is1`

// innoSetupRegistryDir reads the install location recorded by the Inno
// Setup 5 installer. It is a 32-bit application, so the WOW64 view is used.
func innoSetupRegistryDir() (string, bool) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, innoSetupUninstallKey, registry.QUERY_VALUE|registry.WOW64_32KEY)
	if err != nil {
		return "", false
	}
	defer key.Close()

	dir, _, err := key.GetStringValue("InstallLocation")
	if err != nil || dir == "" {
		return "", false
	}
	return dir, true
}
