//go:build !windows
// +build !windows

package buildenv

func innoSetupRegistryDir() (string, bool) {
	return "", false
}
