package buildenv

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	qtMarkerLibrary  = "Qt5Core.dll"
	innoSetupSubpath = "Inno Setup 5"
	innoSetupBinary  = "iscc.exe"
	vsDevCmdSubpath  = `Microsoft Visual Studio 11.0\Common7\Tools\VsDevCmd.bat`
)

// Searched in order for an Inno Setup installation.
var programFilesEnvVars = []string{"ProgramFiles", "ProgramFiles(x86)"}

// Probed under the system drive when VCINSTALLDIR is unset.
var programFilesDirs = []string{"Program Files", "Program Files (x86)"}

// Toolchains records where the external toolchains live. ISCC is only
// populated when the install stage was requested.
type Toolchains struct {
	QtDir        string
	VCInstallDir string
	ISCC         string
}

// findInnoSetup returns the path of the Inno Setup 5 compiler.
func (r *resolver) findInnoSetup() (string, error) {
	for _, pfEnv := range programFilesEnvVars {
		pf, ok := r.env.LookupEnv(pfEnv)
		if !ok || pf == "" {
			continue
		}
		iscc := filepath.Join(pf, innoSetupSubpath, innoSetupBinary)
		if r.env.Exists(iscc) {
			return iscc, nil
		}
	}

	if r.innoRegistryLookup != nil {
		if dir, ok := r.innoRegistryLookup(); ok {
			iscc := filepath.Join(dir, innoSetupBinary)
			if r.env.Exists(iscc) {
				return iscc, nil
			}
		}
	}

	return "", errors.New("Inno Setup 5 compiler not found - Ensure Inno Setup 5 is installed to the standard Program Files location.")
}

// findQt infers the Qt SDK binary directory from the first PATH entry
// holding the Qt core runtime library.
func (r *resolver) findQt() (string, error) {
	path, _ := r.env.LookupEnv("PATH")
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if r.env.Exists(filepath.Join(dir, qtMarkerLibrary)) {
			return dir, nil
		}
	}

	return "", errors.New("Qt install directory not found - Ensure you are running in a Qt command window with Administrator privileges")
}

// findVisualC returns the Visual C++ installation directory. The
// developer environment script is never run on the user's behalf; when
// it exists but has not been run, the error says how to run it.
func (r *resolver) findVisualC() (string, error) {
	if dir, ok := r.env.LookupEnv("VCINSTALLDIR"); ok && dir != "" {
		return filepath.Clean(dir), nil
	}

	root := r.systemDrive + string(filepath.Separator)
	for _, pfDir := range programFilesDirs {
		vsPath := filepath.Join(root, pfDir, filepath.FromSlash(strings.Replace(vsDevCmdSubpath, `\`, "/", -1)))
		if r.env.Exists(vsPath) {
			return "", errors.Errorf("Visual Studio 2012 environment is not configured - In a Qt command window with Administrator privileges, run:\n   \"%s\"", vsPath)
		}
	}

	return "", errors.New("Visual Studio 2012 not found")
}
