package workspace

import "path/filepath"

// Build root layout:
//
//	hone_ws_<version>/   build root
//	  build_files/       files created by the build process
//	  debug_symbols/     PDB files for executables
//	  installers/        installers
//	  temp/              temporary files
//	    build/<project>/ temporary build files, one per sub-project
//	    installer/       temporary installer files
const (
	BuildFilesDir   = "build_files"
	DebugSymbolsDir = "debug_symbols"
	InstallersDir   = "installers"
	TempDir         = "temp"
	TempBuildDir    = "build"
	TempInstallDir  = "installer"
)

// Layout names the directories under one build root. Each directory
// has a single producer.
type Layout struct {
	Root string
}

func (l Layout) BuildFiles() string {
	return filepath.Join(l.Root, BuildFilesDir)
}

func (l Layout) DebugSymbols() string {
	return filepath.Join(l.Root, DebugSymbolsDir)
}

func (l Layout) Installers() string {
	return filepath.Join(l.Root, InstallersDir)
}

func (l Layout) Temp() string {
	return filepath.Join(l.Root, TempDir)
}

// BuildTemp is the scratch directory for one sub-project.
func (l Layout) BuildTemp(project string) string {
	return filepath.Join(l.Root, TempDir, TempBuildDir, project)
}

// InstallerTemp is the installer staging directory.
func (l Layout) InstallerTemp() string {
	return filepath.Join(l.Root, TempDir, TempInstallDir)
}
