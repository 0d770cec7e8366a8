package packagekit

import (
	"github.com/pnnl/hone-ws-build/pkg/buildenv"
	"github.com/pnnl/hone-ws-build/pkg/toolrunner"
)

// PackageOptions is everything the package stage needs.
type PackageOptions struct {
	Version   buildenv.Version
	BuildRoot string // per-version build root, populated by a prior build
	SourceDir string // holds installer/, License.txt and Readme.html
	Target    Target

	ISCC       string // path to iscc.exe
	Descriptor string // installer script inside installer/, defaults to hone-ws.iss
	Runner     toolrunner.Runner
	RemoveTemp bool // remove temp/installer after success
}

// NewPackageOptions fills PackageOptions from a resolved configuration.
func NewPackageOptions(cfg *buildenv.Config) *PackageOptions {
	return &PackageOptions{
		Version:   cfg.Version,
		BuildRoot: cfg.BuildRoot,
		SourceDir: cfg.SourceDir,
		Target:    HoneWS,
		ISCC:      cfg.Toolchains.ISCC,
	}
}
