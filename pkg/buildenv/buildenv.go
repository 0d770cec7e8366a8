// Package buildenv validates the command line and discovers the
// external toolchains before anything is written to disk.
//
// Resolve either returns a complete Config or an error listing every
// problem found; it never returns a partial configuration.
package buildenv

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// BuildRootPrefix is prepended to the version to name the build root.
const BuildRootPrefix = "hone_ws_"

// Request holds the raw, unvalidated command line values.
type Request struct {
	Stage     string // selector made of a, b and i
	Version   string
	Output    string // defaults to SourceDir
	SourceDir string // tree holding shim/, hook/, installer/ and the license files
}

// Config is a validated build configuration. It is not modified after
// Resolve returns.
type Config struct {
	Version    Version
	Stages     Stages
	SourceDir  string
	OutputDir  string
	BuildRoot  string
	Toolchains Toolchains
}

type resolver struct {
	env                Environment
	systemDrive        string
	innoRegistryLookup func() (string, bool)
}

type Option func(*resolver)

// WithSystemDrive overrides the drive probed for Visual Studio.
func WithSystemDrive(drive string) Option {
	return func(r *resolver) {
		r.systemDrive = drive
	}
}

// WithInnoRegistryLookup replaces the registry probe used as a last
// resort when locating Inno Setup. A nil func disables it.
func WithInnoRegistryLookup(fn func() (string, bool)) Option {
	return func(r *resolver) {
		r.innoRegistryLookup = fn
	}
}

// BuildRoot returns the per-version build root for an output directory.
func BuildRoot(outputDir string, version Version) string {
	return filepath.Join(outputDir, BuildRootPrefix+version.String())
}

// Resolve validates req against env. On failure the returned error is a
// *multierror.Error whose entries are sorted by message.
func Resolve(env Environment, req Request, opts ...Option) (*Config, error) {
	r := &resolver{
		env:                env,
		systemDrive:        `C:`,
		innoRegistryLookup: innoSetupRegistryDir,
	}
	if drive, ok := env.LookupEnv("SystemDrive"); ok && drive != "" {
		r.systemDrive = drive
	}
	for _, opt := range opts {
		opt(r)
	}

	var errs []error
	cfg := &Config{}

	stages, err := ParseStages(req.Stage)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Stages = stages

	version, versionErrs := ParseVersion(req.Version)
	errs = append(errs, versionErrs...)
	cfg.Version = version

	if cfg.Stages.Install {
		iscc, err := r.findInnoSetup()
		if err != nil {
			errs = append(errs, err)
		}
		cfg.Toolchains.ISCC = iscc
	}

	qtDir, err := r.findQt()
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Toolchains.QtDir = qtDir

	vcDir, err := r.findVisualC()
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Toolchains.VCInstallDir = vcDir

	sourceDir, err := filepath.Abs(req.SourceDir)
	if err != nil {
		errs = append(errs, errors.Wrapf(err, "resolving source directory %s", req.SourceDir))
	}
	cfg.SourceDir = sourceDir

	cfg.OutputDir = cfg.SourceDir
	if req.Output != "" {
		outputDir, err := filepath.Abs(req.Output)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "resolving output directory %s", req.Output))
		}
		cfg.OutputDir = outputDir
	}

	if len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	cfg.BuildRoot = BuildRoot(cfg.OutputDir, cfg.Version)

	return cfg, nil
}

func newValidationError(errs []error) *multierror.Error {
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Error() < errs[j].Error()
	})

	merr := &multierror.Error{
		Errors:      errs,
		ErrorFormat: bulletFormat,
	}
	return merr
}

func bulletFormat(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = fmt.Sprintf(" * %s", err)
	}
	return strings.Join(lines, "\n")
}
