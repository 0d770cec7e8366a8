/* Package make compiles the native sub-projects of the Hone Wireshark
shim and harvests their outputs into the build root.

Each sub-project is a qmake project. It is configured and built in its
own scratch directory, which is emptied first, and the resulting
executables and debug symbols are copied into directories shared by all
sub-projects.
*/
package make

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-kit/kit/log/level"
	"github.com/mixer/clock"
	"github.com/pkg/errors"
	"github.com/pnnl/hone-ws-build/pkg/buildenv"
	"github.com/pnnl/hone-ws-build/pkg/contexts/ctxlog"
	"github.com/pnnl/hone-ws-build/pkg/toolrunner"
	"github.com/pnnl/hone-ws-build/pkg/versioninfo"
	"github.com/pnnl/hone-ws-build/pkg/workspace"
	"go.opencensus.io/trace"
)

// Subproject is one independently built native component.
type Subproject struct {
	Name        string // display name
	Dir         string // directory under the source tree
	ProjectFile string // qmake project descriptor inside Dir
}

// Subprojects are built in this order.
var Subprojects = []Subproject{
	{Name: "Hone Wireshark Shim", Dir: "shim", ProjectFile: "hone_dumpcap.pro"},
	{Name: "Hone Wireshark Hook", Dir: "hook", ProjectFile: "hook.pro"},
}

var (
	// QtRuntimeLibraries are copied from the Qt binary directory.
	QtRuntimeLibraries = []string{"Qt5Core.dll", "icuin52.dll", "icuuc52.dll", "icudt52.dll"}

	// VCRuntimeLibraries are copied from VCRedistDir under the Visual
	// C++ installation.
	VCRuntimeLibraries = []string{"msvcr110.dll", "msvcp110.dll"}
	VCRedistDir        = filepath.Join("redist", "x86", "Microsoft.VC110.CRT")
)

const (
	releaseConfig = "release"

	// Written by the compiler itself, not part of any product.
	compilerSymbolFile = "vc90.pdb"
)

type Builder struct {
	cfg    *buildenv.Config
	layout workspace.Layout
	runner toolrunner.Runner

	qmake       string
	nmake       string
	subprojects []Subproject
	removeTemp  bool
	clock       clock.Clock
}

type Option func(*Builder)

func WithRunner(r toolrunner.Runner) Option {
	return func(b *Builder) {
		b.runner = r
	}
}

// WithQMake sets the project generator. Defaults to qmake on PATH.
func WithQMake(path string) Option {
	return func(b *Builder) {
		b.qmake = path
	}
}

// WithNMake sets the native build tool. Defaults to nmake on PATH.
func WithNMake(path string) Option {
	return func(b *Builder) {
		b.nmake = path
	}
}

func WithSubprojects(projects ...Subproject) Option {
	return func(b *Builder) {
		b.subprojects = projects
	}
}

// WithRemoveTemp deletes each sub-project's scratch directory after a
// successful harvest.
func WithRemoveTemp() Option {
	return func(b *Builder) {
		b.removeTemp = true
	}
}

// WithClock sets the clock used to stamp version.h.
func WithClock(c clock.Clock) Option {
	return func(b *Builder) {
		b.clock = c
	}
}

func New(cfg *buildenv.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:         cfg,
		layout:      workspace.Layout{Root: cfg.BuildRoot},
		runner:      toolrunner.New(),
		qmake:       "qmake",
		nmake:       "nmake",
		subprojects: Subprojects,
		clock:       clock.DefaultClock{},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Result lists what a build stage produced.
type Result struct {
	VersionHeader    string
	Redistributables []string
	Executables      []string
	DebugSymbols     []string
}

// Run is the whole build stage: version header, runtime libraries, then
// each sub-project in order. The first failure stops the stage.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "make.Run")
	defer span.End()

	if err := workspace.EnsureDir(b.cfg.BuildRoot); err != nil {
		return nil, err
	}

	res := &Result{}

	header, err := b.GenerateVersionHeader(ctx)
	if err != nil {
		return nil, err
	}
	res.VersionHeader = header

	res.Redistributables, err = b.CopyRedistributables(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range b.subprojects {
		h, err := b.BuildSubproject(ctx, p)
		if err != nil {
			return nil, err
		}
		res.Executables = append(res.Executables, h.Executables...)
		res.DebugSymbols = append(res.DebugSymbols, h.DebugSymbols...)
	}

	return res, nil
}

// GenerateVersionHeader writes version.h into the source tree, where
// the resource scripts include it. It is regenerated on every run.
func (b *Builder) GenerateVersionHeader(ctx context.Context) (string, error) {
	ctx, span := trace.StartSpan(ctx, "make.GenerateVersionHeader")
	defer span.End()

	path, err := versioninfo.WriteHeader(b.cfg.SourceDir, b.cfg.Version, b.clock.Now())
	if err != nil {
		return "", errors.Wrap(err, "creating version file")
	}

	level.Info(ctxlog.FromContext(ctx)).Log("msg", "created version file", "path", path)
	return path, nil
}

// CopyRedistributables copies the Qt and Visual C++ runtime libraries
// into build_files. Every library is required.
func (b *Builder) CopyRedistributables(ctx context.Context) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "make.CopyRedistributables")
	defer span.End()

	level.Info(ctxlog.FromContext(ctx)).Log("msg", "copying DLLs")

	dst := b.layout.BuildFiles()
	if err := workspace.EnsureDir(dst); err != nil {
		return nil, err
	}

	var srcs []string
	for _, lib := range QtRuntimeLibraries {
		srcs = append(srcs, filepath.Join(b.cfg.Toolchains.QtDir, lib))
	}
	for _, lib := range VCRuntimeLibraries {
		srcs = append(srcs, filepath.Join(b.cfg.Toolchains.VCInstallDir, VCRedistDir, lib))
	}

	var copied []string
	for _, src := range srcs {
		path, err := workspace.CopyFile(ctx, src, dst)
		if err != nil {
			return nil, errors.Wrap(err, "copying runtime library")
		}
		copied = append(copied, path)
	}
	return copied, nil
}

// Harvest lists the files one sub-project contributed.
type Harvest struct {
	Executables  []string
	DebugSymbols []string
}

// BuildSubproject generates and builds p in a clean scratch directory,
// then harvests its release outputs.
func (b *Builder) BuildSubproject(ctx context.Context, p Subproject) (*Harvest, error) {
	ctx, span := trace.StartSpan(ctx, fmt.Sprintf("make.BuildSubproject.%s", p.Dir))
	defer span.End()

	ctx = ctxlog.With(ctx, "project", p.Dir)
	logger := ctxlog.FromContext(ctx)

	level.Info(logger).Log(
		"msg", "building",
		"name", p.Name,
		"version", b.cfg.Version.String(),
	)

	ws, err := workspace.Acquire(ctx, b.layout.BuildTemp(p.Dir), b.workspaceOpts()...)
	if err != nil {
		return nil, err
	}

	projectFile := filepath.Join(b.cfg.SourceDir, p.Dir, p.ProjectFile)
	if err := toolrunner.Check(ctx, b.runner, "qmake", ws.Dir(), b.qmake, projectFile); err != nil {
		return nil, err
	}

	if err := toolrunner.Check(ctx, b.runner, "nmake", ws.Dir(), b.nmake, releaseConfig); err != nil {
		return nil, err
	}

	level.Info(logger).Log("msg", "copying build files")

	h, err := b.harvest(ctx, filepath.Join(ws.Dir(), releaseConfig))
	if err != nil {
		return nil, errors.Wrapf(err, "harvesting %s", p.Name)
	}

	if err := ws.Release(ctx); err != nil {
		return nil, err
	}

	level.Debug(logger).Log(
		"msg", "Finished",
		"executables", len(h.Executables),
		"debug_symbols", len(h.DebugSymbols),
	)

	return h, nil
}

func (b *Builder) harvest(ctx context.Context, releaseDir string) (*Harvest, error) {
	binDir := b.layout.BuildFiles()
	if err := workspace.EnsureDir(binDir); err != nil {
		return nil, err
	}
	exes, err := workspace.CopyFiles(ctx, releaseDir, binDir, workspace.WithExt(".exe"))
	if err != nil {
		return nil, err
	}

	symDir := b.layout.DebugSymbols()
	if err := workspace.EnsureDir(symDir); err != nil {
		return nil, err
	}
	pdbs, err := workspace.CopyFiles(ctx, releaseDir, symDir, workspace.Excluding(workspace.WithExt(".pdb"), compilerSymbolFile))
	if err != nil {
		return nil, err
	}

	return &Harvest{Executables: exes, DebugSymbols: pdbs}, nil
}

func (b *Builder) workspaceOpts() []workspace.Option {
	if b.removeTemp {
		return []workspace.Option{workspace.RemoveOnRelease()}
	}
	return nil
}
