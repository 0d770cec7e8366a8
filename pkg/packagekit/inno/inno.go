// Package inno wraps the Inno Setup command line compiler, iscc.exe.
//
// The compiler is run inside a staging directory that already holds the
// installer descriptor and every file it references. Where the compiled
// installer lands is decided by the descriptor's [Setup] section, which
// is read back after compilation.
package inno

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/pnnl/hone-ws-build/pkg/contexts/ctxlog"
	"github.com/pnnl/hone-ws-build/pkg/toolrunner"
	"go.opencensus.io/trace"
)

const (
	// DefaultDescriptor is the installer script shipped with the
	// installer resources.
	DefaultDescriptor = "hone-ws.iss"

	defaultOutputDir      = "Output"
	defaultOutputBaseName = "Hone-WS"

	toolName = "Inno Setup compilation"
)

type Compiler struct {
	iscc       string
	stagingDir string
	descriptor string
	runner     toolrunner.Runner
}

type Opt func(*Compiler)

// WithISCC sets the path to iscc.exe. Defaults to iscc on PATH.
func WithISCC(path string) Opt {
	return func(c *Compiler) {
		c.iscc = path
	}
}

func WithRunner(r toolrunner.Runner) Opt {
	return func(c *Compiler) {
		c.runner = r
	}
}

// WithDescriptor sets the installer script file name, relative to the
// staging directory.
func WithDescriptor(name string) Opt {
	return func(c *Compiler) {
		c.descriptor = name
	}
}

// New returns a compiler for the installer staged in stagingDir.
func New(stagingDir string, opts ...Opt) *Compiler {
	c := &Compiler{
		iscc:       "iscc",
		stagingDir: stagingDir,
		descriptor: DefaultDescriptor,
		runner:     toolrunner.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile runs iscc against the descriptor and returns the path of the
// installer it produced.
func (c *Compiler) Compile(ctx context.Context) (string, error) {
	ctx, span := trace.StartSpan(ctx, "inno.Compile")
	defer span.End()

	level.Info(ctxlog.FromContext(ctx)).Log("msg", "compiling installer", "descriptor", c.descriptor)

	if err := toolrunner.Check(ctx, c.runner, toolName, c.stagingDir, c.iscc, c.descriptor); err != nil {
		return "", err
	}

	out := c.OutputPath(ctx)
	if _, err := os.Stat(out); err != nil {
		return "", errors.Wrapf(err, "locating compiled installer %s", out)
	}

	return out, nil
}

// OutputPath is where iscc writes the installer: OutputDir and
// OutputBaseFilename from the descriptor's [Setup] section, relative to
// the staging directory. Values that are missing, unreadable, or built
// from preprocessor expressions fall back to Output/Hone-WS.exe.
func (c *Compiler) OutputPath(ctx context.Context) string {
	logger := ctxlog.FromContext(ctx)

	dir, base := defaultOutputDir, defaultOutputBaseName

	setup, err := c.setupSection()
	if err != nil {
		level.Debug(logger).Log("msg", "using default installer output", "err", err)
	} else {
		if v, ok := literal(setup, "OutputDir"); ok {
			dir = v
		}
		if v, ok := literal(setup, "OutputBaseFilename"); ok {
			base = v
		}
	}

	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.stagingDir, dir)
	}
	return filepath.Join(dir, base+".exe")
}

// Inno Setup scripts are only ini-like in their [Setup] section. The
// [Files] and [Code] sections hold lines go-ini cannot parse, so those
// are skipped.
func (c *Compiler) setupSection() (*ini.Section, error) {
	path := filepath.Join(c.stagingDir, c.descriptor)

	f, err := ini.LoadSources(ini.LoadOptions{
		Loose:                   true,
		Insensitive:             true,
		AllowBooleanKeys:        true,
		SkipUnrecognizableLines: true,
		IgnoreInlineComment:     true,
	}, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	setup, err := f.GetSection("Setup")
	if err != nil {
		return nil, errors.Wrapf(err, "no [Setup] section in %s", path)
	}
	return setup, nil
}

func literal(s *ini.Section, name string) (string, bool) {
	if !s.HasKey(name) {
		return "", false
	}
	v := strings.TrimSpace(s.Key(name).String())
	if v == "" || strings.Contains(v, "{") {
		return "", false
	}
	return v, true
}
