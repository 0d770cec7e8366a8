// Package pipeline sequences the selected stages for one resolved
// configuration: the build stage, then the package stage. The first
// failing stage ends the run. Nothing is retried or rolled back; a
// rerun of the same stage starts from emptied scratch directories.
package pipeline

import (
	"context"

	"github.com/go-kit/kit/log/level"
	"github.com/mixer/clock"
	"github.com/pkg/errors"
	"github.com/pnnl/hone-ws-build/pkg/buildenv"
	"github.com/pnnl/hone-ws-build/pkg/contexts/ctxlog"
	"github.com/pnnl/hone-ws-build/pkg/make"
	"github.com/pnnl/hone-ws-build/pkg/packagekit"
	"github.com/pnnl/hone-ws-build/pkg/toolrunner"
	"go.opencensus.io/trace"
)

// Report is what a successful run produced.
type Report struct {
	BuildRoot  string
	Stages     buildenv.Stages
	Build      *make.Result // nil unless the build stage ran
	Installers []string
}

type options struct {
	runner     toolrunner.Runner
	removeTemp bool
	clock      clock.Clock
}

type Option func(*options)

// WithRunner runs every external tool through r.
func WithRunner(r toolrunner.Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithRemoveTemp removes each stage's scratch directory after it
// succeeds.
func WithRemoveTemp() Option {
	return func(o *options) {
		o.removeTemp = true
	}
}

func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Run executes the stages selected in cfg.
func Run(ctx context.Context, cfg *buildenv.Config, opts ...Option) (*Report, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	ctx = ctxlog.With(ctx, "version", cfg.Version.String())
	logger := ctxlog.FromContext(ctx)

	report := &Report{
		BuildRoot: cfg.BuildRoot,
		Stages:    cfg.Stages,
	}

	level.Debug(logger).Log(
		"msg", "starting",
		"stages", cfg.Stages.String(),
		"build_root", cfg.BuildRoot,
	)

	if cfg.Stages.Build {
		res, err := make.New(cfg, buildOpts(o)...).Run(ctxlog.With(ctx, "stage", "build"))
		if err != nil {
			return nil, errors.Wrap(err, "build stage")
		}
		report.Build = res
	}

	if cfg.Stages.Install {
		po := packagekit.NewPackageOptions(cfg)
		po.Runner = o.runner
		po.RemoveTemp = o.removeTemp

		installer, err := packagekit.PackageInnoSetup(ctxlog.With(ctx, "stage", "install"), po)
		if err != nil {
			return nil, errors.Wrap(err, "package stage")
		}
		report.Installers = append(report.Installers, installer)
	}

	return report, nil
}

func buildOpts(o *options) []make.Option {
	var opts []make.Option
	if o.runner != nil {
		opts = append(opts, make.WithRunner(o.runner))
	}
	if o.removeTemp {
		opts = append(opts, make.WithRemoveTemp())
	}
	if o.clock != nil {
		opts = append(opts, make.WithClock(o.clock))
	}
	return opts
}
