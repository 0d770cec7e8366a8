// Command hone-ws-build compiles the Hone Wireshark live-capture shim
// and hook, and packages them into an Inno Setup installer.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/kardianos/osext"
	"github.com/kolide/kit/logutil"
	"github.com/kolide/kit/version"
	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v3"
	"github.com/pkg/errors"
	"github.com/pnnl/hone-ws-build/pkg/buildenv"
	"github.com/pnnl/hone-ws-build/pkg/contexts/ctxlog"
	"github.com/pnnl/hone-ws-build/pkg/pipeline"
)

// Exit statuses.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	c := &cli{
		env:       buildenv.OSEnvironment{},
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		newLogger: logutil.NewCLILogger,
	}
	os.Exit(c.run(os.Args[1:]))
}

type cli struct {
	env       buildenv.Environment
	stdout    io.Writer
	stderr    io.Writer
	newLogger func(debug bool) log.Logger

	pipelineOpts []pipeline.Option
}

// run parses args, resolves the environment and runs the selected
// stages. It returns the process exit status.
func (c *cli) run(args []string) int {
	fs := flag.NewFlagSet("hone-ws-build", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var (
		flStage     = fs.String("s", "a", "stage to run (a=all [default], b=build, i=create installer)")
		flOutput    = fs.String("o", "", "output directory (default: source directory)")
		flVersion   = fs.String("v", "", `set build version as "major.minor" or "major.minor.build"`)
		flSource    = fs.String("source", defaultSourceDir(), "directory holding shim/, hook/ and installer/")
		flRemove    = fs.Bool("rmtemp", false, "remove temporary files after each successful stage")
		flDebug     = fs.Bool("debug", false, "use a debug logger")
		flBuildInfo = fs.Bool("build_info", false, "print build information and exit")
		_           = fs.String("config", "", "config file to read flags from (optional)")
	)

	fs.Usage = usageFor(fs, "hone-ws-build [flags]")

	ffOpts := []ff.Option{
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("HONE_WS"),
	}

	if err := ff.Parse(fs, args, ffOpts...); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(c.stderr, "hone-ws-build: error: %s\n", err)
		return exitUsage
	}

	if *flBuildInfo {
		version.PrintFull()
		return exitOK
	}

	logger := c.newLogger(*flDebug)
	ctx := ctxlog.NewContext(context.Background(), logger)

	cfg, err := buildenv.Resolve(c.env, buildenv.Request{
		Stage:     *flStage,
		Version:   *flVersion,
		Output:    *flOutput,
		SourceDir: *flSource,
	})
	if err != nil {
		fmt.Fprintf(c.stderr, "usage: hone-ws-build [-h] [-s STAGE] [-o DIR] [-v VERSION]\n")
		fmt.Fprintf(c.stderr, "hone-ws-build: error:\n%s\n", err)
		return exitUsage
	}

	opts := append([]pipeline.Option{}, c.pipelineOpts...)
	if *flRemove {
		opts = append(opts, pipeline.WithRemoveTemp())
	}

	report, err := runPipeline(ctx, cfg, opts...)
	if err != nil {
		level.Info(logger).Log("msg", "Build failed", "err", err, "stages", cfg.Stages.String())
		return exitFailure
	}

	level.Info(logger).Log("msg", "Build completed successfully", "build_root", report.BuildRoot)

	fmt.Fprintln(c.stdout, " * Build completed successfully!")
	for _, installer := range report.Installers {
		fmt.Fprintf(c.stdout, "   %s\n", installer)
	}
	return exitOK
}

// runPipeline runs the stages alongside a signal listener. An interrupt
// cancels the running tool and fails the run.
func runPipeline(ctx context.Context, cfg *buildenv.Config, opts ...pipeline.Option) (*pipeline.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		g      run.Group
		report *pipeline.Report
	)

	g.Add(func() error {
		var err error
		report, err = pipeline.Run(ctx, cfg, opts...)
		return err
	}, func(error) {
		cancel()
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	g.Add(func() error {
		select {
		case s := <-sig:
			level.Info(ctxlog.FromContext(ctx)).Log("msg", "beginning shutdown via signal", "signal_received", s)
			return errors.Errorf("interrupted by %s", s)
		case <-ctx.Done():
			return nil
		}
	}, func(error) {
		cancel()
	})

	if err := g.Run(); err != nil {
		return nil, err
	}
	return report, nil
}

// defaultSourceDir is the directory holding the executable, where the
// source tree is expected to sit.
func defaultSourceDir() string {
	dir, err := osext.ExecutableFolder()
	if err != nil {
		return "."
	}
	return dir
}
