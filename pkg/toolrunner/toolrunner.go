// Package toolrunner runs the external toolchain programs (qmake,
// nmake, iscc). Callers depend on the Runner interface so tests can
// record invocations instead of spawning real toolchains.
package toolrunner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/pnnl/hone-ws-build/pkg/contexts/ctxlog"
)

// Runner runs name with args inside dir and waits for it to exit. err
// is only set when the program could not be run at all; a program that
// ran and failed reports a non-zero exit code.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (exitCode int, err error)
}

// ToolError reports an external tool that exited non-zero.
type ToolError struct {
	Tool string
	Code int
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed with error code %d", e.Tool, e.Code)
}

// Exec runs programs with os/exec. The working directory is set on the
// child process only; the caller's working directory never changes.
type Exec struct {
	stdout io.Writer
	stderr io.Writer

	execCC func(context.Context, string, ...string) *exec.Cmd // Allows test overrides
}

type Option func(*Exec)

// WithOutput sends the tool's stdout and stderr to the given writers.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Exec) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithExecCC replaces exec.CommandContext.
func WithExecCC(fn func(context.Context, string, ...string) *exec.Cmd) Option {
	return func(e *Exec) {
		e.execCC = fn
	}
}

// New returns an Exec runner. Tool output goes to the process's own
// stdout and stderr unless overridden.
func New(opts ...Option) *Exec {
	e := &Exec{
		stdout: os.Stdout,
		stderr: os.Stderr,
		execCC: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Exec) Run(ctx context.Context, dir, name string, args ...string) (int, error) {
	cmd := e.execCC(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	level.Debug(ctxlog.FromContext(ctx)).Log(
		"msg", "execing",
		"cmd", strings.Join(cmd.Args, " "),
		"dir", dir,
	)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, errors.Wrapf(err, "run command %s %v", name, args)
}

// Check runs a tool and turns both failure modes into an error. A
// non-zero exit is returned as *ToolError naming tool.
func Check(ctx context.Context, r Runner, tool, dir, name string, args ...string) error {
	code, err := r.Run(ctx, dir, name, args...)
	if err != nil {
		return errors.Wrapf(err, "%s could not be run", tool)
	}
	if code != 0 {
		return &ToolError{Tool: tool, Code: code}
	}
	return nil
}
