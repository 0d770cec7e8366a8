// Package toolrunnertest provides a recording toolrunner.Runner for
// tests that must not spawn real toolchains.
package toolrunnertest

import (
	"context"
	"path/filepath"
	"strings"
)

// Call is one recorded invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call as "<base name> <args...>", which keeps test
// expectations independent of the tool's directory.
func (c Call) String() string {
	return strings.Join(append([]string{filepath.Base(c.Name)}, c.Args...), " ")
}

// Recorder records every Run. When Handler is set, it is called to
// simulate the tool (for example by writing its outputs into Dir) and
// its result is returned; otherwise every run exits 0.
type Recorder struct {
	Calls   []Call
	Handler func(c Call) (int, error)
}

func (r *Recorder) Run(ctx context.Context, dir, name string, args ...string) (int, error) {
	c := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	r.Calls = append(r.Calls, c)

	if r.Handler == nil {
		return 0, nil
	}
	return r.Handler(c)
}

// Commands returns the String form of every recorded call.
func (r *Recorder) Commands() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.String()
	}
	return out
}
