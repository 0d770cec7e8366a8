// Package workspace manages the per-version build root: its directory
// layout, the scratch directories each stage works in, and the flat
// file copies used to harvest outputs.
package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/pnnl/hone-ws-build/pkg/contexts/ctxlog"
)

const dirPerms = 0755

// Workspace is a scratch directory owned by one stage. Acquiring it
// always yields an empty directory, so nothing from a previous run can
// leak into the next one.
type Workspace struct {
	dir             string
	removeOnRelease bool
	released        bool
}

type Option func(*Workspace)

// RemoveOnRelease makes Release delete the directory. By default it is
// left in place for inspection.
func RemoveOnRelease() Option {
	return func(w *Workspace) {
		w.removeOnRelease = true
	}
}

// Acquire creates dir, or empties it if it already exists.
func Acquire(ctx context.Context, dir string, opts ...Option) (*Workspace, error) {
	w := &Workspace{dir: dir}
	for _, opt := range opts {
		opt(w)
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, dirPerms); err != nil {
			return nil, errors.Wrapf(err, "creating workspace %s", dir)
		}
		return w, nil
	case err != nil:
		return nil, errors.Wrapf(err, "checking workspace %s", dir)
	case !info.IsDir():
		return nil, errors.Errorf("workspace %s is not a directory", dir)
	}

	if err := w.Clean(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// Dir returns the workspace path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Clean removes everything inside the workspace, keeping the directory.
func (w *Workspace) Clean(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return errors.Wrapf(err, "reading workspace %s", w.dir)
	}

	for _, entry := range entries {
		path := filepath.Join(w.dir, entry.Name())
		if entry.IsDir() {
			level.Debug(logger).Log("msg", "removing", "dir", path)
		}
		if err := os.RemoveAll(path); err != nil {
			return errors.Wrapf(err, "removing %s", path)
		}
	}
	return nil
}

// Release ends the stage's use of the workspace. Calling it more than
// once is harmless.
func (w *Workspace) Release(ctx context.Context) error {
	if w.released {
		return nil
	}
	w.released = true

	if !w.removeOnRelease {
		return nil
	}

	level.Debug(ctxlog.FromContext(ctx)).Log("msg", "removing workspace", "dir", w.dir)
	if err := os.RemoveAll(w.dir); err != nil {
		return errors.Wrapf(err, "removing workspace %s", w.dir)
	}
	return nil
}

// EnsureDir creates dir if needed. Used for the shared output
// directories that accumulate files across sub-projects.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return errors.Wrapf(err, "creating directory %s", dir)
	}
	return nil
}
