package packagekit

import (
	"os"

	"github.com/pkg/errors"
	"github.com/pnnl/hone-ws-build/pkg/workspace"
)

// requireBuild checks that a build stage has populated layout.
func requireBuild(layout workspace.Layout) error {
	if err := isDirectory(layout.Root); err != nil {
		return errors.Wrapf(err, "build root %s does not exist: check version or try rebuilding", layout.Root)
	}
	if err := isDirectory(layout.BuildFiles()); err != nil {
		return errors.Wrapf(err, "no build files in %s: check version or try rebuilding", layout.Root)
	}
	return nil
}

func isDirectory(d string) error {
	dStat, err := os.Stat(d)
	if err != nil {
		return err
	}

	if !dStat.IsDir() {
		return errors.Errorf("%s isn't a directory", d)
	}

	return nil
}
