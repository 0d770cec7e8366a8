package packagekit

import (
	"context"
	"path/filepath"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/kit/fsutil"
	"github.com/pkg/errors"
	"github.com/pnnl/hone-ws-build/pkg/contexts/ctxlog"
	"github.com/pnnl/hone-ws-build/pkg/packagekit/inno"
	"github.com/pnnl/hone-ws-build/pkg/versioninfo"
	"github.com/pnnl/hone-ws-build/pkg/workspace"
	"go.opencensus.io/trace"
)

const (
	InstallerResourcesDir = "installer"
	LicenseFile           = "License.txt"
	ReadmeFile            = "Readme.html"
)

// PackageInnoSetup stages the harvested build files with the installer
// resources, compiles the installer, and copies it into installers/
// under its canonical name. It returns the installer's path.
func PackageInnoSetup(ctx context.Context, po *PackageOptions) (string, error) {
	ctx, span := trace.StartSpan(ctx, "packagekit.PackageInnoSetup")
	defer span.End()

	logger := ctxlog.FromContext(ctx)
	layout := workspace.Layout{Root: po.BuildRoot}

	if err := requireBuild(layout); err != nil {
		return "", err
	}

	level.Info(logger).Log("msg", "building installer", "version", po.Version.String())

	var wsOpts []workspace.Option
	if po.RemoveTemp {
		wsOpts = append(wsOpts, workspace.RemoveOnRelease())
	}
	ws, err := workspace.Acquire(ctx, layout.InstallerTemp(), wsOpts...)
	if err != nil {
		return "", err
	}

	level.Info(logger).Log("msg", "copying files needed by installer")

	if _, err := workspace.CopyFiles(ctx, layout.BuildFiles(), ws.Dir(), workspace.All); err != nil {
		return "", errors.Wrap(err, "staging build files")
	}
	if _, err := workspace.CopyFiles(ctx, filepath.Join(po.SourceDir, InstallerResourcesDir), ws.Dir(), workspace.All); err != nil {
		return "", errors.Wrap(err, "staging installer resources")
	}
	for _, name := range []string{LicenseFile, ReadmeFile} {
		if _, err := workspace.CopyFile(ctx, filepath.Join(po.SourceDir, name), ws.Dir()); err != nil {
			return "", errors.Wrap(err, "staging installer resources")
		}
	}

	level.Info(logger).Log("msg", "creating version file")
	if _, err := versioninfo.WriteInstallerInclude(ws.Dir(), po.Version); err != nil {
		return "", errors.Wrap(err, "creating installer version file")
	}

	innoOpts := []inno.Opt{}
	if po.ISCC != "" {
		innoOpts = append(innoOpts, inno.WithISCC(po.ISCC))
	}
	if po.Runner != nil {
		innoOpts = append(innoOpts, inno.WithRunner(po.Runner))
	}
	if po.Descriptor != "" {
		innoOpts = append(innoOpts, inno.WithDescriptor(po.Descriptor))
	}

	compiled, err := inno.New(ws.Dir(), innoOpts...).Compile(ctx)
	if err != nil {
		return "", err
	}

	if err := workspace.EnsureDir(layout.Installers()); err != nil {
		return "", err
	}

	installer := filepath.Join(layout.Installers(), po.Target.InstallerName(po.Version.String()))
	if err := fsutil.CopyFile(compiled, installer); err != nil {
		return "", errors.Wrapf(err, "copying %s to %s", compiled, installer)
	}

	if err := ws.Release(ctx); err != nil {
		return "", err
	}

	level.Debug(logger).Log("msg", "Finished", "installer", installer)

	return installer, nil
}
