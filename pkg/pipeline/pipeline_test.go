package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mixer/clock"
	"github.com/pkg/errors"
	"github.com/pnnl/hone-ws-build/pkg/buildenv"
	"github.com/pnnl/hone-ws-build/pkg/toolrunner"
	"github.com/pnnl/hone-ws-build/pkg/toolrunner/toolrunnertest"
	"github.com/pnnl/hone-ws-build/pkg/workspace"
	"github.com/stretchr/testify/require"
)

// hostEnv has fixed variables over the real filesystem.
type hostEnv map[string]string

func (h hostEnv) LookupEnv(key string) (string, bool) {
	v, ok := h[key]
	return v, ok
}

func (h hostEnv) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeFile(t *testing.T, path, contents string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func dirNames(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

type fixture struct {
	env hostEnv
	src string
}

// newFixture installs fake toolchains and a source tree.
func newFixture(t *testing.T) *fixture {
	root := t.TempDir()

	qtDir := filepath.Join(root, "Qt", "5.2.1", "bin")
	vcDir := filepath.Join(root, "vs", "VC")
	pf := filepath.Join(root, "Program Files")
	src := filepath.Join(root, "hone-ws")

	for _, lib := range []string{"Qt5Core.dll", "icuin52.dll", "icuuc52.dll", "icudt52.dll"} {
		writeFile(t, filepath.Join(qtDir, lib), lib)
	}
	for _, lib := range []string{"msvcr110.dll", "msvcp110.dll"} {
		writeFile(t, filepath.Join(vcDir, "redist", "x86", "Microsoft.VC110.CRT", lib), lib)
	}
	writeFile(t, filepath.Join(pf, "Inno Setup 5", "iscc.exe"), "iscc")

	writeFile(t, filepath.Join(src, "shim", "hone_dumpcap.pro"), "")
	writeFile(t, filepath.Join(src, "hook", "hook.pro"), "")
	writeFile(t, filepath.Join(src, "installer", "hone-ws.iss"), "[Setup]\nOutputDir=Output\n")
	writeFile(t, filepath.Join(src, "License.txt"), "license")
	writeFile(t, filepath.Join(src, "Readme.html"), "readme")

	return &fixture{
		env: hostEnv{
			"PATH":         qtDir,
			"VCINSTALLDIR": vcDir,
			"ProgramFiles": pf,
		},
		src: src,
	}
}

func (f *fixture) resolve(t *testing.T, stage, version string) *buildenv.Config {
	cfg, err := buildenv.Resolve(f.env, buildenv.Request{
		Stage:     stage,
		Version:   version,
		SourceDir: f.src,
	}, buildenv.WithInnoRegistryLookup(nil))
	require.NoError(t, err)
	return cfg
}

// fakeTools stands in for qmake, nmake and iscc.
func fakeTools(t *testing.T) *toolrunnertest.Recorder {
	return &toolrunnertest.Recorder{
		Handler: func(c toolrunnertest.Call) (int, error) {
			switch filepath.Base(c.Name) {
			case "nmake":
				project := filepath.Base(c.Dir)
				writeFile(t, filepath.Join(c.Dir, "release", project+".exe"), "exe")
				writeFile(t, filepath.Join(c.Dir, "release", project+".pdb"), "pdb")
				writeFile(t, filepath.Join(c.Dir, "release", "vc90.pdb"), "pdb")
			case "iscc.exe":
				writeFile(t, filepath.Join(c.Dir, "Output", "Hone-WS.exe"), "installer")
			}
			return 0, nil
		},
	}
}

func TestBuildThenInstall(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	mockClock := clock.NewMockClock(time.Date(2014, time.June, 2, 8, 0, 0, 0, time.Local))

	build := fakeTools(t)
	report, err := Run(ctx, f.resolve(t, "b", "2.1"), WithRunner(build), WithClock(mockClock))
	require.NoError(t, err)

	buildRoot := filepath.Join(f.src, "hone_ws_2.1")
	layout := workspace.Layout{Root: buildRoot}
	require.Equal(t, buildRoot, report.BuildRoot)
	require.Equal(t, buildenv.Stages{Build: true}, report.Stages)
	require.NotNil(t, report.Build)
	require.Empty(t, report.Installers)

	require.Equal(t, []string{"qmake", "nmake", "qmake", "nmake"}, baseNames(build))
	require.Subset(t, dirNames(t, layout.BuildFiles()), []string{"shim.exe", "hook.exe", "Qt5Core.dll", "msvcp110.dll"})
	require.ElementsMatch(t, []string{"shim.pdb", "hook.pdb"}, dirNames(t, layout.DebugSymbols()))
	require.NoDirExists(t, layout.Installers())

	header, err := os.ReadFile(filepath.Join(f.src, "version.h"))
	require.NoError(t, err)
	require.Contains(t, string(header), "2014-06-02 08:00:00")

	install := fakeTools(t)
	report, err = Run(ctx, f.resolve(t, "i", "2.1"), WithRunner(install))
	require.NoError(t, err)

	installer := filepath.Join(layout.Installers(), "Hone-WS-2.1-win7.exe")
	require.Equal(t, []string{installer}, report.Installers)
	require.Nil(t, report.Build)
	require.FileExists(t, installer)
	require.Equal(t, []string{"iscc.exe"}, baseNames(install))
}

func TestAllStages(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := fakeTools(t)

	report, err := Run(context.Background(), f.resolve(t, "a", "1.2.3"), WithRunner(rec), WithRemoveTemp())
	require.NoError(t, err)

	require.Equal(t, []string{"qmake", "nmake", "qmake", "nmake", "iscc.exe"}, baseNames(rec))
	require.Len(t, report.Installers, 1)
	require.FileExists(t, filepath.Join(f.src, "hone_ws_1.2.3", "installers", "Hone-WS-1.2.3-win7.exe"))
	require.Empty(t, dirNames(t, filepath.Join(f.src, "hone_ws_1.2.3", "temp", "build")))
	require.NoDirExists(t, filepath.Join(f.src, "hone_ws_1.2.3", "temp", "installer"))
}

func TestInstallWithoutBuild(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := fakeTools(t)

	_, err := Run(context.Background(), f.resolve(t, "i", "2.1"), WithRunner(rec))
	require.Error(t, err)
	require.Contains(t, err.Error(), "check version or try rebuilding")

	require.Empty(t, rec.Calls)
	require.NoDirExists(t, filepath.Join(f.src, "hone_ws_2.1"))
}

func TestBuildFailureSkipsInstall(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := fakeTools(t)
	tools := rec.Handler
	rec.Handler = func(c toolrunnertest.Call) (int, error) {
		if filepath.Base(c.Name) == "nmake" && filepath.Base(c.Dir) == "hook" {
			return 2, nil
		}
		return tools(c)
	}

	_, err := Run(context.Background(), f.resolve(t, "a", "2.1"), WithRunner(rec))
	require.EqualError(t, err, "build stage: nmake failed with error code 2")

	toolErr, ok := errors.Cause(err).(*toolrunner.ToolError)
	require.True(t, ok)
	require.Equal(t, "nmake", toolErr.Tool)

	require.Equal(t, []string{"qmake", "nmake", "qmake", "nmake"}, baseNames(rec))

	// Partial output is left for inspection.
	require.FileExists(t, filepath.Join(f.src, "hone_ws_2.1", "build_files", "shim.exe"))
}

func baseNames(r *toolrunnertest.Recorder) []string {
	var names []string
	for _, c := range r.Calls {
		names = append(names, filepath.Base(c.Name))
	}
	return names
}
