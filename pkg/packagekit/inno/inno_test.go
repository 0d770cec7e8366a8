package inno

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kolide/kit/env"
	"github.com/pkg/errors"
	"github.com/pnnl/hone-ws-build/pkg/toolrunner"
	"github.com/pnnl/hone-ws-build/pkg/toolrunner/toolrunnertest"
	"github.com/stretchr/testify/require"
)

const descriptor = `; Hone Wireshark Shim installer
#include "version.ini"
#define MyAppName "Hone Wireshark Shim"

[Setup]
AppId={{5C1F4E77-0E29-4C7B-9E2A-3B4D0E2F1A11}
AppName={#MyAppName}
AppVersion={#MyAppVersion}
OutputDir=dist
OutputBaseFilename=hone-setup
Compression=lzma
SolidCompression=yes

[Files]
Source: "hone-dumpcap.exe"; DestDir: "{app}"; Flags: ignoreversion
Source: "*.dll"; DestDir: "{app}"; Flags: ignoreversion

[Code]
function InitializeSetup(): Boolean;
begin
  Result := True;
end;
`

func writeFile(t *testing.T, path, contents string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		name       string
		descriptor string
		out        string
	}{
		{
			name:       "literal values",
			descriptor: descriptor,
			out:        filepath.Join("dist", "hone-setup.exe"),
		},
		{
			name: "preprocessor values",
			descriptor: `[Setup]
OutputDir={#OutDir}
OutputBaseFilename=Hone-WS-{#MyAppVersion}
`,
			out: filepath.Join("Output", "Hone-WS.exe"),
		},
		{
			name: "lower case keys",
			descriptor: `[setup]
outputbasefilename=custom
`,
			out: filepath.Join("Output", "custom.exe"),
		},
		{
			name:       "no setup section",
			descriptor: "[Files]\nSource: \"a.exe\"; DestDir: \"{app}\"\n",
			out:        filepath.Join("Output", "Hone-WS.exe"),
		},
	}

	for _, tt := range tests {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, DefaultDescriptor), tt.descriptor)

		c := New(dir)
		require.Equal(t, filepath.Join(dir, tt.out), c.OutputPath(context.Background()), tt.name)
	}
}

func TestOutputPathMissingDescriptor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(dir)
	require.Equal(t, filepath.Join(dir, "Output", "Hone-WS.exe"), c.OutputPath(context.Background()))
}

func TestCompile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultDescriptor), descriptor)

	rec := &toolrunnertest.Recorder{
		Handler: func(c toolrunnertest.Call) (int, error) {
			writeFile(t, filepath.Join(c.Dir, "dist", "hone-setup.exe"), "installer")
			return 0, nil
		},
	}

	iscc := filepath.Join("C:", "Program Files", "Inno Setup 5", "iscc.exe")
	out, err := New(dir, WithRunner(rec), WithISCC(iscc)).Compile(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "dist", "hone-setup.exe"), out)

	require.Len(t, rec.Calls, 1)
	require.Equal(t, dir, rec.Calls[0].Dir)
	require.Equal(t, iscc, rec.Calls[0].Name)
	require.Equal(t, []string{"hone-ws.iss"}, rec.Calls[0].Args)
}

func TestCompileFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &toolrunnertest.Recorder{
		Handler: func(c toolrunnertest.Call) (int, error) { return 2, nil },
	}

	_, err := New(dir, WithRunner(rec)).Compile(context.Background())
	require.EqualError(t, err, "Inno Setup compilation failed with error code 2")

	var toolErr *toolrunner.ToolError
	require.True(t, errors.As(err, &toolErr))
	require.Equal(t, 2, toolErr.Code)
}

func TestCompileNoOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &toolrunnertest.Recorder{}

	_, err := New(dir, WithRunner(rec), WithDescriptor("other.iss")).Compile(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "locating compiled installer")
	require.Equal(t, []string{"iscc other.iss"}, rec.Commands())
}

// TestCompileISCC runs a real compiler when one is named in the
// environment.
func TestCompileISCC(t *testing.T) {
	t.Parallel()

	iscc := env.String("HONE_WS_TEST_ISCC", "")
	if iscc == "" {
		t.Skip("HONE_WS_TEST_ISCC not set")
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hello.txt"), "hello")
	writeFile(t, filepath.Join(dir, DefaultDescriptor), `[Setup]
AppName=Hello
AppVersion=1.0
DefaultDirName={pf}\Hello
OutputBaseFilename=Hone-WS

[Files]
Source: "hello.txt"; DestDir: "{app}"
`)

	out, err := New(dir, WithISCC(iscc)).Compile(context.Background())
	require.NoError(t, err)
	require.FileExists(t, out)
}
