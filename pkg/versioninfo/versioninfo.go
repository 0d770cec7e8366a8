// Package versioninfo renders the generated version files: version.h,
// included by the native resource scripts, and version.ini, included by
// the Inno Setup descriptor.
package versioninfo

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/pkg/errors"
)

const (
	HeaderFile           = "version.h"
	InstallerIncludeFile = "version.ini"

	timestampLayout = "2006-01-02 15:04:05"

	// Named in the header's provenance comment.
	generator = "hone-ws-build"
)

// Version is what the templates need from a product version.
type Version interface {
	String() string
	ResourceTuple() string
}

var headerTemplate = template.Must(template.New("version.h").Parse(
	`// -=-=-=-=-=- DO NOT EDIT THIS FILE! -=-=-=-=-=-
// Hone Wireshark Shim version number
// Automatically generated by {{.Generator}} on {{.Timestamp}}
#define HONE_WS_PRODUCTVERSION      {{.Tuple}}
#define HONE_WS_PRODUCTVERSION_STR  "{{.Dotted}}"
`))

var installerTemplate = template.Must(template.New("version.ini").Parse(
	`#define MyAppVersion "{{.Dotted}}"
`))

// Header renders version.h for v, stamped with now.
func Header(v Version, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	err := headerTemplate.Execute(&buf, struct {
		Generator string
		Timestamp string
		Tuple     string
		Dotted    string
	}{
		Generator: generator,
		Timestamp: now.Format(timestampLayout),
		Tuple:     v.ResourceTuple(),
		Dotted:    v.String(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "executing version.h template")
	}
	return buf.Bytes(), nil
}

// InstallerInclude renders version.ini for v.
func InstallerInclude(v Version) ([]byte, error) {
	var buf bytes.Buffer
	if err := installerTemplate.Execute(&buf, struct{ Dotted string }{v.String()}); err != nil {
		return nil, errors.Wrap(err, "executing version.ini template")
	}
	return buf.Bytes(), nil
}

// WriteHeader writes version.h into dir and returns its path. It is
// always rewritten, never reused.
func WriteHeader(dir string, v Version, now time.Time) (string, error) {
	contents, err := Header(v, now)
	if err != nil {
		return "", err
	}
	return write(filepath.Join(dir, HeaderFile), contents)
}

// WriteInstallerInclude writes version.ini into dir and returns its path.
func WriteInstallerInclude(dir string, v Version) (string, error) {
	contents, err := InstallerInclude(v)
	if err != nil {
		return "", err
	}
	return write(filepath.Join(dir, InstallerIncludeFile), contents)
}

func write(path string, contents []byte) (string, error) {
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	return path, nil
}
