package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/kit/fsutil"
	"github.com/pkg/errors"
	"github.com/pnnl/hone-ws-build/pkg/contexts/ctxlog"
)

// Filter selects files by base name.
type Filter func(name string) bool

// All matches every file.
func All(string) bool { return true }

// WithExt matches names ending in ext, ignoring case as Windows does.
func WithExt(ext string) Filter {
	return func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ext)
	}
}

// Excluding wraps f so the listed names never match.
func Excluding(f Filter, names ...string) Filter {
	return func(name string) bool {
		for _, n := range names {
			if strings.EqualFold(n, name) {
				return false
			}
		}
		return f(name)
	}
}

// CopyFiles copies the regular files directly inside srcDir that match
// filter into dstDir. Symlinks count as the file they point to; dangling
// links are skipped. Subdirectories are not descended into, so the
// result is always flat. The destination paths are returned in name
// order. A missing srcDir is an error.
func CopyFiles(ctx context.Context, srcDir, dstDir string, filter Filter) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", srcDir)
	}

	var copied []string
	for _, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		if !filter(entry.Name()) || !isRegularFile(entry, src) {
			continue
		}
		dst, err := CopyFile(ctx, src, dstDir)
		if err != nil {
			return copied, err
		}
		copied = append(copied, dst)
	}
	return copied, nil
}

func isRegularFile(entry os.DirEntry, path string) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CopyFile copies one named file into dstDir, keeping its base name.
func CopyFile(ctx context.Context, src, dstDir string) (string, error) {
	dst := filepath.Join(dstDir, filepath.Base(src))

	level.Info(ctxlog.FromContext(ctx)).Log("msg", "copying", "file", filepath.ToSlash(src))

	if err := fsutil.CopyFile(src, dst); err != nil {
		return "", errors.Wrapf(err, "copying %s to %s", src, dstDir)
	}
	return dst, nil
}
