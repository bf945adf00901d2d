package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrUnsafePath is returned for archive entries that would land outside
// the extraction directory.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// ExtractZip extracts the archive at zipPath into dest. When every entry
// sits under one top-level directory, as in repository zipballs, that
// directory is stripped.
func ExtractZip(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer r.Close()

	prefix := wrapperDir(r.File)
	for _, f := range r.File {
		name := strings.TrimPrefix(f.Name, prefix)
		if name == "" {
			continue
		}
		target, err := safeJoin(dest, name)
		if err != nil {
			return err
		}
		if err := extractEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

// wrapperDir returns "top/" when all entries share the top-level directory
// top, otherwise "".
func wrapperDir(files []*zip.File) string {
	if len(files) == 0 {
		return ""
	}
	top, _, found := strings.Cut(files[0].Name, "/")
	if !found || top == "" || top == "." || top == ".." {
		return ""
	}
	prefix := top + "/"
	for _, f := range files {
		if !strings.HasPrefix(f.Name, prefix) {
			return ""
		}
	}
	return prefix
}

func safeJoin(dest, name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(name) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
		}
	}
	return filepath.Join(dest, filepath.FromSlash(name)), nil
}

func extractEntry(f *zip.File, target string) error {
	mode := f.Mode()
	switch {
	case f.FileInfo().IsDir():
		return os.MkdirAll(target, 0o755)
	case !mode.IsRegular():
		// symlinks and special files are not part of a template snapshot
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s in archive: %w", f.Name, err)
	}
	defer rc.Close()

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", target, err)
	}
	return nil
}
