// Package fileops holds the only filesystem mutations performed while
// syncing a project with a template. Operations are synchronous and
// have no rollback: callers sequence them so that a partial failure leaves
// the project inspectable.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyFromTemplate copies templateRoot/key to dest.
//
// When dest already exists its permission bits are kept, so local mode
// changes on tracked files survive template updates. A new dest takes the
// source's permission bits. A missing source returns an error wrapping
// fs.ErrNotExist.
func CopyFromTemplate(templateRoot, key, dest string) error {
	src := filepath.Join(templateRoot, filepath.FromSlash(key))
	srcInfo, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("template file does not exist: %s: %w", src, fs.ErrNotExist)
		}
		return fmt.Errorf("checking template file %s: %w", src, err)
	}

	if err := EnsureParent(dest); err != nil {
		return err
	}

	mode := srcInfo.Mode().Perm()
	if destInfo, err := os.Stat(dest); err == nil {
		mode = destInfo.Mode().Perm()
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading template file %s: %w", src, err)
	}
	if err := os.WriteFile(dest, data, mode); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	// WriteFile only applies mode on create and is subject to umask
	if err := os.Chmod(dest, mode); err != nil {
		return fmt.Errorf("setting mode on %s: %w", dest, err)
	}
	return nil
}

// EnsureParent creates the parent directory of path.
func EnsureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating parent directory for %s: %w", path, err)
	}
	return nil
}

// RemoveFile deletes path. It is a no-op when path does not exist.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// CopyTreeOrFile copies src to target: recursively when src is a
// directory, otherwise as a single file. Modes and modification times are
// preserved.
func CopyTreeOrFile(src, target string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("checking %s: %w", src, err)
	}
	if info.IsDir() {
		return CopyTree(src, target, nil)
	}
	return CopyFile(src, target)
}

// SkipFunc reports whether a directory entry should be left out of a tree
// copy. rel is the slash-separated path relative to the copy root.
type SkipFunc func(rel string, d fs.DirEntry) bool

// CopyTree recursively copies the directory src to target. Entries for which
// skip returns true are not copied; a skipped directory is not descended.
// Symlinks are copied as links.
func CopyTree(src, target string, skip SkipFunc) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel != "." && skip != nil && skip(filepath.ToSlash(rel), d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		dest := filepath.Join(target, rel)
		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(dest, info.Mode().Perm()|0o700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, dest)
		case d.Type().IsRegular():
			return CopyFile(path, dest)
		default:
			// sockets, devices and pipes have no place in a project tree
			return nil
		}
	})
}

// CopyFile copies a single regular file, preserving its mode and
// modification time.
func CopyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if err := EnsureParent(dest); err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}

	if err := os.Chmod(dest, info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting mode on %s: %w", dest, err)
	}
	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("setting times on %s: %w", dest, err)
	}
	return nil
}
