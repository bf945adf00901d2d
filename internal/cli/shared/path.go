package shared

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ResolvePath converts a raw path argument to an absolute path.
// It handles the following cases:
//   - Empty string or ".": returns current working directory
//   - "~" or "~/...": expands tilde to user home directory
//   - Relative path: resolves against current working directory
//   - Absolute path: returns unchanged
func ResolvePath(rawPath string) (string, error) {
	if rawPath == "" || rawPath == "." {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		return cwd, nil
	}

	if strings.HasPrefix(rawPath, "~") {
		expanded, err := expandTilde(rawPath)
		if err != nil {
			return "", fmt.Errorf("expanding tilde in path: %w", err)
		}
		rawPath = expanded
	}

	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return absPath, nil
}

// expandTilde expands a leading tilde (~) to the user's home directory.
// Supports both "~" alone and "~/path" forms.
func expandTilde(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", err)
	}
	if path == "~" {
		return u.HomeDir, nil
	}
	return filepath.Join(u.HomeDir, path[2:]), nil
}

// EnsureDirectory ensures the target path exists as a directory.
// Creates the directory (and any parents) with 0755 permissions if needed.
// Returns an error if:
//   - The path exists but is a file (not a directory)
//   - The directory cannot be created (e.g., permission denied)
func EnsureDirectory(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists and is not a directory: %s", path)
		}
		return nil
	}

	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", path, err)
		}
		return nil
	}

	return fmt.Errorf("checking path %s: %w", path, err)
}

// ProjectDir resolves the optional [path] argument of a project command.
// With create set, a missing directory is created.
func ProjectDir(args []string, create bool) (string, error) {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	}
	dir, err := ResolvePath(raw)
	if err != nil {
		return "", err
	}
	if create {
		if err := EnsureDirectory(dir); err != nil {
			return "", err
		}
		return dir, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("project directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path exists and is not a directory: %s", dir)
	}
	return dir, nil
}
