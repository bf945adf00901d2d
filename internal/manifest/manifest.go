// Package manifest reads, writes and compares manifest.json documents.
// A manifest maps a POSIX-style project-relative path to the metadata
// recorded for that file the last time it was synced from a template.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileName is the manifest file kept in the project root and in every
// merged template directory.
const FileName = "manifest.json"

// ErrStructure is returned when a manifest document is not a mapping of
// path to FileMeta object.
var ErrStructure = errors.New("manifest has unexpected structure")

// FileMeta is one manifest entry.
type FileMeta struct {
	// LastCommit is an opaque change token. Merged templates store the
	// content digest here since they have no commit of their own.
	LastCommit string `json:"last_commit"`
	// SHA256 is the hex digest of the file content.
	SHA256 string `json:"sha256"`
	// TemplatePath is the file location inside the merged template.
	TemplatePath string `json:"template_path"`
}

// Manifest maps a project-relative key to its metadata.
type Manifest map[string]FileMeta

// Keys returns the manifest keys in sorted order.
func (m Manifest) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads the manifest at path. A missing file yields an empty manifest.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, nil
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	// decode into raw objects first so a non-object top level or a
	// non-object entry is reported as a structural error, not a type mismatch
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
		}
		return nil, fmt.Errorf("%w: expected object at top-level in %s", ErrStructure, path)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected object at top-level in %s", ErrStructure, path)
	}

	m := make(Manifest, len(raw))
	for key, value := range raw {
		var meta FileMeta
		if err := json.Unmarshal(value, &meta); err != nil {
			return nil, fmt.Errorf("%w: entry %q in %s: %v", ErrStructure, key, path, err)
		}
		m[key] = meta
	}
	return m, nil
}

// Write stores m at path as indented JSON with sorted keys.
// The file is written to a temp file and renamed into place.
func Write(path string, m Manifest) error {
	if m == nil {
		m = Manifest{}
	}
	// encoding/json sorts map keys, which keeps the output stable
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp manifest: %w", err)
	}
	return nil
}

// CollectKeys returns the sorted keys of the template manifest and the
// sorted keys tracked locally that the template no longer ships.
func CollectKeys(template, local Manifest) (inTemplate, removed []string) {
	inTemplate = template.Keys()
	removed = make([]string, 0)
	for _, key := range local.Keys() {
		if _, ok := template[key]; !ok {
			removed = append(removed, key)
		}
	}
	return inTemplate, removed
}
