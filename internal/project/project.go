// Package project reads and updates appkit.json, the per-project settings
// file recording which template the project follows and how it is packaged.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/appkit/internal/fileops"
)

// FileName is the project settings file in the project root.
const FileName = "appkit.json"

// ErrNotFound is returned when the project has no appkit.json.
var ErrNotFound = errors.New("project config not found")

// Package holds the packaging settings.
type Package struct {
	AppName    string   `json:"app_name"`
	AppVersion string   `json:"app_version,omitempty"`
	Excludes   []string `json:"excludes,omitempty"`
	OutputDir  string   `json:"output_dir,omitempty"`
}

// Config is the parsed appkit.json. Fields it does not model are kept and
// written back untouched.
type Config struct {
	TemplateName string  `json:"template_name,omitempty"`
	TemplateType string  `json:"template_type,omitempty"`
	Package      Package `json:"package"`

	path string
	raw  map[string]json.RawMessage
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Exists reports whether dir has an appkit.json.
func Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil && info.Mode().IsRegular()
}

// Load reads dir/appkit.json.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{path: path}
	if err := json.Unmarshal(data, &cfg.raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.raw == nil {
		cfg.raw = map[string]json.RawMessage{}
	}
	return cfg, nil
}

// SetTemplate records the template the project follows.
func (c *Config) SetTemplate(name, typ string) {
	c.TemplateName = name
	c.TemplateType = typ
}

// Save writes the template fields back to the file. Every other field,
// including package settings, is written exactly as it was read.
func (c *Config) Save() error {
	out := make(map[string]json.RawMessage, len(c.raw)+2)
	for k, v := range c.raw {
		out[k] = v
	}
	for key, value := range map[string]string{"template_name": c.TemplateName, "template_type": c.TemplateType} {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		out[key] = encoded
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding %s: %w", c.path, err)
	}
	if err := os.WriteFile(c.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	c.raw = out
	return nil
}

// Ensure makes sure projectDir has an appkit.json naming the template.
// A missing file is copied from the leaf template directory, which already
// names itself; an existing file only has its template fields rewritten.
// It reports whether a file was created.
func Ensure(projectDir, leafTemplateDir, name, typ string) (bool, error) {
	if !Exists(projectDir) {
		src := filepath.Join(leafTemplateDir, FileName)
		if _, err := os.Stat(src); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, fmt.Errorf("checking %s: %w", src, err)
		}
		if err := fileops.CopyFile(src, filepath.Join(projectDir, FileName)); err != nil {
			return false, err
		}
		return true, nil
	}

	cfg, err := Load(projectDir)
	if err != nil {
		return false, err
	}
	cfg.SetTemplate(name, typ)
	return false, cfg.Save()
}
