// Package template reads template descriptors from the local template
// cache, resolves their parent chains and builds merged template trees.
//
// Cache layout: the shared base template lives at <cache>/_app_common,
// every other template at <cache>/<type>/<name>. Each template directory
// carries a template.yaml descriptor.
package template

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DescriptorFile is the per-template metadata file.
	DescriptorFile = "template.yaml"
	// CommonTemplate is the shared base template stored at the cache root.
	CommonTemplate = "_app_common"
)

var (
	// ErrTemplateNotFound is returned when a template directory or its
	// descriptor is missing from the cache.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidDescriptor is returned when template.yaml fails to parse
	// or validate.
	ErrInvalidDescriptor = errors.New("invalid template descriptor")
)

// Descriptor is the parsed content of template.yaml.
type Descriptor struct {
	Contributor     string   `yaml:"contributor" validate:"required"`
	Description     string   `yaml:"description" validate:"required"`
	Name            string   `yaml:"name" validate:"required"`
	Summary         string   `yaml:"summary" validate:"required"`
	Type            string   `yaml:"type" validate:"required"`
	Version         string   `yaml:"version" validate:"required"`
	TemplateFiles   []string `yaml:"template_files"`
	TemplateParents []string `yaml:"template_parents"`

	semver *semver.Version
}

// SemVer returns the parsed descriptor version.
func (d *Descriptor) SemVer() *semver.Version {
	return d.semver
}

// InstallCommand returns the command that initialises a project from
// this template.
func (d *Descriptor) InstallCommand() string {
	return fmt.Sprintf("appkit init --type %s --template %s", d.Type, d.Name)
}

// Dir returns the cache directory of template name of type typ.
func Dir(cacheDir, typ, name string) string {
	if name == CommonTemplate {
		return filepath.Join(cacheDir, CommonTemplate)
	}
	return filepath.Join(cacheDir, typ, name)
}

var validate = validator.New()

// ReadDescriptor parses and validates template.yaml for the given template.
// The name and type fields always reflect the template's location in the
// cache, whatever the file says.
func ReadDescriptor(cacheDir, typ, name string) (*Descriptor, error) {
	path := filepath.Join(Dir(cacheDir, typ, name), DescriptorFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, path, err)
	}
	d.Name = name
	d.Type = typ

	if err := validate.Struct(&d); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, fmt.Errorf("%w: %s: field '%s' failed '%s'",
				ErrInvalidDescriptor, path, fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, path, err)
	}

	v, err := semver.NewVersion(d.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: version %q: %v", ErrInvalidDescriptor, path, d.Version, err)
	}
	d.semver = v

	return &d, nil
}
