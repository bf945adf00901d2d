// Package packager builds the deployable archive of a project.
package packager

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/ariel-frischer/appkit/internal/fileops"
	"github.com/ariel-frischer/appkit/internal/logging"
	"github.com/klauspost/compress/zip"
)

// Extension is the archive file extension.
const Extension = ".tcx"

// ErrNoVersion is returned when no package version is configured and none
// can be derived from install.json.
var ErrNoVersion = errors.New("package version unknown")

// Options controls Package.
type Options struct {
	// AppDir is the project root.
	AppDir string
	// OutputDir receives the archive; relative paths are under AppDir.
	OutputDir string
	AppName   string
	// Version is the archive version label, e.g. "v1". When empty it is
	// derived from install.json.
	Version string
	// Excludes are extra root-level patterns to leave out.
	Excludes []string
}

// Result describes a built package.
type Result struct {
	// Archive is the path of the .tcx file.
	Archive string
	// Dir is the name of the top-level directory inside the archive.
	Dir string
	// TemplateDir is the staged copy of the project reused between builds.
	TemplateDir string
}

// Package copies the project into <out>/build/template without the
// excluded entries, stages it as <out>/build/<app>_<version>, zips that
// directory into <out>/<app>_<version>.tcx and removes the staging copy.
func Package(opts Options) (*Result, error) {
	log := logging.Get("packager")
	if opts.AppName == "" {
		return nil, errors.New("package app name is required")
	}

	version := opts.Version
	if version == "" {
		var err error
		if version, err = VersionFromInstallJSON(opts.AppDir); err != nil {
			return nil, err
		}
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "target"
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(opts.AppDir, outDir)
	}
	buildDir := filepath.Join(outDir, "build")
	templateDir := filepath.Join(buildDir, "template")

	// leftovers of a failed build
	if err := os.RemoveAll(templateDir); err != nil {
		return nil, fmt.Errorf("cleaning %s: %w", templateDir, err)
	}

	ex := newExcluder(opts.AppDir, outDir, opts.Excludes)
	skip := func(rel string, _ fs.DirEntry) bool { return ex.excluded(rel) }
	if err := fileops.CopyTree(opts.AppDir, templateDir, skip); err != nil {
		return nil, fmt.Errorf("staging project: %w", err)
	}

	nameVersion := fmt.Sprintf("%s_%s", opts.AppName, version)
	appDir := filepath.Join(buildDir, nameVersion)
	if err := os.RemoveAll(appDir); err != nil {
		return nil, fmt.Errorf("cleaning %s: %w", appDir, err)
	}
	if err := fileops.CopyTree(templateDir, appDir, nil); err != nil {
		return nil, fmt.Errorf("staging %s: %w", nameVersion, err)
	}
	defer os.RemoveAll(appDir)

	archive := filepath.Join(outDir, nameVersion+Extension)
	if err := zipDir(buildDir, nameVersion, archive); err != nil {
		return nil, err
	}

	log.Info().Str("action", "package").Str("archive", archive).Msg("package built")
	return &Result{Archive: archive, Dir: nameVersion, TemplateDir: templateDir}, nil
}

// VersionFromInstallJSON returns "v<major>" of programVersion in
// appDir/install.json.
func VersionFromInstallJSON(appDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(appDir, "install.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: set package.app_version or add install.json", ErrNoVersion)
		}
		return "", fmt.Errorf("reading install.json: %w", err)
	}

	var ij struct {
		ProgramVersion string `json:"programVersion"`
	}
	if err := json.Unmarshal(data, &ij); err != nil {
		return "", fmt.Errorf("parsing install.json: %w", err)
	}
	if ij.ProgramVersion == "" {
		return "", fmt.Errorf("%w: install.json has no programVersion", ErrNoVersion)
	}
	v, err := semver.NewVersion(ij.ProgramVersion)
	if err != nil {
		return "", fmt.Errorf("%w: programVersion %q: %v", ErrNoVersion, ij.ProgramVersion, err)
	}
	return fmt.Sprintf("v%d", v.Major()), nil
}

// zipDir writes root/base and its contents to archive, with entry names
// starting at base.
func zipDir(root, base, archive string) (err error) {
	if err := fileops.EnsureParent(archive); err != nil {
		return err
	}
	out, err := os.Create(archive)
	if err != nil {
		return fmt.Errorf("creating %s: %w", archive, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", archive, cerr)
		}
	}()

	w := zip.NewWriter(out)
	walkErr := filepath.WalkDir(filepath.Join(root, base), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
			_, err = w.CreateHeader(hdr)
			return err
		}
		hdr.Method = zip.Deflate

		entry, err := w.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(entry, f)
		return err
	})
	if walkErr != nil {
		w.Close()
		return fmt.Errorf("writing %s: %w", archive, walkErr)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing %s: %w", archive, err)
	}
	return nil
}
