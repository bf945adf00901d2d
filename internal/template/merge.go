package template

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/appkit/internal/fileops"
	"github.com/ariel-frischer/appkit/internal/manifest"
	"github.com/rs/zerolog"
)

// BuilderConfigFile is only copied into merged trees on request.
const BuilderConfigFile = ".appbuilderconfig"

// skipped at the root of every ancestor. appkit.json holds project values
// and is managed separately after a sync.
var skipNames = map[string]bool{
	DescriptorFile: true,
	".gitignore":   true,
	"appkit.json":  true,
}

// MergeOptions controls BuildMerged.
type MergeOptions struct {
	// IncludeBuilderConfig copies .appbuilderconfig into the merged tree.
	IncludeBuilderConfig bool
	// TempDir is the parent for the merged directory. Empty means the
	// system temp directory.
	TempDir string
	// Logger receives skipped ancestors and the merge summary. Nil
	// discards them.
	Logger *zerolog.Logger
}

// BuildMerged resolves the ancestry of template name and copies every
// ancestor's files into a new temporary directory, ancestors first, so a
// descendant's file replaces an ancestor's file at the same path. It then
// writes manifest.json describing exactly the files in the merged tree,
// with each file's digest as both sha256 and last_commit.
//
// The caller owns the returned directory and must remove it.
func BuildMerged(cacheDir, name, typ string, opts MergeOptions) (string, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	mergedDir, err := os.MkdirTemp(opts.TempDir, "appkit-merged-")
	if err != nil {
		return "", fmt.Errorf("creating merged template directory: %w", err)
	}

	merged := manifest.Manifest{}
	for _, ancestor := range resolveParents(cacheDir, name, typ, log) {
		srcDir := Dir(cacheDir, typ, ancestor)
		if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
			log.Warn().
				Str("action", "build-merged-template").
				Str("missing_dir", srcDir).
				Str("parent", ancestor).
				Msg("template directory not in cache")
			continue
		}

		if err := copyAncestor(srcDir, mergedDir, opts, merged); err != nil {
			os.RemoveAll(mergedDir)
			return "", fmt.Errorf("merging template %s: %w", ancestor, err)
		}
	}

	if err := manifest.Write(filepath.Join(mergedDir, manifest.FileName), merged); err != nil {
		os.RemoveAll(mergedDir)
		return "", err
	}

	log.Debug().
		Str("action", "build-merged-template").
		Str("template", name).
		Str("type", typ).
		Int("files", len(merged)).
		Msg("merged template built")

	return mergedDir, nil
}

// copyAncestor copies the regular files of srcDir into mergedDir and
// records each copy in m.
func copyAncestor(srcDir, mergedDir string, opts MergeOptions, m manifest.Manifest) error {
	return filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if excluded(rel, opts) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		key := rel
		if path.Base(key) == "gitignore" {
			key = path.Join(path.Dir(key), ".gitignore")
		}

		dest := filepath.Join(mergedDir, filepath.FromSlash(key))
		if err := fileops.CopyFile(p, dest); err != nil {
			return err
		}

		// a descendant may have replaced an ancestor's file, so hash the copy
		digest, err := manifest.SHA256File(dest)
		if err != nil {
			return err
		}
		m[key] = manifest.FileMeta{LastCommit: digest, SHA256: digest, TemplatePath: key}
		return nil
	})
}

func excluded(rel string, opts MergeOptions) bool {
	first, _, _ := strings.Cut(rel, "/")
	switch {
	case skipNames[first]:
		return true
	case rel == manifest.FileName:
		return true
	case first == BuilderConfigFile && !opts.IncludeBuilderConfig:
		return true
	}
	return false
}
