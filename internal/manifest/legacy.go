package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LegacyFileName is the deprecated manifest written by older releases.
// It used repo-relative keys and MD5 digests, so it is never read; its
// presence only triggers MigrateLegacy.
const LegacyFileName = ".template_manifest.json"

// LegacyCommit marks entries whose local content differed from the
// template at migration time. It never equals a real change token, so the
// planner always falls through to hash comparison for these keys.
const LegacyCommit = "legacy_migrated"

// MigrateLegacy replaces a legacy manifest in projectRoot with a
// manifest.json synthesized from the merged template manifest.
//
// Only keys that exist on disk are recorded. Files whose digest matches the
// template take the template entry verbatim (the planner will skip them);
// files that differ get LegacyCommit so the planner prompts before
// overwriting. Missing files are omitted and will be created.
//
// Migration runs once: it is a no-op when manifest.json already exists or
// no legacy manifest is present. It returns the number of migrated entries.
func MigrateLegacy(mergedDir, projectRoot string) (int, error) {
	legacyPath := filepath.Join(projectRoot, LegacyFileName)
	newPath := filepath.Join(projectRoot, FileName)

	if fileExists(newPath) || !fileExists(legacyPath) {
		return 0, nil
	}

	templateMeta, err := Load(filepath.Join(mergedDir, FileName))
	if err != nil {
		return 0, fmt.Errorf("loading merged manifest: %w", err)
	}

	local := make(Manifest)
	for _, key := range templateMeta.Keys() {
		entry := templateMeta[key]
		localHash, err := SHA256File(filepath.Join(projectRoot, filepath.FromSlash(key)))
		if err != nil {
			return 0, err
		}
		if localHash == "" {
			continue
		}

		if localHash == entry.SHA256 {
			local[key] = entry
			continue
		}
		local[key] = FileMeta{
			LastCommit:   LegacyCommit,
			SHA256:       localHash,
			TemplatePath: entry.TemplatePath,
		}
	}

	if err := Write(newPath, local); err != nil {
		return 0, err
	}
	if err := os.Remove(legacyPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("removing legacy manifest: %w", err)
	}
	return len(local), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
