package packager

import (
	"path"
	"path/filepath"
	"strings"
)

// GlobExcludes are skipped at every level of the project tree.
var GlobExcludes = []string{
	"__pycache__",
	".pytest_cache",
	"*.iml",
	"*.pyc",
	"*.zip",
}

// BaseExcludes are skipped only in the project root.
var BaseExcludes = []string{
	".cache",
	".c9",
	".coverage",
	".coveragerc",
	".cspell",
	".env",
	".git",
	".gitignore",
	".gitlab-ci.yml",
	".gitmodules",
	".history",
	".idea",
	".pre-commit-config.yaml",
	".prettierrc.toml",
	".python-version",
	".template_manifest.json",
	".vscode",
	"angular.json",
	"app.yaml",
	"app_inputs*.json",
	"artifacts",
	"assets",
	"cspell.json",
	"deps_tests",
	"local-*",
	"log",
	"JIRA.html",
	"JIRA.md",
	"karma.conf.js",
	"package-lock.json",
	"package.json",
	"pyproject.toml",
	"README.html",
	"run_local.py",
	"target",
	"test-reports",
	"tests",
}

// excluder decides which entries of the project tree are left out.
type excluder struct {
	base  []string
	globs []string
}

// newExcluder builds the exclude lists for appDir. When outDir lies inside
// appDir its top-level directory is excluded too.
func newExcluder(appDir, outDir string, extra []string) *excluder {
	base := make([]string, 0, len(BaseExcludes)+len(extra)+1)
	base = append(base, BaseExcludes...)
	base = append(base, extra...)
	if rel, err := filepath.Rel(appDir, outDir); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
		base = append(base, first)
	}
	return &excluder{base: base, globs: GlobExcludes}
}

// excluded reports whether the entry at slash path rel is skipped. Root
// entries are checked against both lists, deeper entries only against the
// glob list.
func (e *excluder) excluded(rel string) bool {
	name := path.Base(rel)
	if matchAny(e.globs, name) {
		return true
	}
	return path.Dir(rel) == "." && matchAny(e.base, name)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
