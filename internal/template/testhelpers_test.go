package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeDescriptor(t *testing.T, dir string, parents ...string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("contributor: Example Inc\n")
	b.WriteString("description: test template\n")
	b.WriteString("name: ignored\n")
	b.WriteString("summary: test template\n")
	b.WriteString("type: ignored\n")
	b.WriteString("version: 1.2.3\n")
	if len(parents) > 0 {
		b.WriteString("template_parents:\n")
		for _, p := range parents {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}
	writeFile(t, filepath.Join(dir, DescriptorFile), b.String())
}

// newCache builds a three level chain _app_common -> basic -> egress for
// the playbook type, plus an organization template.
func newCache(t *testing.T) string {
	t.Helper()
	cache := t.TempDir()

	common := filepath.Join(cache, CommonTemplate)
	writeDescriptor(t, common)
	writeFile(t, filepath.Join(common, "README.md"), "common readme")
	writeFile(t, filepath.Join(common, "requirements.txt"), "requests\n")
	writeFile(t, filepath.Join(common, "gitignore"), "*.pyc\n")
	writeFile(t, filepath.Join(common, ".gitignore"), "repo-only\n")
	writeFile(t, filepath.Join(common, "app.py"), "common app")

	basic := filepath.Join(cache, "playbook", "basic")
	writeDescriptor(t, basic, CommonTemplate)
	writeFile(t, filepath.Join(basic, "README.md"), "basic readme")
	writeFile(t, filepath.Join(basic, "app.py"), "basic app")
	writeFile(t, filepath.Join(basic, "playbook_app.py"), "pb")
	writeFile(t, filepath.Join(basic, "appkit.json"), `{"template_name": "basic"}`)
	writeFile(t, filepath.Join(basic, BuilderConfigFile), "builder")
	writeFile(t, filepath.Join(basic, "manifest.json"), `{"stale.txt": {"last_commit": "x", "sha256": "y", "template_path": "stale.txt"}}`)
	writeFile(t, filepath.Join(basic, "schemas", "manifest.json"), "{}")

	egress := filepath.Join(cache, "playbook", "egress")
	writeDescriptor(t, egress, "basic")
	writeFile(t, filepath.Join(egress, "app.py"), "egress app")

	org := filepath.Join(cache, "organization", "basic")
	writeDescriptor(t, org, CommonTemplate)
	writeFile(t, filepath.Join(org, "job_app.py"), "job")

	return cache
}
