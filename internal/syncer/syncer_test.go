package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ariel-frischer/appkit/internal/manifest"
	"github.com/ariel-frischer/appkit/internal/planner"
	"github.com/ariel-frischer/appkit/internal/project"
	"github.com/ariel-frischer/appkit/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCache struct {
	dir string
	err error
}

func (c staticCache) Ensure(context.Context, string) (string, error) { return c.dir, c.err }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func descriptor(parents ...string) string {
	s := "contributor: Example\ndescription: d\nsummary: s\nversion: 1.0.0\n"
	if len(parents) > 0 {
		s += "template_parents: [" + strings.Join(parents, ", ") + "]\n"
	}
	return s
}

// newCacheDir lays out _app_common and playbook/basic.
func newCacheDir(t *testing.T) string {
	t.Helper()
	cache := t.TempDir()
	common := filepath.Join(cache, template.CommonTemplate)
	writeFile(t, filepath.Join(common, template.DescriptorFile), descriptor())
	writeFile(t, filepath.Join(common, "requirements.txt"), "requests\n")
	writeFile(t, filepath.Join(common, "gitignore"), "*.pyc\n")

	basic := filepath.Join(cache, "playbook", "basic")
	writeFile(t, filepath.Join(basic, template.DescriptorFile), descriptor(template.CommonTemplate))
	writeFile(t, filepath.Join(basic, "app.py"), "v1")
	writeFile(t, filepath.Join(basic, project.FileName),
		`{"template_name": "basic", "template_type": "playbook", "package": {"app_name": "tcpb-basic"}}`)
	return cache
}

func newSyncer(t *testing.T, cacheDir string) (*Syncer, string) {
	t.Helper()
	tmp := t.TempDir()
	return New(staticCache{dir: cacheDir}, planner.New(planner.Policy{}), WithTempDir(tmp)), tmp
}

func answers(answer string, asked *[]string) planner.PromptFunc {
	return func(message string) (string, error) {
		*asked = append(*asked, message)
		return answer, nil
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	cache := newCacheDir(t)
	s, tmp := newSyncer(t, cache)
	proj := t.TempDir()
	writeFile(t, filepath.Join(proj, "app.py"), "pre-existing")

	var asked []string
	res, err := s.Init(context.Background(), Options{
		ProjectDir:   proj,
		Branch:       "v2",
		TemplateName: "basic",
		TemplateType: "playbook",
		Prompt:       answers("n", &asked),
	})
	require.NoError(t, err)

	assert.Empty(t, asked, "init never prompts")
	assert.Equal(t, "v1", readFile(t, filepath.Join(proj, "app.py")))
	assert.Equal(t, "*.pyc\n", readFile(t, filepath.Join(proj, ".gitignore")))
	assert.True(t, res.ConfigCreated)

	cfg, err := project.Load(proj)
	require.NoError(t, err)
	assert.Equal(t, "basic", cfg.TemplateName)
	assert.Equal(t, "tcpb-basic", cfg.Package.AppName)

	m, err := manifest.Load(filepath.Join(proj, manifest.FileName))
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "app.py", "requirements.txt"}, m.Keys())

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "merged template directory is removed")
}

func TestInit_RequiresTemplate(t *testing.T) {
	t.Parallel()

	s, _ := newSyncer(t, newCacheDir(t))
	_, err := s.Init(context.Background(), Options{ProjectDir: t.TempDir(), TemplateType: "playbook"})
	require.ErrorIs(t, err, ErrTemplateRequired)
}

func TestUpdate_Idempotent(t *testing.T) {
	t.Parallel()

	s, _ := newSyncer(t, newCacheDir(t))
	proj := t.TempDir()
	_, err := s.Init(context.Background(), Options{ProjectDir: proj, TemplateName: "basic", TemplateType: "playbook"})
	require.NoError(t, err)

	var asked []string
	res, err := s.Update(context.Background(), Options{ProjectDir: proj, Prompt: answers("y", &asked)})
	require.NoError(t, err)
	assert.True(t, res.Plan.IsNoop())
	assert.Len(t, res.Plan.Skip, 3)
	assert.Empty(t, asked)
	assert.False(t, res.ConfigCreated)
}

func TestUpdate_ReplacesProjectManifest(t *testing.T) {
	t.Parallel()

	s, _ := newSyncer(t, newCacheDir(t))
	proj := t.TempDir()
	_, err := s.Init(context.Background(), Options{ProjectDir: proj, TemplateName: "basic", TemplateType: "playbook"})
	require.NoError(t, err)

	// a read-only manifest cannot be truncated in place, only replaced
	manifestPath := filepath.Join(proj, manifest.FileName)
	require.NoError(t, os.Chmod(manifestPath, 0o444))

	_, err = s.Update(context.Background(), Options{ProjectDir: proj, Force: true})
	require.NoError(t, err)

	m, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "app.py", "requirements.txt"}, m.Keys())
	assert.Equal(t, m["app.py"].SHA256, m["app.py"].LastCommit)
	assert.NoFileExists(t, manifestPath+".tmp")

	info, err := os.Stat(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestUpdate_TemplateChanged(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		localEdit  bool
		answer     string
		wantApp    string
		wantPrompt bool
	}{
		"unedited file is prompted and accepted": {
			answer:     "y",
			wantApp:    "v2",
			wantPrompt: true,
		},
		"edited file declined keeps local copy": {
			localEdit:  true,
			answer:     "n",
			wantApp:    "mine",
			wantPrompt: true,
		},
		"edited file accepted": {
			localEdit:  true,
			answer:     "yes",
			wantApp:    "v2",
			wantPrompt: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cache := newCacheDir(t)
			s, _ := newSyncer(t, cache)
			proj := t.TempDir()
			_, err := s.Init(context.Background(), Options{ProjectDir: proj, TemplateName: "basic", TemplateType: "playbook"})
			require.NoError(t, err)

			writeFile(t, filepath.Join(cache, "playbook", "basic", "app.py"), "v2")
			if tt.localEdit {
				writeFile(t, filepath.Join(proj, "app.py"), "mine")
			}

			var asked []string
			var planned *planner.Plan
			res, err := s.Update(context.Background(), Options{
				ProjectDir: proj,
				Prompt:     answers(tt.answer, &asked),
				OnPlan:     func(p *planner.Plan) { planned = p },
			})
			require.NoError(t, err)

			assert.Same(t, res.Plan, planned)
			assert.Equal(t, tt.wantPrompt, len(asked) == 1)
			assert.Equal(t, tt.wantApp, readFile(t, filepath.Join(proj, "app.py")))
		})
	}
}

func TestUpdate_RemovedTemplateFile(t *testing.T) {
	t.Parallel()

	cache := newCacheDir(t)
	s, _ := newSyncer(t, cache)
	proj := t.TempDir()
	_, err := s.Init(context.Background(), Options{ProjectDir: proj, TemplateName: "basic", TemplateType: "playbook"})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(cache, template.CommonTemplate, "requirements.txt")))

	res, err := s.Update(context.Background(), Options{ProjectDir: proj})
	require.NoError(t, err)
	assert.Equal(t, []string{"requirements.txt"}, res.Applied.Removed)
	assert.NoFileExists(t, filepath.Join(proj, "requirements.txt"))

	m, err := manifest.Load(filepath.Join(proj, manifest.FileName))
	require.NoError(t, err)
	assert.NotContains(t, m, "requirements.txt")
}

func TestUpdate_PreservesProjectSettings(t *testing.T) {
	t.Parallel()

	s, _ := newSyncer(t, newCacheDir(t))
	proj := t.TempDir()
	writeFile(t, filepath.Join(proj, project.FileName),
		`{"template_type": "playbook", "package": {"app_name": "tcpb-custom"}}`)

	res, err := s.Update(context.Background(), Options{ProjectDir: proj, TemplateName: "basic"})
	require.NoError(t, err)
	assert.Equal(t, "basic", res.TemplateName)

	cfg, err := project.Load(proj)
	require.NoError(t, err)
	assert.Equal(t, "basic", cfg.TemplateName)
	assert.Equal(t, "tcpb-custom", cfg.Package.AppName)
}

func TestUpdate_LegacyMigration(t *testing.T) {
	t.Parallel()

	s, _ := newSyncer(t, newCacheDir(t))
	proj := t.TempDir()
	writeFile(t, filepath.Join(proj, project.FileName), `{"template_name": "basic", "template_type": "playbook"}`)
	writeFile(t, filepath.Join(proj, manifest.LegacyFileName), `{"old": "md5"}`)
	writeFile(t, filepath.Join(proj, "requirements.txt"), "requests\n")
	writeFile(t, filepath.Join(proj, "app.py"), "locally changed")

	var asked []string
	res, err := s.Update(context.Background(), Options{ProjectDir: proj, Prompt: answers("n", &asked)})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Migrated)
	assert.NoFileExists(t, filepath.Join(proj, manifest.LegacyFileName))
	// matching file skipped, differing file prompted, missing file created
	assert.Equal(t, []string{"requirements.txt"}, keys(res.Plan.Skip))
	require.Len(t, asked, 1)
	assert.Contains(t, asked[0], "app.py")
	assert.Equal(t, "locally changed", readFile(t, filepath.Join(proj, "app.py")))
	assert.FileExists(t, filepath.Join(proj, ".gitignore"))
}

func TestUpdate_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		config *string
		name   string
		typ    string
		check  func(t *testing.T, err error)
	}{
		"no project config": {
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMissingProjectConfig) },
		},
		"template flag conflicts": {
			config: strPtr(`{"template_name": "basic", "template_type": "playbook"}`),
			name:   "other",
			check: func(t *testing.T, err error) {
				var conflict *FlagConflictError
				require.True(t, errors.As(err, &conflict))
				assert.Equal(t, "--template", conflict.Flag)
			},
		},
		"type flag conflicts": {
			config: strPtr(`{"template_name": "basic", "template_type": "playbook"}`),
			typ:    "organization",
			check: func(t *testing.T, err error) {
				var conflict *FlagConflictError
				require.True(t, errors.As(err, &conflict))
				assert.Equal(t, "template_type", conflict.Field)
			},
		},
		"nothing names the template": {
			config: strPtr(`{"package": {}}`),
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrTemplateRequired) },
		},
		"unknown type": {
			config: strPtr(`{"template_name": "basic", "template_type": "spaceship"}`),
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, template.ErrInvalidType) },
		},
		"unknown template": {
			config: strPtr(`{"template_name": "fancy", "template_type": "playbook"}`),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, template.ErrTemplateNotFound)
				var nf *NotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, []string{"basic"}, nf.Available)
				assert.Contains(t, err.Error(), "available templates: basic")
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s, _ := newSyncer(t, newCacheDir(t))
			proj := t.TempDir()
			if tt.config != nil {
				writeFile(t, filepath.Join(proj, project.FileName), *tt.config)
			}

			_, err := s.Update(context.Background(), Options{ProjectDir: proj, TemplateName: tt.name, TemplateType: tt.typ})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestSync_CacheError(t *testing.T) {
	t.Parallel()

	boom := fmt.Errorf("download failed")
	s := New(staticCache{err: boom}, planner.New(planner.Policy{}))
	_, err := s.Init(context.Background(), Options{ProjectDir: t.TempDir(), TemplateName: "basic", TemplateType: "playbook"})
	require.ErrorIs(t, err, boom)
}

func keys(entries []planner.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func strPtr(s string) *string { return &s }
