package cache

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	appgit "github.com/ariel-frischer/appkit/internal/git"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGitRemote(t *testing.T, when time.Time) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "playbook", "basic"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "playbook", "basic", "app.py"), []byte("app"), 0o644))
	_, err = wt.Add(".")
	require.NoError(t, err)

	sig := &object.Signature{Name: "Test", Email: "test@test.com", When: when}
	hash, err := wt.Commit("templates", &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("v2"), hash)))
	return dir
}

func TestGitSource_WithManager(t *testing.T) {
	t.Parallel()

	remote := newGitRemote(t, time.Date(2021, 5, 5, 0, 0, 0, 0, time.UTC))
	src := &GitSource{URL: remote}
	m := NewManager(t.TempDir(), src)

	dir, err := m.Ensure(context.Background(), "v2")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "playbook", "basic", "app.py"))
	assert.NoDirExists(t, filepath.Join(dir, ".git"))

	latest, err := src.LatestChange(context.Background(), "v2")
	require.NoError(t, err)
	assert.Equal(t, 2021, latest.Year())
}

func TestGitSource_UnknownBranch(t *testing.T) {
	t.Parallel()

	remote := newGitRemote(t, time.Now())
	m := NewManager(t.TempDir(), &GitSource{URL: remote})

	_, err := m.Ensure(context.Background(), "v9")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBranchNotFound)
	assert.Contains(t, err.Error(), `"v9"`)
}

func TestNewGitSource(t *testing.T) {
	t.Parallel()

	src := NewGitSource("https://example.com/templates.git", appgit.Credentials{Token: "pat"})
	assert.Equal(t, 1, src.Depth)
	assert.Equal(t, "https://example.com/templates.git", src.options("v2").URL)
	assert.Equal(t, "v2", src.options("v2").Branch)
	assert.Equal(t, "pat", src.options("v2").Credentials.Token)
}
