package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ariel-frischer/appkit/internal/git"
)

// GitSource reads the template repository from any git remote.
type GitSource struct {
	URL         string
	Depth       int
	Credentials git.Credentials
}

// NewGitSource returns a GitSource doing shallow clones of url.
func NewGitSource(url string, creds git.Credentials) *GitSource {
	return &GitSource{URL: url, Depth: 1, Credentials: creds}
}

// LatestChange returns the committer time of the branch head.
func (s *GitSource) LatestChange(ctx context.Context, branch string) (time.Time, error) {
	t, err := git.HeadCommitTime(ctx, s.options(branch))
	return t, branchError(branch, err)
}

// Fetch exports the branch's tree into dest.
func (s *GitSource) Fetch(ctx context.Context, branch, dest string) error {
	return branchError(branch, git.Export(ctx, s.options(branch), dest))
}

func branchError(branch string, err error) error {
	if err != nil && git.IsBranchNotFound(err) {
		return fmt.Errorf("%w: %q: %w", ErrBranchNotFound, branch, err)
	}
	return err
}

func (s *GitSource) options(branch string) git.RemoteOptions {
	return git.RemoteOptions{URL: s.URL, Branch: branch, Depth: s.Depth, Credentials: s.Credentials}
}
