// Package git reads template snapshots from git remotes with go-git, so
// no git CLI is needed to use a git-hosted template repository.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/go-git/go-git/v5/storage/memory"
)

// DefaultTimeout bounds a single clone when the caller's context has no
// deadline.
const DefaultTimeout = 60 * time.Second

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging. The logger function should format
// and output the message (similar to log.Printf signature).
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Credentials are used for HTTPS remotes. SSH remotes use the SSH agent.
type Credentials struct {
	Username string
	Token    string
}

// RemoteOptions identifies one branch of a remote repository.
type RemoteOptions struct {
	URL    string
	Branch string
	// Depth limits history; 0 fetches the full history.
	Depth       int
	Credentials Credentials
}

// HeadCommitTime returns the committer time of the tip of the branch. The
// branch is cloned into memory; nothing touches the disk.
func HeadCommitTime(ctx context.Context, opts RemoteOptions) (time.Time, error) {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	logDebug("[git] reading head of %s@%s", opts.URL, opts.Branch)
	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, cloneOptions(opts))
	if err != nil {
		return time.Time{}, fmt.Errorf("cloning %s@%s: %w", opts.URL, opts.Branch, err)
	}

	head, err := repo.Head()
	if err != nil {
		return time.Time{}, fmt.Errorf("getting HEAD reference: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return time.Time{}, fmt.Errorf("reading commit %s: %w", head.Hash(), err)
	}

	logDebug("[git] head of %s is %s at %s", opts.Branch, head.Hash(), commit.Committer.When)
	return commit.Committer.When, nil
}

// Export writes the branch's working tree to dest, which must be empty or
// absent. Repository metadata is removed so dest holds plain files only.
func Export(ctx context.Context, opts RemoteOptions, dest string) error {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	logDebug("[git] exporting %s@%s to %s", opts.URL, opts.Branch, dest)
	if _, err := git.PlainCloneContext(ctx, dest, false, cloneOptions(opts)); err != nil {
		return fmt.Errorf("cloning %s@%s: %w", opts.URL, opts.Branch, err)
	}
	if err := os.RemoveAll(filepath.Join(dest, git.GitDirName)); err != nil {
		return fmt.Errorf("removing repository metadata: %w", err)
	}
	return nil
}

// IsBranchNotFound reports whether err means the remote has no such branch.
func IsBranchNotFound(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.As(err, &noMatch) || errors.Is(err, plumbing.ErrReferenceNotFound)
}

func cloneOptions(opts RemoteOptions) *git.CloneOptions {
	return &git.CloneOptions{
		URL:           opts.URL,
		ReferenceName: plumbing.NewBranchReferenceName(opts.Branch),
		SingleBranch:  true,
		Depth:         opts.Depth,
		Tags:          git.NoTags,
		Auth:          authForURL(opts.URL, opts.Credentials),
	}
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}

// authForURL returns the appropriate authentication method for a remote URL.
// SSH URLs use SSH agent auth, HTTPS URLs use the given credentials and
// fall back to environment credentials.
func authForURL(url string, creds Credentials) transport.AuthMethod {
	if isSSHURL(url) {
		if !isSSHAgentAvailable() {
			logDebug("[git] SSH URL without SSH agent available")
			return nil
		}
		auth, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			logDebug("[git] SSH agent auth failed: %v", err)
			return nil
		}
		return auth
	}

	username, password := creds.Username, creds.Token
	if username == "" && password == "" {
		username = os.Getenv("GIT_USERNAME")
		password = os.Getenv("GIT_PASSWORD")
	}
	if username == "" && password == "" {
		// GitHub accepts a token as username with empty password
		username = os.Getenv("GITHUB_TOKEN")
	}
	if username == "" && password == "" {
		return nil
	}
	if username == "" {
		// token-only: any non-empty username works for token auth
		username = "x-access-token"
	}
	return &http.BasicAuth{Username: username, Password: password}
}

// isSSHURL checks if a URL is an SSH URL.
// Detects git@ (SCP-style), ssh://, and git+ssh:// schemes.
func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "ssh://") ||
		strings.HasPrefix(url, "git+ssh://")
}

// isSSHAgentAvailable checks if an SSH agent is available.
// Returns true only if SSH_AUTH_SOCK is set and non-empty.
func isSSHAgentAvailable() bool {
	sock := strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK"))
	return sock != ""
}
