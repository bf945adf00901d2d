package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/appkit/internal/build"
	"github.com/ariel-frischer/appkit/internal/cache"
	"github.com/ariel-frischer/appkit/internal/config"
	clierrors "github.com/ariel-frischer/appkit/internal/errors"
	"github.com/ariel-frischer/appkit/internal/git"
	"github.com/ariel-frischer/appkit/internal/logging"
	"github.com/ariel-frischer/appkit/internal/planner"
	"github.com/ariel-frischer/appkit/internal/progress"
	"github.com/ariel-frischer/appkit/internal/syncer"
	"github.com/spf13/cobra"
)

// loadConfig loads the layered configuration for a command run in
// projectDir. The project layer is --config when given, otherwise
// projectDir/.appkit/config.yml when it exists. --branch wins over every
// layer.
func loadConfig(cmd *cobra.Command, projectDir string) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" && projectDir != "" {
		candidate := filepath.Join(projectDir, config.ProjectConfigPath())
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectConfigPath: path,
		WarningWriter:     cmd.ErrOrStderr(),
	})
	if err != nil {
		if path == "" {
			path = config.UserConfigPath()
		}
		return nil, configError(path, err)
	}

	if branch, _ := cmd.Flags().GetString("branch"); branch != "" {
		cfg.Branch = branch
	}
	log := logging.Get("config")
	log.Debug().
		Str("branch", cfg.Branch).
		Str("source", cfg.Template.Source).
		Str("cache_dir", cfg.CacheDir).
		Int("layers", len(cfg.Sources)).
		Msg("configuration loaded")
	return cfg, nil
}

// newSource builds the template repository backend selected by
// template.source.
func newSource(cfg *config.Configuration) (cache.Source, error) {
	if cfg.Template.Source == "git" {
		return cache.NewGitSource(cfg.Template.GitRemoteURL(), git.Credentials{
			Username: cfg.GitHub.User,
			Token:    cfg.GitHub.Token,
		}), nil
	}

	src, err := cache.NewGitHubSource(cache.GitHubOptions{
		APIURL:    cfg.Template.APIURL,
		Owner:     cfg.Template.Owner,
		Repo:      cfg.Template.Repo,
		User:      cfg.GitHub.User,
		Token:     cfg.GitHub.Token,
		ProxyURL:  cfg.Proxy.URL,
		Timeout:   cfg.HTTPTimeout,
		UserAgent: build.UserAgent(),
	})
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.Configuration,
			"Check the template.* settings with 'appkit config show'")
	}
	return src, nil
}

// newDisplay returns the progress display for cache downloads. The
// spinner is only used when writing to a terminal.
func newDisplay(w io.Writer) *progress.Display {
	caps := progress.TerminalCapabilities{}
	if w == os.Stderr {
		caps = progress.DetectTerminalCapabilities()
	}
	return progress.NewDisplay(w, caps)
}

// newCacheManager builds the template cache for cfg.
func newCacheManager(cmd *cobra.Command, cfg *config.Configuration) (*cache.Manager, error) {
	src, err := newSource(cfg)
	if err != nil {
		return nil, err
	}
	return cache.NewManager(cfg.CacheDir, src,
		cache.WithLogger(logging.Get("cache")),
		cache.WithNotifier(newDisplay(cmd.ErrOrStderr())),
	), nil
}

// reportingCache reports download failures as network errors and a
// missing branch as an argument error.
type reportingCache struct {
	manager *cache.Manager
}

func (c reportingCache) Ensure(ctx context.Context, branch string) (string, error) {
	dir, err := c.manager.Ensure(ctx, branch)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, cache.ErrBranchNotFound) {
			return "", clierrors.BranchNotFound(branch, err)
		}
		return "", clierrors.CacheRefreshFailed(branch, err)
	}
	return dir, nil
}

// newSyncer wires the cache and planner for init and update.
func newSyncer(manager *cache.Manager, cfg *config.Configuration) *syncer.Syncer {
	p := planner.New(
		planner.Policy{AutoUpdatePrefixes: cfg.Template.AutoUpdatePrefixes},
		planner.WithLogger(logging.Get("planner")),
	)
	return syncer.New(reportingCache{manager: manager}, p, syncer.WithLogger(logging.Get("syncer")))
}
