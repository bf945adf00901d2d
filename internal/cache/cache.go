// Package cache keeps a local snapshot of the template repository per
// branch and refreshes it when the remote has newer commits.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrBranchNotFound is returned by a Source when the remote has no such
// branch.
var ErrBranchNotFound = errors.New("branch not found")

// Source is a remote template repository.
type Source interface {
	// LatestChange returns the time of the newest commit on branch.
	// A zero time means unknown.
	LatestChange(ctx context.Context, branch string) (time.Time, error)
	// Fetch writes the branch's files into dest, which exists and is empty.
	Fetch(ctx context.Context, branch, dest string) error
}

// Notifier is told when a download starts and ends.
type Notifier interface {
	RefreshStarted(branch string)
	RefreshFinished(branch string, err error)
}

// Manager owns the cache root directory.
type Manager struct {
	root     string
	source   Source
	log      zerolog.Logger
	notifier Notifier
	now      func() time.Time
	// discard deletes a replaced snapshot
	discard func(path string) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithNotifier registers a download progress observer.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// NewManager creates a Manager storing snapshots under root.
func NewManager(root string, src Source, opts ...Option) *Manager {
	m := &Manager{root: root, source: src, log: zerolog.Nop(), now: time.Now, discard: os.RemoveAll}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the snapshot directory of branch.
func (m *Manager) Dir(branch string) string {
	return filepath.Join(m.root, "templates-"+strings.ReplaceAll(branch, "/", "-"))
}

// Ensure returns the snapshot directory of branch, downloading it first
// when it is missing or older than the remote's newest commit. When the
// remote cannot be asked, an existing snapshot is used as is.
func (m *Manager) Ensure(ctx context.Context, branch string) (string, error) {
	dir := m.Dir(branch)
	stale, err := m.stale(ctx, branch, dir)
	if err != nil {
		return "", err
	}
	if stale {
		if err := m.refresh(ctx, branch, dir); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// Clear removes the snapshot of branch. A missing snapshot is not an error.
func (m *Manager) Clear(branch string) error {
	dir := m.Dir(branch)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing template cache %s: %w", dir, err)
	}
	m.log.Info().Str("action", "clear-cache").Str("dir", dir).Msg("template cache cleared")
	return nil
}

func (m *Manager) stale(ctx context.Context, branch, dir string) (bool, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking template cache %s: %w", dir, err)
	}

	remote, err := m.source.LatestChange(ctx, branch)
	if err != nil {
		m.log.Warn().Err(err).Str("action", "remote-commit-date").Str("branch", branch).
			Msg("could not check for template updates, using cached templates")
		return false, nil
	}
	if remote.IsZero() {
		return false, nil
	}

	m.log.Debug().
		Str("action", "cache-freshness").
		Time("remote", remote).
		Time("cached", info.ModTime()).
		Msg("comparing remote commit with cache")
	return remote.After(info.ModTime()), nil
}

// refresh downloads into a sibling temp directory and swaps it in, so a
// failed download leaves the previous snapshot untouched. The old snapshot
// is renamed aside before the new one is renamed into place and only
// deleted afterwards, so dir is never a partially removed tree.
func (m *Manager) refresh(ctx context.Context, branch, dir string) (err error) {
	if m.notifier != nil {
		m.notifier.RefreshStarted(branch)
		defer func() { m.notifier.RefreshFinished(branch, err) }()
	}
	m.log.Info().Str("action", "download-templates").Str("branch", branch).Msg("downloading templates")

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("creating cache root %s: %w", m.root, err)
	}
	tmp, err := os.MkdirTemp(m.root, ".download-")
	if err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := m.source.Fetch(ctx, branch, tmp); err != nil {
		return fmt.Errorf("downloading templates for branch %s: %w", branch, err)
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		return fmt.Errorf("setting cache permissions: %w", err)
	}

	retired := tmp + "-old"
	hadOld := true
	if err := os.Rename(dir, retired); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("moving old template cache aside: %w", err)
		}
		hadOld = false
	}
	if err := os.Rename(tmp, dir); err != nil {
		if hadOld {
			if restoreErr := os.Rename(retired, dir); restoreErr != nil {
				m.log.Error().Err(restoreErr).Str("action", "restore-cache").Str("dir", retired).Msg("could not restore old template cache")
			}
		}
		return fmt.Errorf("installing template cache: %w", err)
	}
	if hadOld {
		if err := m.discard(retired); err != nil {
			m.log.Warn().Err(err).Str("action", "discard-old-cache").Str("dir", retired).Msg("could not delete replaced template cache")
		}
	}

	// the directory mtime records when the snapshot was taken
	now := m.now()
	if err := os.Chtimes(dir, now, now); err != nil {
		return fmt.Errorf("stamping template cache: %w", err)
	}
	return nil
}
