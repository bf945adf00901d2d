// Package syncer runs a full template sync of a project: refresh the
// template cache, merge the template's ancestry, migrate a legacy
// manifest, plan and apply file changes, then record the new manifest and
// project settings.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/appkit/internal/manifest"
	"github.com/ariel-frischer/appkit/internal/planner"
	"github.com/ariel-frischer/appkit/internal/project"
	"github.com/ariel-frischer/appkit/internal/template"
	"github.com/rs/zerolog"
)

var (
	// ErrTemplateRequired is returned when neither flags nor appkit.json
	// name the template.
	ErrTemplateRequired = errors.New("template name and type are required")
	// ErrMissingProjectConfig is returned by Update outside a project.
	ErrMissingProjectConfig = errors.New("update requires appkit.json")
)

// FlagConflictError is returned when a flag overrides a value appkit.json
// already sets.
type FlagConflictError struct {
	Flag  string
	Field string
}

func (e *FlagConflictError) Error() string {
	return fmt.Sprintf("the %s flag cannot be used when %s is already set in %s", e.Flag, e.Field, project.FileName)
}

// NotFoundError is returned when the cache has no such template.
type NotFoundError struct {
	Name      string
	Type      string
	Available []string
}

func (e *NotFoundError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("template %q not found for type %q, available templates: %s", e.Name, e.Type, available)
}

func (e *NotFoundError) Unwrap() error { return template.ErrTemplateNotFound }

// Cache provides template snapshots.
type Cache interface {
	Ensure(ctx context.Context, branch string) (string, error)
}

// Options describes one sync run.
type Options struct {
	ProjectDir   string
	Branch       string
	TemplateName string
	TemplateType string
	// Force overwrites every template file without prompting.
	Force bool
	// IncludeBuilderConfig keeps .appbuilderconfig in the merged template.
	IncludeBuilderConfig bool
	// Prompt answers prompt-user entries. Nil declines them all.
	Prompt planner.PromptFunc
	// OnPlan, when set, is called with the plan before it is applied.
	OnPlan func(*planner.Plan)
}

// Result reports what a sync did.
type Result struct {
	TemplateName  string
	TemplateType  string
	Branch        string
	Plan          *planner.Plan
	Applied       *planner.ApplyResult
	Migrated      int
	ConfigCreated bool
}

// Syncer wires the cache, merger and planner together.
type Syncer struct {
	cache   Cache
	planner *planner.Planner
	log     zerolog.Logger
	tempDir string
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Syncer) { s.log = log }
}

// WithTempDir sets the parent directory for merged templates.
func WithTempDir(dir string) Option {
	return func(s *Syncer) { s.tempDir = dir }
}

// New creates a Syncer.
func New(cache Cache, p *planner.Planner, opts ...Option) *Syncer {
	s := &Syncer{cache: cache, planner: p, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init populates a project from a template. Every template file is
// written without prompting.
func (s *Syncer) Init(ctx context.Context, opts Options) (*Result, error) {
	if opts.TemplateName == "" || opts.TemplateType == "" {
		return nil, ErrTemplateRequired
	}
	opts.Force = true
	return s.sync(ctx, opts)
}

// Update brings an existing project up to date with its template. The
// template comes from appkit.json; flags may only fill values it lacks.
func (s *Syncer) Update(ctx context.Context, opts Options) (*Result, error) {
	name, typ, err := ResolveTarget(opts.ProjectDir, opts.TemplateName, opts.TemplateType)
	if err != nil {
		return nil, err
	}
	opts.TemplateName, opts.TemplateType = name, typ
	return s.sync(ctx, opts)
}

// ResolveTarget combines the template flags with appkit.json in
// projectDir.
func ResolveTarget(projectDir, flagName, flagType string) (string, string, error) {
	cfg, err := project.Load(projectDir)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return "", "", ErrMissingProjectConfig
		}
		return "", "", err
	}

	if cfg.TemplateName != "" && flagName != "" {
		return "", "", &FlagConflictError{Flag: "--template", Field: "template_name"}
	}
	if cfg.TemplateType != "" && flagType != "" {
		return "", "", &FlagConflictError{Flag: "--type", Field: "template_type"}
	}

	name := firstNonEmpty(flagName, cfg.TemplateName)
	typ := firstNonEmpty(flagType, cfg.TemplateType)
	if name == "" || typ == "" {
		return "", "", ErrTemplateRequired
	}
	return name, typ, nil
}

func (s *Syncer) sync(ctx context.Context, opts Options) (*Result, error) {
	if !template.ValidType(opts.TemplateType) {
		return nil, fmt.Errorf("%w: %q, valid types: %s",
			template.ErrInvalidType, opts.TemplateType, strings.Join(template.Types(), ", "))
	}

	cacheDir, err := s.cache.Ensure(ctx, opts.Branch)
	if err != nil {
		return nil, err
	}
	if !template.Exists(cacheDir, opts.TemplateType, opts.TemplateName) {
		return nil, &NotFoundError{
			Name:      opts.TemplateName,
			Type:      opts.TemplateType,
			Available: template.Available(cacheDir, opts.TemplateType),
		}
	}

	mergedDir, err := template.BuildMerged(cacheDir, opts.TemplateName, opts.TemplateType, template.MergeOptions{
		IncludeBuilderConfig: opts.IncludeBuilderConfig,
		TempDir:              s.tempDir,
		Logger:               &s.log,
	})
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(mergedDir)

	res := &Result{TemplateName: opts.TemplateName, TemplateType: opts.TemplateType, Branch: opts.Branch}

	res.Migrated, err = manifest.MigrateLegacy(mergedDir, opts.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("migrating legacy manifest: %w", err)
	}
	if res.Migrated > 0 {
		s.log.Info().Str("action", "migrate-legacy-manifest").Int("migrated_files", res.Migrated).Msg("legacy manifest migrated")
	}

	res.Plan, err = s.planner.Build(mergedDir, opts.ProjectDir, manifest.FileName, opts.Force)
	if err != nil {
		return nil, err
	}
	if opts.OnPlan != nil {
		opts.OnPlan(res.Plan)
	}

	res.Applied, err = s.planner.Apply(res.Plan, planner.ApplyOptions{
		TemplateRoot: mergedDir,
		ProjectRoot:  opts.ProjectDir,
		Force:        opts.Force,
		Prompt:       opts.Prompt,
	})
	if err != nil {
		return res, fmt.Errorf("applying template changes: %w", err)
	}

	// the next update compares against what this run synced
	synced, err := manifest.Load(filepath.Join(mergedDir, manifest.FileName))
	if err != nil {
		return res, fmt.Errorf("loading merged manifest: %w", err)
	}
	if err := manifest.Write(filepath.Join(opts.ProjectDir, manifest.FileName), synced); err != nil {
		return res, err
	}

	leafDir := template.Dir(cacheDir, opts.TemplateType, opts.TemplateName)
	res.ConfigCreated, err = project.Ensure(opts.ProjectDir, leafDir, opts.TemplateName, opts.TemplateType)
	if err != nil {
		return res, fmt.Errorf("updating %s: %w", project.FileName, err)
	}

	s.log.Info().
		Str("action", "sync").
		Str("template", opts.TemplateName).
		Str("type", opts.TemplateType).
		Int("copied", len(res.Applied.Copied)).
		Int("removed", len(res.Applied.Removed)).
		Int("declined", len(res.Applied.Declined)).
		Msg("template sync complete")

	return res, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
