package planner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/appkit/internal/fileops"
	"github.com/ariel-frischer/appkit/internal/manifest"
	"github.com/rs/zerolog"
)

// Policy tunes classification of files whose local content diverged from
// the template. The zero value always prompts.
type Policy struct {
	// AutoUpdatePrefixes lists key prefixes (e.g. "core/") owned by the
	// framework. Diverged files under them are overwritten without asking.
	AutoUpdatePrefixes []string
}

func (p Policy) autoUpdates(key string) bool {
	for _, prefix := range p.AutoUpdatePrefixes {
		if prefix != "" && strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// Planner builds and applies update plans.
type Planner struct {
	policy Policy
	log    zerolog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger used for per-file decisions.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Planner) { p.log = log }
}

// New creates a Planner with the given policy.
func New(policy Policy, opts ...Option) *Planner {
	p := &Planner{policy: policy, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Build compares templateRoot/manifestName with projectDir/manifestName
// and classifies every tracked file.
//
// For each key in the template:
//   - force: auto-update.
//   - not tracked locally: new. Prompt if a file already sits at that path,
//     otherwise auto-update.
//   - same last_commit on both sides: skip, whatever the local content.
//   - otherwise hash the project file. Skip when it already matches the
//     template or was deleted; auto-update when the policy owns the path;
//     prompt in every other case.
//
// For each key tracked locally but gone from the template: removed.
// Auto-update (remove) when the file is gone or still matches the last
// synced digest, otherwise prompt.
func (p *Planner) Build(templateRoot, projectDir, manifestName string, force bool) (*Plan, error) {
	if manifestName == "" {
		manifestName = manifest.FileName
	}

	templateMeta, err := manifest.Load(filepath.Join(templateRoot, manifestName))
	if err != nil {
		return nil, fmt.Errorf("loading template manifest: %w", err)
	}
	localMeta, err := manifest.Load(filepath.Join(projectDir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("loading project manifest: %w", err)
	}

	plan := &Plan{}
	inTemplate, removed := manifest.CollectKeys(templateMeta, localMeta)

	for _, key := range inTemplate {
		tmplInfo := templateMeta[key]
		entry := Entry{Key: key, TemplatePath: tmplInfo.TemplatePath}
		projectPath := filepath.Join(projectDir, filepath.FromSlash(key))

		if force {
			plan.AutoUpdate = append(plan.AutoUpdate, entry)
			continue
		}

		localInfo, tracked := localMeta[key]
		if !tracked {
			plan.TemplateNew = append(plan.TemplateNew, entry)
			if pathExists(projectPath) {
				p.log.Debug().Str("key", key).Msg("untracked file already exists")
				plan.PromptUser = append(plan.PromptUser, entry)
			} else {
				plan.AutoUpdate = append(plan.AutoUpdate, entry)
			}
			continue
		}

		if tmplInfo.LastCommit == localInfo.LastCommit {
			plan.Skip = append(plan.Skip, entry)
			continue
		}

		current, err := manifest.SHA256File(projectPath)
		if err != nil {
			return nil, err
		}
		switch {
		case current == "" || current == tmplInfo.SHA256:
			plan.Skip = append(plan.Skip, entry)
		case p.policy.autoUpdates(key):
			plan.AutoUpdate = append(plan.AutoUpdate, entry)
		default:
			plan.PromptUser = append(plan.PromptUser, entry)
		}
	}

	for _, key := range removed {
		localInfo := localMeta[key]
		entry := Entry{Key: key, TemplatePath: localInfo.TemplatePath}
		plan.TemplateRemoved = append(plan.TemplateRemoved, entry)

		current, err := manifest.SHA256File(filepath.Join(projectDir, filepath.FromSlash(key)))
		if err != nil {
			return nil, err
		}
		if current == "" || current == localInfo.SHA256 {
			plan.AutoUpdate = append(plan.AutoUpdate, entry)
		} else {
			plan.PromptUser = append(plan.PromptUser, entry)
		}
	}

	p.log.Debug().
		Str("action", "build-plan").
		Int("skip", len(plan.Skip)).
		Int("auto_update", len(plan.AutoUpdate)).
		Int("prompt_user", len(plan.PromptUser)).
		Int("template_new", len(plan.TemplateNew)).
		Int("template_removed", len(plan.TemplateRemoved)).
		Msg("plan built")

	return plan, nil
}

// ApplyOptions controls Apply.
type ApplyOptions struct {
	// TemplateRoot is the merged template directory. It is only read.
	TemplateRoot string
	// ProjectRoot is the directory being updated.
	ProjectRoot string
	// Force applies prompt-user entries without asking.
	Force bool
	// Prompt asks for confirmation of one prompt-user entry.
	Prompt PromptFunc
}

// ApplyResult records what Apply did, by key.
type ApplyResult struct {
	Copied   []string
	Removed  []string
	Declined []string
}

// Apply executes plan against the project.
//
// Auto-update entries run first: removed keys are deleted, everything else
// is copied from the template. Prompt-user entries follow in sorted key
// order; each is applied only on an affirmative answer unless Force is set.
// Skip entries are never touched. The first error aborts; changes already
// made stay in place.
func (p *Planner) Apply(plan *Plan, opts ApplyOptions) (*ApplyResult, error) {
	removedKeys := plan.removedKeys()
	result := &ApplyResult{}

	apply := func(e Entry) error {
		dest := filepath.Join(opts.ProjectRoot, filepath.FromSlash(e.Key))
		if removedKeys[e.Key] {
			if err := fileops.RemoveFile(dest); err != nil {
				return err
			}
			result.Removed = append(result.Removed, e.Key)
			p.log.Debug().Str("action", "remove").Str("key", e.Key).Msg("file removed")
			return nil
		}
		if err := fileops.CopyFromTemplate(opts.TemplateRoot, e.TemplatePath, dest); err != nil {
			return err
		}
		result.Copied = append(result.Copied, e.Key)
		p.log.Debug().Str("action", "copy").Str("key", e.Key).Msg("file copied")
		return nil
	}

	for _, e := range sortedEntries(plan.AutoUpdate) {
		if err := apply(e); err != nil {
			return result, err
		}
	}

	for _, e := range sortedEntries(plan.PromptUser) {
		if !opts.Force {
			var question string
			if removedKeys[e.Key] {
				question = fmt.Sprintf("Remove modified file '%s'?", e.Key)
			} else {
				question = fmt.Sprintf("Overwrite modified file '%s' from template?", e.Key)
			}

			ok, err := confirm(opts.Prompt, question)
			if err != nil {
				return result, err
			}
			if !ok {
				result.Declined = append(result.Declined, e.Key)
				p.log.Debug().Str("action", "decline").Str("key", e.Key).Msg("user declined change")
				continue
			}
		}
		if err := apply(e); err != nil {
			return result, err
		}
	}

	return result, nil
}
