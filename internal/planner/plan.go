// Package planner computes and applies file-level update plans between a
// merged template and a project.
//
// Two manifests are compared: the template manifest (what the template
// ships now) and the local manifest (what was last synced into the
// project). Every tracked file ends up in exactly one of skip, auto-update
// or prompt-user; new and removed files are additionally labelled.
package planner

import "sort"

// Entry pairs a project-relative key with its location inside the
// merged template.
type Entry struct {
	Key          string `json:"key"`
	TemplatePath string `json:"template_path"`
}

// Plan is the classification produced by Build and consumed by Apply.
// TemplateNew and TemplateRemoved are labels: each of their entries also
// appears in AutoUpdate or PromptUser.
type Plan struct {
	Skip            []Entry `json:"skip"`
	AutoUpdate      []Entry `json:"auto_update"`
	PromptUser      []Entry `json:"prompt_user"`
	TemplateNew     []Entry `json:"template_new"`
	TemplateRemoved []Entry `json:"template_removed"`
}

// SummaryLine is one label/count row of a plan summary.
type SummaryLine struct {
	Label string
	Count int
}

// Summary returns the plan counts in display order.
func (p *Plan) Summary() []SummaryLine {
	return []SummaryLine{
		{Label: "Skip", Count: len(p.Skip)},
		{Label: "Auto Update", Count: len(p.AutoUpdate)},
		{Label: "Prompt User", Count: len(p.PromptUser)},
		{Label: "Template New", Count: len(p.TemplateNew)},
		{Label: "Template Removed", Count: len(p.TemplateRemoved)},
	}
}

// IsNoop reports whether applying the plan would touch nothing.
func (p *Plan) IsNoop() bool {
	return len(p.AutoUpdate) == 0 && len(p.PromptUser) == 0
}

// removedKeys returns the set of keys labelled TemplateRemoved.
func (p *Plan) removedKeys() map[string]bool {
	keys := make(map[string]bool, len(p.TemplateRemoved))
	for _, e := range p.TemplateRemoved {
		keys[e.Key] = true
	}
	return keys
}

func sortedEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
