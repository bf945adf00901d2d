package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/ariel-frischer/appkit/internal/cli/shared"
	"github.com/ariel-frischer/appkit/internal/output"
	"github.com/ariel-frischer/appkit/internal/planner"
	"github.com/ariel-frischer/appkit/internal/project"
	"github.com/ariel-frischer/appkit/internal/syncer"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [path]",
	Short: "Pull template changes into an app",
	Long: `Pull template changes into an app.

The template named in appkit.json is compared with what was last synced
(manifest.json). Files the template did not change are left alone.
Files you never modified are updated silently. Files you modified, and
untracked files the template now provides, are only overwritten after
you confirm. Files removed from the template are deleted the same way.

--template and --type are only accepted when appkit.json does not set
them already.`,
	Example: `  # Update the current app
  appkit update

  # Overwrite everything without asking
  appkit update --force

  # Re-download the templates first
  appkit update --clear`,
	Args: argsWithUsage(cobra.MaximumNArgs(1)),
	RunE: runUpdate,
}

func init() {
	updateCmd.GroupID = shared.GroupProject
	updateCmd.Flags().String("template", "", "Template name when appkit.json does not set one")
	updateCmd.Flags().String("type", "", "Template type when appkit.json does not set one")
	updateCmd.Flags().Bool("force", false, "Overwrite every template file without prompting")
	updateCmd.Flags().Bool("clear", false, "Clear the template cache before updating")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("template")
	typ, _ := cmd.Flags().GetString("type")
	force, _ := cmd.Flags().GetBool("force")
	clearCache, _ := cmd.Flags().GetBool("clear")

	projectDir, err := shared.ProjectDir(args, false)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, projectDir)
	if err != nil {
		return err
	}
	manager, err := newCacheManager(cmd, cfg)
	if err != nil {
		return err
	}
	if clearCache {
		if err := manager.Clear(cfg.Branch); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	res, err := newSyncer(manager, cfg).Update(cmd.Context(), syncer.Options{
		ProjectDir:   projectDir,
		Branch:       cfg.Branch,
		TemplateName: name,
		TemplateType: typ,
		Force:        force,
		Prompt:       planner.ConsolePrompter(cmd.InOrStdin(), out),
		OnPlan:       func(p *planner.Plan) { printPlan(out, p) },
	})
	if err != nil {
		return syncError(err, projectDir, firstNonEmpty(typ, templateTypeOf(projectDir)))
	}

	printUpdateSummary(out, res)
	return nil
}

// printPlan shows the plan counts before any file is touched.
func printPlan(out io.Writer, p *planner.Plan) {
	rows := make([]output.KeyValue, 0, 5)
	for _, line := range p.Summary() {
		rows = append(rows, output.KeyValue{Key: line.Label, Value: strconv.Itoa(line.Count)})
	}
	output.PrintKeyValueTable(out, "Update Plan", rows)
	fmt.Fprintln(out)
}

func printUpdateSummary(out io.Writer, res *syncer.Result) {
	rows := []output.KeyValue{
		{Key: "Template Type", Value: res.TemplateType},
		{Key: "Template Name", Value: res.TemplateName},
		{Key: "Branch", Value: res.Branch},
		{Key: "Updated", Value: strconv.Itoa(len(res.Applied.Copied))},
		{Key: "Removed", Value: strconv.Itoa(len(res.Applied.Removed))},
		{Key: "Declined", Value: strconv.Itoa(len(res.Applied.Declined))},
	}
	if res.Migrated > 0 {
		rows = append(rows, output.KeyValue{Key: "Migrated", Value: strconv.Itoa(res.Migrated)})
	}
	output.PrintKeyValueTable(out, "Update Summary", rows)

	if res.ConfigCreated {
		output.PrintInfo(out, fmt.Sprintf("Created %s from the template", project.FileName))
	}
	if res.Plan.IsNoop() {
		output.PrintSuccess(out, "Already up to date")
		return
	}
	for _, key := range res.Applied.Declined {
		output.PrintWarning(out, fmt.Sprintf("Kept local %s; run 'appkit update --force' to take the template version", key))
	}
	output.PrintSuccess(out, "Update complete")
}

// templateTypeOf returns the template_type recorded in appkit.json, if any.
func templateTypeOf(projectDir string) string {
	cfg, err := project.Load(projectDir)
	if err != nil {
		return ""
	}
	return cfg.TemplateType
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
