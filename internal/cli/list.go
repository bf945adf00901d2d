package cli

import (
	"fmt"

	"github.com/ariel-frischer/appkit/internal/cli/shared"
	clierrors "github.com/ariel-frischer/appkit/internal/errors"
	"github.com/ariel-frischer/appkit/internal/output"
	"github.com/ariel-frischer/appkit/internal/template"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available templates",
	Long: `List the templates of the configured branch, grouped by type, with the
command that creates an app from each.`,
	Example: `  # List every template
  appkit list

  # Only playbook templates
  appkit list --type playbook`,
	Args: argsWithUsage(cobra.NoArgs),
	RunE: runList,
}

func init() {
	listCmd.GroupID = shared.GroupTemplates
	listCmd.Flags().String("type", "", "Only list templates of this type")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	typ, _ := cmd.Flags().GetString("type")
	if typ != "" && !template.ValidType(typ) {
		return clierrors.UnknownTemplateType(typ, template.Types())
	}

	cfg, err := loadConfig(cmd, "")
	if err != nil {
		return err
	}
	manager, err := newCacheManager(cmd, cfg)
	if err != nil {
		return err
	}
	cacheDir, err := reportingCache{manager: manager}.Ensure(cmd.Context(), cfg.Branch)
	if err != nil {
		return err
	}

	listing, err := template.List(cacheDir, typ)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	found := 0
	for _, t := range template.Types() {
		descriptors := listing.ByType[t]
		if len(descriptors) == 0 {
			continue
		}
		found += len(descriptors)

		title := t
		if prefix, ok := template.Prefix(t); ok {
			title = fmt.Sprintf("%s (app prefix %s)", t, prefix)
		}
		fmt.Fprintf(out, "\n%s\n", cyan(title))

		rows := make([][]string, 0, len(descriptors))
		for _, d := range descriptors {
			rows = append(rows, []string{d.Name, d.Version, d.Summary, d.InstallCommand()})
		}
		output.PrintTable(out, []string{"NAME", "VERSION", "SUMMARY", "INSTALL"}, rows)
	}

	for _, problem := range listing.Problems {
		output.PrintWarning(cmd.ErrOrStderr(), problem.Error())
	}
	if found == 0 {
		output.PrintInfo(out, fmt.Sprintf("No templates found on branch %s", cfg.Branch))
	}
	return nil
}
