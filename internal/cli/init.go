package cli

import (
	"fmt"
	"strconv"

	"github.com/ariel-frischer/appkit/internal/cli/shared"
	"github.com/ariel-frischer/appkit/internal/output"
	"github.com/ariel-frischer/appkit/internal/project"
	"github.com/ariel-frischer/appkit/internal/syncer"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create an app from a template",
	Long: `Create an app from a template.

Every file of the template and its parents is written into the app
directory, replacing files that already exist. The directory is created
when missing. appkit.json is copied from the template when the app has
none, otherwise its template_name and template_type are updated.`,
	Example: `  # Initialize the current directory
  appkit init --type playbook --template basic

  # Initialize a new directory from another branch
  appkit init ./my-app --type organization --template basic --branch v3`,
	Args: argsWithUsage(cobra.MaximumNArgs(1)),
	RunE: runInit,
}

func init() {
	initCmd.GroupID = shared.GroupProject
	initCmd.Flags().String("type", "", "Template type (e.g. playbook, organization)")
	initCmd.Flags().String("template", "", "Template name")
	initCmd.Flags().Bool("app-builder", false, "Keep .appbuilderconfig from the template")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	typ, _ := cmd.Flags().GetString("type")
	name, _ := cmd.Flags().GetString("template")
	appBuilder, _ := cmd.Flags().GetBool("app-builder")

	if name == "" || typ == "" {
		return syncer.ErrTemplateRequired
	}

	projectDir, err := shared.ProjectDir(args, true)
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

	res, err := newSyncer(manager, cfg).Init(cmd.Context(), syncer.Options{
		ProjectDir:           projectDir,
		Branch:               cfg.Branch,
		TemplateName:         name,
		TemplateType:         typ,
		IncludeBuilderConfig: appBuilder,
	})
	if err != nil {
		return syncError(err, projectDir, typ)
	}

	out := cmd.OutOrStdout()
	output.PrintKeyValueTable(out, "Init Summary", []output.KeyValue{
		{Key: "Template Type", Value: res.TemplateType},
		{Key: "Template Name", Value: res.TemplateName},
		{Key: "Branch", Value: res.Branch},
		{Key: "Files Written", Value: strconv.Itoa(len(res.Applied.Copied))},
	})
	if res.ConfigCreated {
		output.PrintInfo(out, fmt.Sprintf("Created %s from the template", project.FileName))
	}
	output.PrintSuccess(out, fmt.Sprintf("Initialized %s/%s in %s", res.TemplateType, res.TemplateName, projectDir))
	return nil
}
