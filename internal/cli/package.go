package cli

import (
	"errors"
	"fmt"

	"github.com/ariel-frischer/appkit/internal/cli/shared"
	clierrors "github.com/ariel-frischer/appkit/internal/errors"
	"github.com/ariel-frischer/appkit/internal/output"
	"github.com/ariel-frischer/appkit/internal/packager"
	"github.com/ariel-frischer/appkit/internal/project"
	"github.com/spf13/cobra"
)

var packageCmd = &cobra.Command{
	Use:   "package [path]",
	Short: "Build the deployable archive of an app",
	Long: `Build the deployable archive of an app.

The app directory is zipped into <output-dir>/<app_name>_<version>.tcx.
The name and version come from the package section of appkit.json; when
app_version is not set it is derived from programVersion in install.json.
Build artifacts, caches and the output directory itself are left out,
along with any extra --exclude patterns and package.excludes.`,
	Example: `  # Package the current app into ./target
  appkit package

  # Package into another directory, skipping the docs
  appkit package --output-dir dist --exclude docs`,
	Args: argsWithUsage(cobra.MaximumNArgs(1)),
	RunE: runPackage,
}

func init() {
	packageCmd.GroupID = shared.GroupProject
	packageCmd.Flags().String("output-dir", "", "Archive output directory (default: package.output_dir)")
	packageCmd.Flags().StringSlice("exclude", nil, "Extra file or directory patterns to leave out")
	rootCmd.AddCommand(packageCmd)
}

func runPackage(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	excludes, _ := cmd.Flags().GetStringSlice("exclude")

	projectDir, err := shared.ProjectDir(args, false)
	if err != nil {
		return err
	}
	proj, err := project.Load(projectDir)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return clierrors.MissingProjectConfig(projectDir).WithCause(err)
		}
		return err
	}
	if proj.Package.AppName == "" {
		return clierrors.NewPrerequisiteError(
			fmt.Sprintf("package.app_name is not set in %s", proj.Path()),
			"Add \"package\": {\"app_name\": \"<name>\"} to appkit.json",
		)
	}

	cfg, err := loadConfig(cmd, projectDir)
	if err != nil {
		return err
	}
	if outputDir == "" {
		outputDir = firstNonEmpty(proj.Package.OutputDir, cfg.Package.OutputDir)
	}

	res, err := packager.Package(packager.Options{
		AppDir:    projectDir,
		OutputDir: outputDir,
		AppName:   proj.Package.AppName,
		Version:   proj.Package.AppVersion,
		Excludes:  append(append([]string{}, proj.Package.Excludes...), excludes...),
	})
	if err != nil {
		return err
	}

	output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Built %s", res.Archive))
	return nil
}
