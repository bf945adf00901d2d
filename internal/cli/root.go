// Package cli implements the appkit command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariel-frischer/appkit/internal/cli/shared"
	clierrors "github.com/ariel-frischer/appkit/internal/errors"
	"github.com/ariel-frischer/appkit/internal/git"
	"github.com/ariel-frischer/appkit/internal/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "appkit",
	Short: "Create and update apps from project templates",
	Long: `appkit creates apps from a shared template repository and keeps them in
sync as the templates evolve.

Templates are downloaded once per branch into a local cache and refreshed
when the branch receives new commits. A manifest in each app records what
was last synced, so 'appkit update' only touches files the template
changed and asks before overwriting your edits.`,
	Example: `  # Create a playbook app from the basic template
  appkit init --type playbook --template basic

  # Pull template changes into the current app
  appkit update

  # See what templates exist
  appkit list --type playbook

  # Build the deployable archive
  appkit package`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupOutput(cmd)
		return nil
	},
}

// closeLog releases the log file opened by setupOutput.
var closeLog = func() error { return nil }

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: shared.GroupProject, Title: "Project Commands:"},
		&cobra.Group{ID: shared.GroupTemplates, Title: "Template Commands:"},
		&cobra.Group{ID: shared.GroupConfiguration, Title: "Configuration:"},
	)

	rootCmd.PersistentFlags().String("config", "", "Project config file (default: .appkit/config.yml in the app directory)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("branch", "", "Template repository branch (overrides the branch setting)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.Wrap(err, clierrors.Argument, fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
	})
}

// setupOutput applies --no-color and configures logging for the run.
func setupOutput(cmd *cobra.Command) {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	closeLog = logging.Setup(verbosity, cmd.ErrOrStderr(), color.NoColor)

	gitLog := logging.Get("git")
	git.SetDebugLogger(func(format string, args ...any) {
		gitLog.Debug().Msgf(format, args...)
	})
}

// Execute runs the root command. Interrupts cancel the command context.
// The returned error has already been printed; it is a *CLIError whose
// category selects the exit code.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx)
}

func execute(ctx context.Context) error {
	err := classify(rootCmd.ExecuteContext(ctx))
	if err != nil {
		clierrors.Fprint(rootCmd.ErrOrStderr(), err)
	}
	if closeErr := closeLog(); closeErr != nil && err == nil {
		err = clierrors.Wrap(closeErr, clierrors.Runtime)
	}
	closeLog = func() error { return nil }
	return err
}

// ExitCode returns the process exit code for an error from Execute.
func ExitCode(err error) int {
	return shared.ExitCode(err)
}
