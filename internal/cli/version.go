package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/ariel-frischer/appkit/internal/build"
	"github.com/ariel-frischer/appkit/internal/cli/shared"
	"github.com/ariel-frischer/appkit/internal/output"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date, and Go version information for appkit",
	Example: `  # Show version info
  appkit version

  # Plain output (for scripts)
  appkit version --plain`,
	Args: argsWithUsage(cobra.NoArgs),
	Run: func(cmd *cobra.Command, args []string) {
		plain, _ := cmd.Flags().GetBool("plain")
		if plain {
			printPlainVersion(cmd.OutOrStdout())
			return
		}
		printPrettyVersion(cmd.OutOrStdout())
	},
}

func init() {
	versionCmd.GroupID = shared.GroupConfiguration
	versionCmd.Flags().Bool("plain", false, "Plain output without formatting")
	rootCmd.AddCommand(versionCmd)
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(out io.Writer) {
	fmt.Fprintf(out, "appkit %s\n", build.Version)
	fmt.Fprintf(out, "commit: %s\n", build.Commit)
	fmt.Fprintf(out, "built: %s\n", build.BuildDate)
	fmt.Fprintf(out, "go: %s\n", runtime.Version())
	fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func printPrettyVersion(out io.Writer) {
	version := build.Version
	if build.IsDevBuild() {
		version += " (development build)"
	}
	output.PrintKeyValueTable(out, "appkit", []output.KeyValue{
		{Key: "Version", Value: version},
		{Key: "Commit", Value: truncateCommit(build.Commit)},
		{Key: "Built", Value: build.BuildDate},
		{Key: "Go", Value: runtime.Version()},
		{Key: "Platform", Value: fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	})
}

// truncateCommit shortens a commit hash to 8 characters
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
