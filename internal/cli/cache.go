package cli

import (
	"fmt"

	"github.com/ariel-frischer/appkit/internal/cli/shared"
	"github.com/ariel-frischer/appkit/internal/output"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local template cache",
	Long: `Manage the local template cache.

Each branch is cached in its own directory under cache_dir and refreshed
automatically when the branch receives newer commits.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cached templates of the branch",
	Example: `  # Clear the configured branch
  appkit cache clear

  # Clear another branch
  appkit cache clear --branch v3`,
	Args: argsWithUsage(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, "")
		if err != nil {
			return err
		}
		manager, err := newCacheManager(cmd, cfg)
		if err != nil {
			return err
		}
		if err := manager.Clear(cfg.Branch); err != nil {
			return err
		}
		output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Cleared template cache for branch %s", cfg.Branch))
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the cache directory of the branch",
	Args:  argsWithUsage(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, "")
		if err != nil {
			return err
		}
		manager, err := newCacheManager(cmd, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), manager.Dir(cfg.Branch))
		return nil
	},
}

func init() {
	cacheCmd.GroupID = shared.GroupTemplates
	cacheCmd.AddCommand(cacheClearCmd, cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}
