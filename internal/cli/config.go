package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/appkit/internal/cli/shared"
	"github.com/ariel-frischer/appkit/internal/config"
	clierrors "github.com/ariel-frischer/appkit/internal/errors"
	"github.com/ariel-frischer/appkit/internal/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage appkit configuration",
	Long: `Manage appkit configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (APPKIT_*, e.g. APPKIT_TEMPLATE_OWNER)
  2. Project config (.appkit/config.yml)
  3. User config (~/.config/appkit/config.yml)
  4. Built-in defaults`,
	Example: `  # Show the effective configuration
  appkit config show

  # Use another template branch for this project
  appkit config set branch v3 --project

  # List every setting
  appkit config keys`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  argsWithUsage(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		cfg, err := loadConfig(cmd, "")
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		values := cfg.Map(true)
		if asJSON {
			data, err := json.MarshalIndent(values, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		for _, src := range cfg.Sources {
			if src.Path != "" {
				fmt.Fprintf(out, "# %s: %s\n", src.Source, src.Path)
			}
		}
		data, err := yaml.Marshal(values)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the configuration keys",
	Args:  argsWithUsage(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := make([][]string, 0, len(config.KnownKeys))
		for _, key := range config.SortedKeys() {
			schema := config.KnownKeys[key]
			typ := schema.Type.String()
			if len(schema.AllowedValues) > 0 {
				typ += " (" + strings.Join(schema.AllowedValues, "|") + ")"
			}
			rows = append(rows, []string{key, typ, fmt.Sprint(schema.Default), schema.Description})
		}
		output.PrintTable(cmd.OutOrStdout(), []string{"KEY", "TYPE", "DEFAULT", "DESCRIPTION"}, rows)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user config, or in the project config
with --project. Comments and other settings in the file are kept.`,
	Example: `  appkit config set template.source git
  appkit config set http_timeout 2m --project
  appkit config set template.auto_update_prefixes core/,lib/`,
	Args: argsWithUsage(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectScope, _ := cmd.Flags().GetBool("project")
		key, value := args[0], args[1]

		path, scope := config.UserConfigPath(), "user"
		if projectScope {
			projectDir, err := shared.ResolvePath("")
			if err != nil {
				return err
			}
			path, scope = filepath.Join(projectDir, config.ProjectConfigPath()), "project"
		}

		if err := config.SetConfigValue(path, key, value); err != nil {
			var unknown config.ErrUnknownKey
			var syntax *config.ValidationError
			switch {
			case errors.As(err, &unknown):
				return clierrors.Wrap(err, clierrors.Argument, "Run 'appkit config keys' to list valid keys")
			case errors.As(err, &syntax):
				return clierrors.ConfigParseError(path, err)
			}
			return clierrors.Wrap(err, clierrors.Argument)
		}

		output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Set %s = %s in %s config (%s)", key, value, scope, path))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file locations",
	Args:  argsWithUsage(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "user:    %s\n", config.UserConfigPath())
		fmt.Fprintf(out, "project: %s\n", config.ProjectConfigPath())
		if legacy, err := config.DetectLegacyConfig(); err == nil && legacy != "" {
			fmt.Fprintf(out, "legacy:  %s\n", legacy)
		}
		return nil
	},
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert the legacy JSON user config to YAML",
	Long: `Convert ~/.appkit/config.json to ~/.config/appkit/config.yml.
The JSON file is kept as config.json.bak.`,
	Args: argsWithUsage(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		result, err := config.MigrateUserConfig(dryRun)
		if err != nil {
			return clierrors.Wrap(err, clierrors.Configuration)
		}
		out := cmd.OutOrStdout()
		if !result.Success {
			output.PrintInfo(out, result.Message)
			return nil
		}
		if err := config.RemoveLegacyConfig(result.SourcePath, dryRun); err != nil {
			return err
		}
		output.PrintSuccess(out, result.Message)
		return nil
	},
}

func init() {
	configCmd.GroupID = shared.GroupConfiguration
	configShowCmd.Flags().Bool("json", false, "Print as JSON")
	configSetCmd.Flags().Bool("project", false, "Write to the project config instead of the user config")
	configMigrateCmd.Flags().Bool("dry-run", false, "Show what would be migrated without writing")
	configCmd.AddCommand(configShowCmd, configKeysCmd, configSetCmd, configPathCmd, configMigrateCmd)
	rootCmd.AddCommand(configCmd)
}
