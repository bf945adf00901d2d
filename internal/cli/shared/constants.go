// Package shared provides constants and helpers used across CLI commands.
package shared

import (
	clierrors "github.com/ariel-frischer/appkit/internal/errors"
)

// Command group IDs for help output.
const (
	GroupProject       = "project"
	GroupTemplates     = "templates"
	GroupConfiguration = "configuration"
)

// Exit codes for the appkit CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure
	ExitFailure = 1

	// ExitInvalidConfig indicates invalid or unreadable configuration
	ExitInvalidConfig = 2

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitMissingDependencies indicates a missing project file or template
	ExitMissingDependencies = 4

	// ExitNetwork indicates the template download failed
	ExitNetwork = 5
)

// ExitCode maps err to the process exit code by its CLIError category.
// Errors that are not CLIErrors are runtime failures.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	cliErr := clierrors.AsCLIError(err)
	if cliErr == nil {
		return ExitFailure
	}
	switch cliErr.Category {
	case clierrors.Argument:
		return ExitInvalidArguments
	case clierrors.Configuration:
		return ExitInvalidConfig
	case clierrors.Prerequisite:
		return ExitMissingDependencies
	case clierrors.Network:
		return ExitNetwork
	default:
		return ExitFailure
	}
}
