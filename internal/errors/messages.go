package errors

import (
	"fmt"
	"strings"
)

// Common error messages for the appkit CLI.
// These templates ensure consistent, actionable error messages.

// MissingTemplateFlags creates an error for init without --template and --type.
func MissingTemplateFlags() *CLIError {
	return NewArgumentErrorWithUsage(
		"template name and type are required",
		"appkit init --type <type> --template <name>",
		"Run 'appkit list' to see available templates",
	)
}

// MissingProjectConfig creates an error for update outside a project.
func MissingProjectConfig(dir string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("appkit.json not found in %s", dir),
		"Run 'appkit init --type <type> --template <name>' to create a project",
		"Or check that you're in the app directory",
	)
}

// TemplateFlagConflict creates an error when a flag repeats a value
// appkit.json already sets.
func TemplateFlagConflict(flag, field string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("the %s flag cannot be used when %s is already set in appkit.json", flag, field),
		fmt.Sprintf("Drop the %s flag", flag),
		fmt.Sprintf("Or edit %s in appkit.json to switch templates", field),
	)
}

// UnknownTemplateType creates an error for a type outside the known list.
func UnknownTemplateType(typ string, valid []string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("unknown template type %q", typ),
		"Valid types: "+strings.Join(valid, ", "),
	)
}

// TemplateNotFound creates an error for a template missing from the cache.
func TemplateNotFound(name, typ string, available []string) *CLIError {
	remediation := []string{
		fmt.Sprintf("Run 'appkit list --type %s' to see available templates", typ),
		"Run 'appkit update --clear' to refresh the template cache",
	}
	if len(available) > 0 {
		remediation = append([]string{"Available templates: " + strings.Join(available, ", ")}, remediation...)
	}
	return NewPrerequisiteError(
		fmt.Sprintf("template %q not found for type %q", name, typ),
		remediation...,
	)
}

// CacheRefreshFailed creates an error for a failed template download.
func CacheRefreshFailed(branch string, err error) *CLIError {
	return NewNetworkError(
		fmt.Sprintf("downloading templates for branch %q failed: %v", branch, err),
		"Check your network connection and proxy settings (proxy.url)",
		"Set github.token or GITHUB_TOKEN if you hit the API rate limit",
		"Verify the branch exists with --branch",
	).WithCause(err)
}

// BranchNotFound creates an error for a template branch the remote lacks.
func BranchNotFound(branch string, err error) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("template branch %q does not exist", branch),
		"Pass an existing branch with --branch",
		"Or change the default with 'appkit config set branch <name>'",
		"Check template.owner and template.repo if the repository itself is missing",
	).WithCause(err)
}

// ConfigParseError creates an error for malformed configuration files.
func ConfigParseError(path string, err error) *CLIError {
	return NewConfigError(
		fmt.Sprintf("failed to parse config file %s: %v", path, err),
		"Check the YAML syntax in the config file",
		"Run 'appkit config show' to see the effective configuration",
	).WithCause(err)
}

// InvalidConfigValue creates an error for invalid configuration values.
func InvalidConfigValue(field, reason string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("invalid config value for '%s': %s", field, reason),
		"Check the value in .appkit/config.yml or ~/.config/appkit/config.yml",
		"Or override it with APPKIT_"+strings.ToUpper(strings.ReplaceAll(field, ".", "_")),
	)
}

// NoVersion creates an error for packaging without a resolvable version.
func NoVersion() *CLIError {
	return NewPrerequisiteError(
		"could not determine the app version",
		"Set package.app_version in appkit.json",
		"Or make sure install.json has a programVersion",
	)
}
