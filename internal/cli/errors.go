package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ariel-frischer/appkit/internal/config"
	clierrors "github.com/ariel-frischer/appkit/internal/errors"
	"github.com/ariel-frischer/appkit/internal/manifest"
	"github.com/ariel-frischer/appkit/internal/packager"
	"github.com/ariel-frischer/appkit/internal/syncer"
	"github.com/ariel-frischer/appkit/internal/template"
	"github.com/spf13/cobra"
)

// classify converts any command error into a *CLIError. Errors that are
// already categorised pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		return cliErr
	}

	var notFound *syncer.NotFoundError
	var conflict *syncer.FlagConflictError
	switch {
	case errors.As(err, &notFound):
		return clierrors.TemplateNotFound(notFound.Name, notFound.Type, notFound.Available).WithCause(err)
	case errors.As(err, &conflict):
		return clierrors.TemplateFlagConflict(conflict.Flag, conflict.Field).WithCause(err)
	case errors.Is(err, syncer.ErrTemplateRequired):
		return clierrors.MissingTemplateFlags().WithCause(err)
	case errors.Is(err, packager.ErrNoVersion):
		return clierrors.NoVersion().WithCause(err)
	case errors.Is(err, manifest.ErrStructure):
		return clierrors.Wrap(err, clierrors.Runtime,
			fmt.Sprintf("Delete %s and run 'appkit update' to rebuild it", manifest.FileName))
	case errors.Is(err, context.Canceled):
		return clierrors.NewRuntimeError("interrupted").WithCause(err)
	case strings.HasPrefix(err.Error(), "unknown command"):
		return clierrors.Wrap(err, clierrors.Argument, "Run 'appkit --help' to see available commands")
	}
	return clierrors.Wrap(err, clierrors.Runtime)
}

// syncError adds project context to errors from syncer.Init and
// syncer.Update.
func syncError(err error, projectDir, templateType string) error {
	switch {
	case errors.Is(err, syncer.ErrMissingProjectConfig):
		return clierrors.MissingProjectConfig(projectDir).WithCause(err)
	case errors.Is(err, template.ErrInvalidType):
		return clierrors.UnknownTemplateType(templateType, template.Types()).WithCause(err)
	}
	return classify(err)
}

// configError categorises an error from config.LoadWithOptions.
func configError(path string, err error) error {
	var validationErr *config.ValidationError
	switch {
	case errors.As(err, &validationErr) && validationErr.Field != "":
		return clierrors.InvalidConfigValue(validationErr.Field, validationErr.Message).WithCause(err)
	case errors.Is(err, fs.ErrNotExist):
		return clierrors.WrapWithMessage(err, clierrors.Configuration, "config file not found",
			"Check the --config path")
	}
	return clierrors.ConfigParseError(path, err)
}

// argsWithUsage wraps a cobra argument validator so its errors are
// argument errors.
func argsWithUsage(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
		}
		return nil
	}
}
