package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ariel-frischer/appkit/internal/cli/shared"
	"github.com/ariel-frischer/appkit/internal/config"
	clierrors "github.com/ariel-frischer/appkit/internal/errors"
	"github.com/ariel-frischer/appkit/internal/manifest"
	"github.com/ariel-frischer/appkit/internal/packager"
	"github.com/ariel-frischer/appkit/internal/syncer"
	"github.com/ariel-frischer/appkit/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Structure(t *testing.T) {
	assert.Equal(t, "appkit", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotEmpty(t, rootCmd.Example)
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	tests := map[string]struct {
		flagName  string
		shorthand string
	}{
		"config flag exists":   {flagName: "config"},
		"verbose flag exists":  {flagName: "verbose", shorthand: "v"},
		"no-color flag exists": {flagName: "no-color"},
		"branch flag exists":   {flagName: "branch"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			flag := rootCmd.PersistentFlags().Lookup(tt.flagName)
			require.NotNil(t, flag, "Flag %s should exist", tt.flagName)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}
}

func TestRootCmd_SubcommandGroups(t *testing.T) {
	groups := map[string]bool{}
	for _, g := range rootCmd.Groups() {
		groups[g.ID] = true
	}

	tests := map[string]struct {
		command string
		group   string
	}{
		"init":    {command: "init", group: shared.GroupProject},
		"update":  {command: "update", group: shared.GroupProject},
		"package": {command: "package", group: shared.GroupProject},
		"list":    {command: "list", group: shared.GroupTemplates},
		"cache":   {command: "cache", group: shared.GroupTemplates},
		"config":  {command: "config", group: shared.GroupConfiguration},
		"version": {command: "version", group: shared.GroupConfiguration},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.command})
			require.NoError(t, err)
			assert.Equal(t, tt.command, cmd.Name())
			assert.Equal(t, tt.group, cmd.GroupID)
			assert.True(t, groups[cmd.GroupID], "group %s should be registered", cmd.GroupID)
		})
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	testEnv(t)

	res := runCLI(t, "", "frobnicate")
	require.Error(t, res.err)
	assert.Equal(t, shared.ExitInvalidArguments, ExitCode(res.err))
	assert.Contains(t, res.stderr, "Argument Error")
	assert.Contains(t, res.stderr, "appkit --help")
}

func TestVersionCommand(t *testing.T) {
	testEnv(t)

	res := runCLI(t, "", "version", "--plain")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "appkit dev\n")
	assert.Contains(t, res.stdout, "commit: unknown\n")
	assert.Contains(t, res.stdout, "platform: ")

	res = runCLI(t, "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "dev (development build)")
	assert.Contains(t, res.stdout, "Platform")
}

func TestTruncateCommit(t *testing.T) {
	tests := map[string]struct {
		commit string
		want   string
	}{
		"long hash":  {commit: "0123456789abcdef", want: "01234567"},
		"short hash": {commit: "abc", want: "abc"},
		"unknown":    {commit: "unknown", want: "unknown"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateCommit(tt.commit))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		err          error
		wantCategory clierrors.ErrorCategory
		wantMessage  string
	}{
		"cli error passes through": {
			err:          clierrors.NewNetworkError("offline"),
			wantCategory: clierrors.Network,
			wantMessage:  "offline",
		},
		"template not found": {
			err:          fmt.Errorf("sync: %w", &syncer.NotFoundError{Name: "x", Type: "playbook"}),
			wantCategory: clierrors.Prerequisite,
			wantMessage:  `template "x" not found for type "playbook"`,
		},
		"flag conflict": {
			err:          &syncer.FlagConflictError{Flag: "--type", Field: "template_type"},
			wantCategory: clierrors.Argument,
			wantMessage:  "the --type flag cannot be used",
		},
		"template required": {
			err:          syncer.ErrTemplateRequired,
			wantCategory: clierrors.Argument,
			wantMessage:  "template name and type are required",
		},
		"no version": {
			err:          fmt.Errorf("%w: no install.json", packager.ErrNoVersion),
			wantCategory: clierrors.Prerequisite,
			wantMessage:  "could not determine the app version",
		},
		"bad manifest": {
			err:          fmt.Errorf("%w: expected object", manifest.ErrStructure),
			wantCategory: clierrors.Runtime,
			wantMessage:  "manifest has unexpected structure",
		},
		"anything else": {
			err:          errors.New("disk full"),
			wantCategory: clierrors.Runtime,
			wantMessage:  "disk full",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := clierrors.AsCLIError(classify(tt.err))
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Contains(t, got.Message, tt.wantMessage)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, classify(nil))
}

func TestSyncError(t *testing.T) {
	err := syncError(syncer.ErrMissingProjectConfig, "/work/app", "")
	cliErr := clierrors.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, clierrors.Prerequisite, cliErr.Category)
	assert.Equal(t, "appkit.json not found in /work/app", cliErr.Message)

	err = syncError(fmt.Errorf("%w: %q", template.ErrInvalidType, "tie2"), "/work/app", "tie2")
	cliErr = clierrors.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, clierrors.Argument, cliErr.Category)
	assert.Contains(t, cliErr.Remediation[0], "playbook")
}

func TestConfigError(t *testing.T) {
	tests := map[string]struct {
		err          error
		wantCategory clierrors.ErrorCategory
		wantMessage  string
	}{
		"invalid value": {
			err:          &config.ValidationError{FilePath: "config", Field: "template.source", Message: "must be one of: github, git"},
			wantCategory: clierrors.Configuration,
			wantMessage:  "invalid config value for 'template.source'",
		},
		"syntax": {
			err:          &config.ValidationError{FilePath: "/p/config.yml", Line: 3, Column: 1, Message: "bad indent"},
			wantCategory: clierrors.Configuration,
			wantMessage:  "failed to parse config file /p/config.yml",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cliErr := clierrors.AsCLIError(configError("/p/config.yml", tt.err))
			require.NotNil(t, cliErr)
			assert.Equal(t, tt.wantCategory, cliErr.Category)
			assert.Contains(t, cliErr.Message, tt.wantMessage)
		})
	}
}
