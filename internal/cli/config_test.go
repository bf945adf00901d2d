package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/appkit/internal/cli/shared"
	"github.com/ariel-frischer/appkit/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetCommand(t *testing.T) {
	tests := map[string]struct {
		args           []string
		wantOutput     string
		wantFile       string
		wantContent    string
		wantErr        bool
		wantErrContain string
		wantCode       int
	}{
		"set value in user config": {
			args:        []string{"config", "set", "branch", "v3"},
			wantOutput:  "Set branch = v3 in user config",
			wantFile:    "user",
			wantContent: "branch: v3",
		},
		"set value with project flag": {
			args:        []string{"config", "set", "http_timeout", "90s", "--project"},
			wantOutput:  "Set http_timeout = 90s in project config",
			wantFile:    "project",
			wantContent: "http_timeout: 1m30s",
		},
		"set nested enum": {
			args:        []string{"config", "set", "template.source", "git", "--project"},
			wantOutput:  "Set template.source = git",
			wantFile:    "project",
			wantContent: "source: git",
		},
		"set list": {
			args:        []string{"config", "set", "template.auto_update_prefixes", "core/,lib/", "--project"},
			wantFile:    "project",
			wantContent: "- core/",
		},
		"unknown key": {
			args:           []string{"config", "set", "invalid.key", "value"},
			wantErr:        true,
			wantErrContain: "unknown configuration key",
			wantCode:       shared.ExitInvalidArguments,
		},
		"invalid enum": {
			args:           []string{"config", "set", "template.source", "svn", "--project"},
			wantErr:        true,
			wantErrContain: "svn",
			wantCode:       shared.ExitInvalidArguments,
		},
		"invalid duration": {
			args:           []string{"config", "set", "http_timeout", "soon"},
			wantErr:        true,
			wantErrContain: "invalid duration",
			wantCode:       shared.ExitInvalidArguments,
		},
		"missing value": {
			args:           []string{"config", "set", "branch"},
			wantErr:        true,
			wantErrContain: "accepts 2 arg(s)",
			wantCode:       shared.ExitInvalidArguments,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testEnv(t)
			dir := t.TempDir()
			t.Chdir(dir)

			res := runCLI(t, "", tt.args...)
			if tt.wantErr {
				require.Error(t, res.err)
				assert.Contains(t, res.err.Error(), tt.wantErrContain)
				assert.Equal(t, tt.wantCode, ExitCode(res.err))
				return
			}
			require.NoError(t, res.err, res.stderr)
			if tt.wantOutput != "" {
				assert.Contains(t, res.stdout, tt.wantOutput)
			}

			path := config.UserConfigPath()
			if tt.wantFile == "project" {
				path = filepath.Join(dir, config.ProjectConfigPath())
			}
			assert.Contains(t, readTestFile(t, path), tt.wantContent)
		})
	}
}

func TestConfigShowCommand(t *testing.T) {
	server, cacheDir := testEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GITHUB_TOKEN", "ghp_secret")
	writeTestFile(t, filepath.Join(dir, ".appkit", "config.yml"), "branch: v3\nhttp_timeout: 30s\n")

	res := runCLI(t, "", "config", "show")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "# project: .appkit/config.yml")
	assert.Contains(t, res.stdout, "branch: v3")
	assert.Contains(t, res.stdout, "http_timeout: 30s")
	assert.Contains(t, res.stdout, "cache_dir: "+cacheDir)
	assert.Contains(t, res.stdout, "api_url: "+server.URL)
	assert.Contains(t, res.stdout, config.RedactedValue)
	assert.NotContains(t, res.stdout, "ghp_secret")

	res = runCLI(t, "", "config", "show", "--json", "--branch", "v9")
	require.NoError(t, res.err, res.stderr)
	var shown map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &shown))
	assert.Equal(t, "v9", shown["branch"])
	assert.Equal(t, testOwner, shown["template"].(map[string]interface{})["owner"])
}

func TestConfigShowCommand_InvalidConfig(t *testing.T) {
	tests := map[string]struct {
		content     string
		wantMessage string
	}{
		"invalid enum": {
			content:     "template:\n  source: svn\n",
			wantMessage: "invalid config value for 'template.source'",
		},
		"bad yaml": {
			content:     "branch: [v2\n",
			wantMessage: "failed to parse config file",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testEnv(t)
			dir := t.TempDir()
			t.Chdir(dir)
			writeTestFile(t, filepath.Join(dir, ".appkit", "config.yml"), tt.content)

			res := runCLI(t, "", "config", "show")
			require.Error(t, res.err)
			assert.Equal(t, shared.ExitInvalidConfig, ExitCode(res.err))
			assert.Contains(t, res.err.Error(), tt.wantMessage)
		})
	}
}

func TestConfigShowCommand_MissingExplicitConfig(t *testing.T) {
	testEnv(t)

	res := runCLI(t, "", "config", "show", "--config", filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, res.err)
	assert.Equal(t, shared.ExitInvalidConfig, ExitCode(res.err))
	assert.ErrorIs(t, res.err, os.ErrNotExist)
}

func TestConfigKeysCommand(t *testing.T) {
	testEnv(t)

	res := runCLI(t, "", "config", "keys")
	require.NoError(t, res.err)
	for _, key := range config.SortedKeys() {
		assert.Contains(t, res.stdout, key)
	}
	assert.Contains(t, res.stdout, "DESCRIPTION")
	assert.Contains(t, res.stdout, "enum (github|git)")
}

func TestConfigPathCommand(t *testing.T) {
	testEnv(t)

	res := runCLI(t, "", "config", "path")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "user:    "+config.UserConfigPath())
	assert.Contains(t, res.stdout, "project: .appkit/config.yml")
	assert.NotContains(t, res.stdout, "legacy:")
}

func TestConfigMigrateCommand(t *testing.T) {
	testEnv(t)
	legacy, err := config.LegacyUserConfigPath()
	require.NoError(t, err)
	writeTestFile(t, legacy, `{"branch": "v3", "template": {"owner": "acme"}}`)

	res := runCLI(t, "", "config", "migrate", "--dry-run")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Would migrate")
	assert.NoFileExists(t, config.UserConfigPath())

	res = runCLI(t, "", "config", "migrate")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Migrated")
	assert.Contains(t, readTestFile(t, config.UserConfigPath()), "branch: v3")
	assert.NoFileExists(t, legacy)
	assert.FileExists(t, legacy+".bak")

	res = runCLI(t, "", "config", "migrate")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No JSON config found")
}
