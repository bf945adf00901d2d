package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateJSONToYAML(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		json        string
		existing    string
		dryRun      bool
		wantSuccess bool
		wantWritten bool
		wantMessage string
	}{
		"migrates": {
			json:        `{"branch": "v3", "template": {"owner": "acme"}}`,
			wantSuccess: true,
			wantWritten: true,
			wantMessage: "Migrated",
		},
		"dry run writes nothing": {
			json:        `{"branch": "v3"}`,
			dryRun:      true,
			wantSuccess: true,
			wantMessage: "Would migrate",
		},
		"existing yaml is kept": {
			json:        `{"branch": "v3"}`,
			existing:    "branch: v2\n",
			wantMessage: "already exists",
		},
		"no json": {
			wantMessage: "No JSON config found",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			jsonPath := filepath.Join(dir, "config.json")
			yamlPath := filepath.Join(dir, "appkit", "config.yml")
			if tt.json != "" {
				require.NoError(t, os.WriteFile(jsonPath, []byte(tt.json), 0o644))
			}
			if tt.existing != "" {
				require.NoError(t, os.MkdirAll(filepath.Dir(yamlPath), 0o755))
				require.NoError(t, os.WriteFile(yamlPath, []byte(tt.existing), 0o644))
			}

			res, err := MigrateJSONToYAML(jsonPath, yamlPath, tt.dryRun)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Contains(t, res.Message, tt.wantMessage)

			data, readErr := os.ReadFile(yamlPath)
			switch {
			case tt.wantWritten:
				require.NoError(t, readErr)
				assert.Contains(t, string(data), "# Migrated from config.json")
				assert.Contains(t, string(data), "branch: v3")
				assert.Contains(t, string(data), "owner: acme")
				assert.NoError(t, ValidateYAMLSyntax(yamlPath))
			case tt.existing != "":
				assert.Equal(t, tt.existing, string(data))
			default:
				assert.True(t, os.IsNotExist(readErr))
			}
		})
	}
}

func TestMigrateJSONToYAML_BadJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{not json"), 0o644))

	_, err := MigrateJSONToYAML(jsonPath, filepath.Join(dir, "config.yml"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON config")
}

func TestRemoveLegacyConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{}"), 0o644))

	require.NoError(t, RemoveLegacyConfig(jsonPath, true))
	assert.FileExists(t, jsonPath, "dry run keeps the file")

	require.NoError(t, RemoveLegacyConfig(jsonPath, false))
	assert.NoFileExists(t, jsonPath)
	assert.FileExists(t, jsonPath+".bak")

	require.NoError(t, RemoveLegacyConfig(jsonPath, false), "already removed")
}
