package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// MigrationResult describes the outcome of a migration operation
type MigrationResult struct {
	SourcePath string
	TargetPath string
	Success    bool
	DryRun     bool
	Message    string
}

// MigrateJSONToYAML converts the legacy JSON config at jsonPath into YAML
// at yamlPath. Nothing is written when the JSON is missing, the YAML
// already exists or dryRun is set.
func MigrateJSONToYAML(jsonPath, yamlPath string, dryRun bool) (*MigrationResult, error) {
	result := &MigrationResult{
		SourcePath: jsonPath,
		TargetPath: yamlPath,
		DryRun:     dryRun,
	}

	if !fileExists(jsonPath) {
		result.Message = fmt.Sprintf("No JSON config found at %s", jsonPath)
		return result, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(jsonPath), json.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	if fileExists(yamlPath) {
		result.Message = fmt.Sprintf("YAML config already exists at %s (skipped)", yamlPath)
		return result, nil
	}

	if dryRun {
		result.Success = true
		result.Message = fmt.Sprintf("Would migrate %s → %s", jsonPath, yamlPath)
		return result, nil
	}

	yamlData, err := k.Marshal(yaml.Parser())
	if err != nil {
		return nil, fmt.Errorf("failed to convert to YAML: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(yamlPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# appkit configuration\n# Migrated from " + filepath.Base(jsonPath) + "\n\n"
	if err := os.WriteFile(yamlPath, append([]byte(header), yamlData...), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write YAML config: %w", err)
	}

	result.Success = true
	result.Message = fmt.Sprintf("Migrated %s → %s", jsonPath, yamlPath)
	return result, nil
}

// MigrateUserConfig migrates the user-level config from JSON to YAML.
func MigrateUserConfig(dryRun bool) (*MigrationResult, error) {
	jsonPath, err := LegacyUserConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get legacy user config path: %w", err)
	}

	return MigrateJSONToYAML(jsonPath, UserConfigPath(), dryRun)
}

// RemoveLegacyConfig moves a migrated legacy JSON config aside to <path>.bak.
func RemoveLegacyConfig(jsonPath string, dryRun bool) error {
	if dryRun {
		return nil
	}

	if _, err := os.Stat(jsonPath); os.IsNotExist(err) {
		return nil // Already removed or never existed
	}

	// Rename to .bak instead of deleting (safer)
	bakPath := jsonPath + ".bak"
	if err := os.Rename(jsonPath, bakPath); err != nil {
		return fmt.Errorf("failed to backup legacy config: %w", err)
	}

	return nil
}

// DetectLegacyConfig returns the legacy JSON user config path, or "" when
// there is none.
func DetectLegacyConfig() (string, error) {
	userPath, err := LegacyUserConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(userPath); err != nil {
		return "", nil
	}
	return userPath, nil
}
