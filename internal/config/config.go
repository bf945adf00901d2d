// Package config provides hierarchical configuration management for appkit using koanf.
// Configuration is loaded with priority: environment variables > project config (.appkit/config.yml)
// > user config (~/.config/appkit/config.yml) > defaults. A legacy JSON user config
// (~/.appkit/config.json) is still read, with a migration warning.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. APPKIT_TEMPLATE_SOURCE.
const EnvPrefix = "APPKIT_"

// ConfigSource tracks where a configuration value came from
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceEnv     ConfigSource = "env"
)

// Configuration represents the appkit CLI tool configuration
type Configuration struct {
	// Branch is the template repository branch. Overridden by --branch.
	Branch string `koanf:"branch" validate:"required"`
	// CacheDir is the template cache root. Empty means DefaultCacheDir.
	CacheDir string `koanf:"cache_dir"`
	// HTTPTimeout bounds each template download request.
	HTTPTimeout time.Duration `koanf:"http_timeout" validate:"gte=0"`

	Template TemplateConfig `koanf:"template"`
	GitHub   GitHubConfig   `koanf:"github"`
	Proxy    ProxyConfig    `koanf:"proxy"`
	Package  PackageConfig  `koanf:"package"`

	// Sources lists the files and layers that contributed, lowest priority first.
	Sources []LoadedSource `koanf:"-"`
}

// TemplateConfig selects the template repository.
type TemplateConfig struct {
	Source string `koanf:"source" validate:"oneof=github git"`
	Owner  string `koanf:"owner" validate:"required_if=Source github"`
	Repo   string `koanf:"repo" validate:"required_if=Source github"`
	APIURL string `koanf:"api_url" validate:"omitempty,url"`
	GitURL string `koanf:"git_url"`
	// AutoUpdatePrefixes lists key prefixes overwritten without prompting.
	AutoUpdatePrefixes []string `koanf:"auto_update_prefixes"`
}

// GitHubConfig holds credentials for the template repository.
type GitHubConfig struct {
	User  string `koanf:"user"`
	Token string `koanf:"token"`
}

// ProxyConfig routes template downloads through an HTTP proxy.
type ProxyConfig struct {
	URL string `koanf:"url" validate:"omitempty,url"`
}

// PackageConfig holds defaults for 'appkit package'.
type PackageConfig struct {
	OutputDir string `koanf:"output_dir"`
}

// LoadedSource records one configuration layer.
type LoadedSource struct {
	Source ConfigSource
	Path   string
}

// GitRemoteURL returns the clone URL for the git source.
func (t TemplateConfig) GitRemoteURL() string {
	if t.GitURL != "" {
		return t.GitURL
	}
	return fmt.Sprintf("https://github.com/%s/%s.git", t.Owner, t.Repo)
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .appkit/config.yml)
	ProjectConfigPath string
	// UserConfigPath overrides the user config path (default: UserConfigPath())
	UserConfigPath string
	// LegacyUserConfigPath overrides the legacy JSON path (default: LegacyUserConfigPath())
	LegacyUserConfigPath string
	// WarningWriter receives deprecation warnings (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses deprecation warnings
	SkipWarnings bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := getWarningWriter(opts.WarningWriter)
	sources := []LoadedSource{{Source: SourceDefault}}

	loadDefaults(k)

	userSrc, err := loadUserConfig(k, opts, warningWriter)
	if err != nil {
		return nil, err
	}
	if userSrc != nil {
		sources = append(sources, *userSrc)
	}

	projectSrc, err := loadProjectConfig(k, opts.ProjectConfigPath)
	if err != nil {
		return nil, err
	}
	if projectSrc != nil {
		sources = append(sources, *projectSrc)
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}
	sources = append(sources, LoadedSource{Source: SourceEnv})

	cfg, err := finalizeConfig(k)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources
	return cfg, nil
}

// getWarningWriter returns the warning writer or defaults to stderr
func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadUserConfig loads user-level config (YAML preferred, legacy JSON supported).
// Warns if both exist (YAML used, JSON ignored) or if only legacy JSON exists.
func loadUserConfig(k *koanf.Koanf, opts LoadOptions, warningWriter io.Writer) (*LoadedSource, error) {
	userYAMLPath := opts.UserConfigPath
	if userYAMLPath == "" {
		userYAMLPath = UserConfigPath()
	}
	legacyUserPath := opts.LegacyUserConfigPath
	if legacyUserPath == "" {
		legacyUserPath, _ = LegacyUserConfigPath()
	}

	legacyUserExists := fileExists(legacyUserPath)

	if fileExists(userYAMLPath) {
		if err := loadYAMLConfig(k, userYAMLPath, "user"); err != nil {
			return nil, fmt.Errorf("loading user YAML config: %w", err)
		}
		if legacyUserExists && !opts.SkipWarnings {
			fmt.Fprintf(warningWriter, "Warning: Legacy JSON config found at %s (ignored, using %s)\n", legacyUserPath, userYAMLPath)
			fmt.Fprintf(warningWriter, "  Run 'appkit config migrate' to remove the legacy file.\n\n")
		}
		return &LoadedSource{Source: SourceUser, Path: userYAMLPath}, nil
	}

	if legacyUserExists {
		if err := k.Load(file.Provider(legacyUserPath), json.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load legacy user config %s: %w", legacyUserPath, err)
		}
		if !opts.SkipWarnings {
			fmt.Fprintf(warningWriter, "Warning: Using deprecated JSON config at %s\n", legacyUserPath)
			fmt.Fprintf(warningWriter, "  Run 'appkit config migrate' to migrate to YAML format.\n\n")
		}
		return &LoadedSource{Source: SourceUser, Path: legacyUserPath}, nil
	}
	return nil, nil
}

// loadProjectConfig loads .appkit/config.yml, or customPath when set.
func loadProjectConfig(k *koanf.Koanf, customPath string) (*LoadedSource, error) {
	projectYAMLPath := ProjectConfigPath()
	if customPath != "" {
		projectYAMLPath = customPath
		// an explicit --config must exist
		if !fileExists(customPath) {
			return nil, fmt.Errorf("config file %s: %w", customPath, os.ErrNotExist)
		}
	}
	if !fileExists(projectYAMLPath) {
		return nil, nil
	}
	if err := loadYAMLConfig(k, projectYAMLPath, "project"); err != nil {
		return nil, fmt.Errorf("loading project YAML config: %w", err)
	}
	return &LoadedSource{Source: SourceProject, Path: projectYAMLPath}, nil
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir()
	}
	cfg.CacheDir = expandHomePath(cfg.CacheDir)
	cfg.Package.OutputDir = expandHomePath(cfg.Package.OutputDir)

	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}

	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys.
// Known nested keys are matched by their underscored form:
// APPKIT_TEMPLATE_API_URL -> template.api_url. List keys split on commas.
func envTransform(name, value string) (string, interface{}) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	for path, schema := range KnownKeys {
		if strings.ReplaceAll(path, ".", "_") != key {
			continue
		}
		if schema.Type == TypeList {
			return path, splitList(value)
		}
		return path, value
	}
	return key, value
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
