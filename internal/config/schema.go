package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeDuration ConfigValueType = iota
	TypeString
	TypeEnum
	TypeList
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Dotted key path (e.g., "template.source")
	Type          ConfigValueType // Expected value type for validation
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
	Default       interface{}     // Default value
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = map[string]ConfigKeySchema{
	"branch": {
		Path:        "branch",
		Type:        TypeString,
		Description: "Template repository branch",
		Default:     DefaultBranch,
	},
	"cache_dir": {
		Path:        "cache_dir",
		Type:        TypeString,
		Description: "Template cache root (empty = $XDG_CACHE_HOME/appkit/templates)",
		Default:     "",
	},
	"http_timeout": {
		Path:        "http_timeout",
		Type:        TypeDuration,
		Description: "Per-request timeout for template downloads",
		Default:     "60s",
	},
	"template.source": {
		Path:          "template.source",
		Type:          TypeEnum,
		AllowedValues: []string{"github", "git"},
		Description:   "Where templates are downloaded from",
		Default:       "github",
	},
	"template.owner": {
		Path:        "template.owner",
		Type:        TypeString,
		Description: "Template repository owner",
		Default:     "ThreatConnect-Inc",
	},
	"template.repo": {
		Path:        "template.repo",
		Type:        TypeString,
		Description: "Template repository name",
		Default:     "tcex-app-templates",
	},
	"template.api_url": {
		Path:        "template.api_url",
		Type:        TypeString,
		Description: "GitHub REST API root",
		Default:     "https://api.github.com",
	},
	"template.git_url": {
		Path:        "template.git_url",
		Type:        TypeString,
		Description: "Clone URL for the git source (empty = derived from owner and repo)",
		Default:     "",
	},
	"template.auto_update_prefixes": {
		Path:        "template.auto_update_prefixes",
		Type:        TypeList,
		Description: "Comma-separated key prefixes overwritten without prompting",
		Default:     []string{},
	},
	"github.user": {
		Path:        "github.user",
		Type:        TypeString,
		Description: "GitHub user for authenticated downloads",
		Default:     "",
	},
	"github.token": {
		Path:        "github.token",
		Type:        TypeString,
		Description: "GitHub token (falls back to GITHUB_TOKEN)",
		Default:     "",
	},
	"proxy.url": {
		Path:        "proxy.url",
		Type:        TypeString,
		Description: "HTTP proxy URL for template downloads",
		Default:     "",
	},
	"package.output_dir": {
		Path:        "package.output_dir",
		Type:        TypeString,
		Description: "Output directory for 'appkit package'",
		Default:     "target",
	},
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// SortedKeys returns the known key paths in sorted order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParsedValue represents a configuration value after type inference and validation.
type ParsedValue struct {
	Raw    string      // Original string input from user
	Parsed interface{} // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

// validateAgainstSchema validates a value against a specific schema.
func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeDuration:
		return parseDurationValue(value)
	case TypeEnum:
		return parseEnumValue(schema, value)
	case TypeString:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	case TypeList:
		return ParsedValue{Raw: value, Parsed: splitList(value), Type: TypeList}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

// parseDurationValue parses and validates a duration value.
func parseDurationValue(value string) (ParsedValue, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid duration: %q (examples: 5m, 1h30m, 10s)", value)
	}
	return ParsedValue{Raw: value, Parsed: d.String(), Type: TypeDuration}, nil
}

// parseEnumValue validates a value against allowed enum options.
func parseEnumValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	for _, allowed := range schema.AllowedValues {
		if value == allowed {
			return ParsedValue{Raw: value, Parsed: value, Type: TypeEnum}, nil
		}
	}
	return ParsedValue{}, fmt.Errorf(
		"invalid value: %q (valid options: %s)",
		value,
		strings.Join(schema.AllowedValues, ", "),
	)
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
