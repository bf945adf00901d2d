package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyKeyPath is returned for an empty dotted key.
	ErrEmptyKeyPath = errors.New("empty key path")
	// ErrInvalidKeyPath is returned for a key with an empty segment, e.g. "a..b".
	ErrInvalidKeyPath = errors.New("invalid key path")
)

// ParseKeyPath splits a dotted key into its segments.
func ParseKeyPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrEmptyKeyPath
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyPath, path)
		}
	}
	return parts, nil
}

// GetNestedValue returns the value node at keyPath, or nil.
func GetNestedValue(root *yaml.Node, keyPath []string) *yaml.Node {
	if len(keyPath) == 0 {
		return nil
	}
	node := root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	for _, key := range keyPath {
		node = mappingValue(node, key)
		if node == nil {
			return nil
		}
	}
	return node
}

// SetNestedValue sets keyPath to value, creating intermediate mappings.
// An existing value keeps its comments.
func SetNestedValue(root *yaml.Node, keyPath []string, value interface{}) error {
	if len(keyPath) == 0 {
		return ErrEmptyKeyPath
	}

	if root.Kind == 0 {
		root.Kind = yaml.DocumentNode
	}
	if root.Kind != yaml.DocumentNode {
		return fmt.Errorf("expected a YAML document")
	}
	if len(root.Content) == 0 {
		root.Content = []*yaml.Node{newMapping()}
	}
	node := root.Content[0]
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*node = *newMapping()
	}

	for i, key := range keyPath {
		if node.Kind != yaml.MappingNode {
			return fmt.Errorf("%s is not a mapping", strings.Join(keyPath[:i], "."))
		}
		child := mappingValue(node, key)

		if i == len(keyPath)-1 {
			var valueNode yaml.Node
			if err := valueNode.Encode(value); err != nil {
				return fmt.Errorf("encoding value for %s: %w", strings.Join(keyPath, "."), err)
			}
			if child == nil {
				node.Content = append(node.Content, keyNode(key), &valueNode)
				return nil
			}
			valueNode.HeadComment = child.HeadComment
			valueNode.LineComment = child.LineComment
			valueNode.FootComment = child.FootComment
			*child = valueNode
			return nil
		}

		if child == nil {
			child = newMapping()
			node.Content = append(node.Content, keyNode(key), child)
		}
		node = child
	}
	return nil
}

// SetConfigValue validates value for key and writes it into the YAML file
// at configPath, creating the file and its directory when missing.
func SetConfigValue(configPath, key, value string) error {
	parsed, err := ValidateValue(key, value)
	if err != nil {
		return err
	}
	keyPath, err := ParseKeyPath(key)
	if err != nil {
		return err
	}

	var root yaml.Node
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := ValidateYAMLSyntaxFromBytes(data, configPath); err != nil {
			return err
		}
		if len(strings.TrimSpace(string(data))) > 0 {
			if err := yaml.Unmarshal(data, &root); err != nil {
				return fmt.Errorf("parsing %s: %w", configPath, err)
			}
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("reading %s: %w", configPath, err)
	}

	if err := SetNestedValue(&root, keyPath, parsed.Parsed); err != nil {
		return err
	}

	out, err := yaml.Marshal(&root)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", configPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	return nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func newMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}
