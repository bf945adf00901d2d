package config

import "strings"

// RedactedValue replaces secrets in displayed configuration.
const RedactedValue = "********"

// Value returns the effective value of a known key for display. Durations
// are returned in their string form.
func (c *Configuration) Value(key string) (interface{}, error) {
	if _, err := GetKeySchema(key); err != nil {
		return nil, err
	}
	switch key {
	case "branch":
		return c.Branch, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "http_timeout":
		return c.HTTPTimeout.String(), nil
	case "template.source":
		return c.Template.Source, nil
	case "template.owner":
		return c.Template.Owner, nil
	case "template.repo":
		return c.Template.Repo, nil
	case "template.api_url":
		return c.Template.APIURL, nil
	case "template.git_url":
		return c.Template.GitURL, nil
	case "template.auto_update_prefixes":
		prefixes := c.Template.AutoUpdatePrefixes
		if prefixes == nil {
			prefixes = []string{}
		}
		return prefixes, nil
	case "github.user":
		return c.GitHub.User, nil
	case "github.token":
		return c.GitHub.Token, nil
	case "proxy.url":
		return c.Proxy.URL, nil
	case "package.output_dir":
		return c.Package.OutputDir, nil
	}
	return nil, ErrUnknownKey{Key: key}
}

// Map returns every known key as a nested map. With redact set, a
// non-empty github.token is replaced by RedactedValue.
func (c *Configuration) Map(redact bool) map[string]interface{} {
	root := map[string]interface{}{}
	for _, key := range SortedKeys() {
		value, err := c.Value(key)
		if err != nil {
			continue
		}
		if redact && key == "github.token" && value != "" {
			value = RedactedValue
		}

		parts := strings.Split(key, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return root
}
