package config

// DefaultBranch is the template repository branch used when none is configured.
const DefaultBranch = "v2"

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# appkit configuration
# See 'appkit config -h' for commands, 'appkit config keys' for all options

branch: v2                            # Template repository branch
cache_dir: ""                         # Template cache root (default: $XDG_CACHE_HOME/appkit/templates)
http_timeout: 60s                     # Per-request timeout for template downloads

# Template repository
template:
  source: github                      # github | git
  owner: ThreatConnect-Inc            # Repository owner (github source)
  repo: tcex-app-templates            # Repository name (github source)
  api_url: https://api.github.com     # GitHub REST root (github source)
  git_url: ""                         # Clone URL (git source, default: https://github.com/<owner>/<repo>.git)
  auto_update_prefixes: []            # Key prefixes overwritten without prompting (e.g. [core/])

# GitHub credentials (token falls back to GITHUB_TOKEN)
github:
  user: ""
  token: ""

# HTTP proxy for template downloads (default: HTTPS_PROXY from the environment)
proxy:
  url: ""

# Packaging
package:
  output_dir: target                  # Where 'appkit package' writes the .tcx archive
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"branch":       DefaultBranch,
		"cache_dir":    "",
		"http_timeout": "60s",
		// template: where templates are downloaded from. The github source
		// polls the REST API for the branch head and downloads a zipball;
		// the git source clones git_url.
		"template": map[string]interface{}{
			"source":  "github",
			"owner":   "ThreatConnect-Inc",
			"repo":    "tcex-app-templates",
			"api_url": "https://api.github.com",
			"git_url": "",
			// auto_update_prefixes: opt-in. Diverged files under these
			// prefixes are overwritten without a prompt.
			"auto_update_prefixes": []string{},
		},
		"github": map[string]interface{}{
			"user":  "",
			"token": "",
		},
		"proxy": map[string]interface{}{
			"url": "",
		},
		"package": map[string]interface{}{
			"output_dir": "target",
		},
	}
}
