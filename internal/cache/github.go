package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultHTTPTimeout bounds each REST call when no client is supplied.
const DefaultHTTPTimeout = 60 * time.Second

// GitHubOptions configures a GitHubSource.
type GitHubOptions struct {
	// APIURL is the REST root, e.g. https://api.github.com.
	APIURL string
	Owner  string
	Repo   string
	// User and Token enable basic auth when both are set.
	User  string
	Token string
	// ProxyURL routes requests through a proxy when set.
	ProxyURL string
	Timeout  time.Duration
	// UserAgent is sent with every request when set.
	UserAgent string
}

// GitHubSource reads the template repository through the GitHub REST API.
type GitHubSource struct {
	baseURL   string
	user      string
	token     string
	userAgent string
	client    *http.Client
}

// NewGitHubSource validates opts and builds the HTTP client.
func NewGitHubSource(opts GitHubOptions) (*GitHubSource, error) {
	if opts.APIURL == "" || opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("github source needs api url, owner and repo")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parsing proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	return &GitHubSource{
		baseURL:   fmt.Sprintf("%s/repos/%s/%s", strings.TrimRight(opts.APIURL, "/"), opts.Owner, opts.Repo),
		user:      opts.User,
		token:     opts.Token,
		userAgent: opts.UserAgent,
		client:    &http.Client{Transport: transport, Timeout: timeout},
	}, nil
}

// BaseURL returns the repository's REST root.
func (s *GitHubSource) BaseURL() string {
	return s.baseURL
}

type commitResponse struct {
	Commit struct {
		Committer struct {
			Date string `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// LatestChange returns the committer date of the branch head.
func (s *GitHubSource) LatestChange(ctx context.Context, branch string) (time.Time, error) {
	resp, err := s.get(ctx, "/commits/"+url.PathEscape(branch))
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	var body commitResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return time.Time{}, fmt.Errorf("decoding commit response: %w", err)
	}
	date := body.Commit.Committer.Date
	if date == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing commit date %q: %w", date, err)
	}
	return t, nil
}

// Fetch downloads the branch zipball and extracts it into dest without the
// archive's top-level directory.
func (s *GitHubSource) Fetch(ctx context.Context, branch, dest string) error {
	resp, err := s.get(ctx, "/zipball/"+url.PathEscape(branch))
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return fmt.Errorf("%w: %q: %w", ErrBranchNotFound, branch, err)
		}
		return err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "appkit-templates-*.zip")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	buf := make([]byte, 1<<20)
	if _, err := io.CopyBuffer(tmp, resp.Body, buf); err != nil {
		tmp.Close()
		return fmt.Errorf("downloading zipball: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing temp archive: %w", err)
	}

	return ExtractZip(tmp.Name(), dest)
}

// get issues an authenticated GET and returns the response when the
// status is 200. Redirects to the CDN are followed.
func (s *GitHubSource) get(ctx context.Context, path string) (*http.Response, error) {
	reqURL := s.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	if s.user != "" && s.token != "" {
		req.SetBasicAuth(s.user, s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{URL: reqURL, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	return resp, nil
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
	}
	return fmt.Sprintf("unexpected status code %d from %s: %s", e.Code, e.URL, e.Body)
}
