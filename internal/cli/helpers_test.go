package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/fatih/color"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// Note: CLI tests cannot run in parallel because they share the global
// rootCmd, environment variables and the xdg base directories.

const (
	testOwner = "acme"
	testRepo  = "templates"
)

func descriptorYAML(parents ...string) string {
	s := "contributor: Acme\ndescription: Basic app\nsummary: A basic app\nversion: 1.2.0\n"
	if len(parents) > 0 {
		s += "template_parents: [" + strings.Join(parents, ", ") + "]\n"
	}
	return s
}

// defaultTemplateFiles is a repository with _app_common and playbook/basic.
func defaultTemplateFiles() map[string]string {
	return map[string]string{
		"_app_common/template.yaml":    descriptorYAML(),
		"_app_common/requirements.txt": "requests\n",
		"_app_common/gitignore":        "*.pyc\n",
		"playbook/basic/template.yaml": descriptorYAML("_app_common"),
		"playbook/basic/app.py":        "print('v1')\n",
		"playbook/basic/appkit.json":   `{"template_name": "basic", "template_type": "playbook", "package": {"app_name": "tcpb-basic", "app_version": "v1"}}`,
	}
}

// templateServer imitates the GitHub REST endpoints the github source uses.
type templateServer struct {
	*httptest.Server

	mu        sync.Mutex
	files     map[string]string
	committed time.Time
	downloads int
	status    int
}

func newTemplateServer(t *testing.T) *templateServer {
	t.Helper()
	s := &templateServer{
		files:     defaultTemplateFiles(),
		committed: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/"+testOwner+"/"+testRepo+"/commits/", s.handleCommit)
	mux.HandleFunc("/repos/"+testOwner+"/"+testRepo+"/zipball/", s.handleZipball)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// publish replaces the repository content with a commit newer than any
// cached snapshot.
func (s *templateServer) publish(files map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = files
	s.committed = time.Now().Add(time.Hour)
}

func (s *templateServer) failWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *templateServer) downloadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads
}

func (s *templateServer) handleCommit(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != 0 {
		http.Error(w, "unavailable", s.status)
		return
	}
	fmt.Fprintf(w, `{"commit": {"committer": {"date": %q}}}`, s.committed.Format(time.RFC3339))
}

func (s *templateServer) handleZipball(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != 0 {
		http.Error(w, "unavailable", s.status)
		return
	}
	s.downloads++

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range s.files {
		f, err := zw.Create(testOwner + "-" + testRepo + "-0a1b2c3/" + name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := f.Write([]byte(content)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	if err := zw.Close(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	_, _ = w.Write(buf.Bytes())
}

// testEnv isolates the run from the real user environment and points the
// github source at a fake server. It returns the server and the cache root.
func testEnv(t *testing.T) (*templateServer, string) {
	t.Helper()
	home := t.TempDir()
	cacheDir := filepath.Join(home, "cache")
	server := newTemplateServer(t)

	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".state"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("NO_COLOR", "1")
	t.Setenv("APPKIT_TEMPLATE_API_URL", server.URL)
	t.Setenv("APPKIT_TEMPLATE_OWNER", testOwner)
	t.Setenv("APPKIT_TEMPLATE_REPO", testRepo)
	t.Setenv("APPKIT_CACHE_DIR", cacheDir)
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	return server, cacheDir
}

// resetFlags restores every flag of cmd and its children to its default so
// values do not leak between runs of the shared rootCmd.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes appkit with args, feeding stdin to prompts.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := execute(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
