package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/xerochat/internal/render"
	"github.com/iksnae/xerochat/testutil"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func init() {
	// keep styled output free of escape codes when tests run in a terminal
	lipgloss.SetColorProfile(termenv.Ascii)
}

// testEnv is an isolated data directory and endpoint for command tests
type testEnv struct {
	dir      string
	storage  string
	endpoint string
	server   *testutil.CompletionServer
}

func newTestEnv(t *testing.T, responses ...testutil.CannedResponse) *testEnv {
	t.Helper()
	t.Setenv("XEROCHAT_ENDPOINT", "")
	t.Setenv("XEROCHAT_MODEL", "")
	srv := testutil.NewCompletionServer(t, responses...)
	return &testEnv{
		dir:      testutil.CreateTempDir(t),
		storage:  "file",
		endpoint: srv.URL,
		server:   srv,
	}
}

// newFixtureEnv is a testEnv whose SQLite database holds the sample sessions
func newFixtureEnv(t *testing.T, responses ...testutil.CannedResponse) *testEnv {
	t.Helper()
	env := newTestEnv(t, responses...)
	env.storage = "sqlite"
	testutil.CreateSQLiteFixture(t, filepath.Join(env.dir, "xerochat.db"))
	return env
}

// run executes the root command against the environment
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runWithInput(t, "", args...)
}

func (e *testEnv) runWithInput(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	full := append([]string{
		"--data-dir", e.dir,
		"--config", filepath.Join(e.dir, "config.yaml"),
		"--storage", e.storage,
		"--endpoint", e.endpoint,
	}, args...)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(full)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	defer resetCommandFlags(rootCmd)

	err := rootCmd.Execute()
	return stdout.String(), err
}

// mustRun fails the test when the command fails
func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("xerochat %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

// resetCommandFlags restores every flag to its default; cobra keeps parsed
// values between Execute calls
func resetCommandFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetCommandFlags(sub)
	}
}

// fakeClipboard records copied text
type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

// useClipboard swaps the clipboard for the duration of the test
func useClipboard(t *testing.T, clip render.Clipboard) {
	t.Helper()
	prev := newClipboard
	newClipboard = func() render.Clipboard { return clip }
	t.Cleanup(func() { newClipboard = prev })
}

// writePNG writes a file with a PNG signature
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// writeConfig writes config.yaml into dir
func writeConfig(t *testing.T, dir, yaml string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}
