// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pyflat/pyflat/internal/assembly"
	"github.com/pyflat/pyflat/internal/config"
	"github.com/pyflat/pyflat/internal/testutil"
	"github.com/pyflat/pyflat/pkg/types"
)

// stubConfigProvider returns a fixed configuration or error.
type stubConfigProvider struct {
	cfg *config.Config
	err error
}

func (s *stubConfigProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.cfg == nil {
		return config.DefaultConfig(), nil
	}
	cfg := *s.cfg
	return &cfg, nil
}

// testApp builds an App writing to buffers. A nil cfg means defaults.
func testApp(t *testing.T, provider ConfigProvider) (app *App, stdout, stderr *bytes.Buffer) {
	t.Helper()
	if provider == nil {
		provider = &stubConfigProvider{}
	}
	cache, err := assembly.NewCache(16)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	app, err = NewApp(Dependencies{
		Config:     provider,
		Cache:      cache,
		Stdout:     stdout,
		Stderr:     stderr,
		IsTerminal: func(io.Writer) bool { return false },
	})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	return app, stdout, stderr
}

// runCLI executes the command tree with args. The root command installs the
// process-wide slog default, so callers must not run in parallel.
func runCLI(t *testing.T, app *App, args ...string) error {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)
	return root.ExecuteContext(context.Background())
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v0.4.0"
		Commit = "abc1234"
		BuildDate = "2026-03-01T10:00:00Z"

		got := getVersionString()
		want := "v0.4.0 (commit: abc1234, built: 2026-03-01T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		// Test binaries report Main.Version == "(devel)".
		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestVersionCommand(t *testing.T) {
	app, stdout, _ := testApp(t, nil)
	if err := runCLI(t, app, "version"); err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "pyflat ") {
		t.Errorf("version output = %q, want pyflat prefix", stdout.String())
	}
}

func TestRootWithoutInputShowsHelp(t *testing.T) {
	app, stdout, _ := testApp(t, nil)
	if err := runCLI(t, app); err != nil {
		t.Fatalf("pyflat error = %v", err)
	}
	if !strings.Contains(stdout.String(), "--module-only") {
		t.Errorf("help output does not list flags:\n%s", stdout.String())
	}
}

func TestVerboseFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UI.Verbose = true
	app, _, _ := testApp(t, &stubConfigProvider{cfg: cfg})

	flags := &rootFlagValues{}
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	if _, err := app.loadConfig(context.Background(), flags); err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if !flags.verbose {
		t.Error("ui.verbose in config did not enable verbose mode")
	}

	explicit := &rootFlagValues{verboseSet: true}
	if _, err := app.loadConfig(context.Background(), explicit); err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if explicit.verbose {
		t.Error("config overrode an explicit --verbose=false")
	}
}

func TestLogFormatFlag(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		dir := testutil.WritePackage(t, "pkg", cliTree)
		app, _, stderr := testApp(t, nil)

		if err := runCLI(t, app, dir, "-v", "--log-format", "json", "--log-timestamps"); err != nil {
			t.Fatalf("pyflat error = %v", err)
		}
		var flattened bool
		// Diagnostics are printed, not logged; only log records are JSON.
		for line := range strings.Lines(stderr.String()) {
			if !strings.HasPrefix(line, "{") {
				continue
			}
			if strings.Contains(line, `"msg":"flattened"`) {
				flattened = true
				if !strings.Contains(line, `"time":`) {
					t.Errorf("log line has no timestamp: %q", line)
				}
			}
		}
		if !flattened {
			t.Errorf("no flattened record logged:\n%s", stderr.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		app, _, _ := testApp(t, nil)
		err := runCLI(t, app, "version", "--log-format", "yaml")
		if got := exitCodeFor(err); got != types.ExitUsage {
			t.Errorf("exit code = %d, want %d (err: %v)", got, types.ExitUsage, err)
		}
	})
}
