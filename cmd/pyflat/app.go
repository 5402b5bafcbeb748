// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pyflat/pyflat/internal/assembly"
	"github.com/pyflat/pyflat/internal/config"
	"github.com/pyflat/pyflat/internal/discovery"
	"github.com/pyflat/pyflat/internal/logging"
)

// segmentCacheSize bounds the modules kept between watch rebuilds.
const segmentCacheSize = 1024

type (
	// App wires the services used by the CLI commands.
	App struct {
		Config ConfigProvider
		Cache  *assembly.Cache

		stdout     io.Writer
		stderr     io.Writer
		isTerminal func(io.Writer) bool
	}

	// Dependencies are the optional overrides accepted by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Cache  *assembly.Cache
		Stdout io.Writer
		Stderr io.Writer
		// IsTerminal reports whether a writer is a terminal. Tests replace it
		// to exercise styled output.
		IsTerminal func(io.Writer) bool
	}

	// ConfigProvider loads configuration from explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.IsTerminal == nil {
		deps.IsTerminal = isTerminal
	}
	if deps.Cache == nil {
		cache, err := assembly.NewCache(segmentCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create segment cache: %w", err)
		}
		deps.Cache = cache
	}

	return &App{
		Config:     deps.Config,
		Cache:      deps.Cache,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		isTerminal: deps.IsTerminal,
	}, nil
}

// loadConfig loads the configuration selected by --config and installs the
// process logger at the resulting verbosity. The --verbose flag wins over the
// config file.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, err
	}
	if !flags.verboseSet && cfg.UI.Verbose {
		flags.verbose = true
		logging.Install(a.stderr, flags.logOptions())
	}
	return cfg, nil
}

// helpStyle is the glamour style used for issue pages on stderr.
func (a *App) helpStyle(cfg *config.Config) string {
	scheme := config.ColorSchemeAuto
	if cfg != nil {
		scheme = cfg.UI.ColorScheme
	}
	return glamourStyle(scheme, a.isTerminal(a.stderr))
}

// renderDiagnostics writes non-fatal resolution and discovery findings to
// stderr. Informational findings are only shown in verbose mode.
func (a *App) renderDiagnostics(diags []discovery.Diagnostic, verbose bool) {
	for _, diag := range diags {
		prefix := WarningStyle.Render("warning")
		if diag.Severity == discovery.SeverityInfo {
			if !verbose {
				continue
			}
			prefix = VerboseStyle.Render("info")
		}

		if diag.Path != "" {
			_, _ = fmt.Fprintf(a.stderr, "%s: %s (%s)\n", prefix, diag.Message, diag.Path)
			continue
		}

		_, _ = fmt.Fprintf(a.stderr, "%s: %s\n", prefix, diag.Message)
	}
}
