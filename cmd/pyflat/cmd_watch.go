// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pyflat/pyflat/internal/assembly"
	"github.com/pyflat/pyflat/internal/config"
	"github.com/pyflat/pyflat/internal/discovery"
	"github.com/pyflat/pyflat/internal/sink"
	"github.com/pyflat/pyflat/internal/watch"
)

// runWatchMode flattens the plan once, then re-flattens it whenever a source
// file below the package directory changes. It blocks until the context is
// cancelled (e.g., Ctrl+C). Segmentation results are cached between rebuilds
// so only edited modules are read again.
func runWatchMode(ctx context.Context, app *App, rootFlags *rootFlagValues, cfg *config.Config, plan *runPlan) error {
	target, err := discovery.Resolve(plan.base.Input, plan.base.Resolve...)
	if err != nil {
		return app.reportFailure(err, rootFlags, cfg)
	}
	baseDir := target.Path
	if target.IsFile {
		baseDir = filepath.Dir(target.Path)
	}

	wcfg := watch.Config{
		Ignore:      cfg.Watch.Ignore,
		Debounce:    cfg.Watch.Debounce,
		ClearScreen: cfg.Watch.ClearScreen && app.isTerminal(app.stdout),
		BaseDir:     baseDir,
		Stdout:      app.stdout,
		Stderr:      app.stderr,
	}
	if target.IsFile {
		wcfg.Patterns = []string{filepath.Base(target.Path)}
	}
	if err := ignoreOutput(&wcfg, plan); err != nil {
		return err
	}

	// Status lines go to stderr when the flattened module itself is written
	// to stdout.
	status := app.stdout
	if isStdout(plan.output) {
		status = app.stderr
	}

	rebuild := func(ctx context.Context) error {
		return app.flattenWith(ctx, plan, app.Cache, rootFlags.verbose)
	}

	fmt.Fprintf(status, "%s Watch mode: initial build of '%s'\n", VerboseHighlightStyle.Render("→"), plan.base.Input)
	if buildErr := rebuild(ctx); buildErr != nil {
		// Keep watching; the user may fix the error and save again.
		fmt.Fprintf(app.stderr, "%s Initial build failed: %s\n", WarningStyle.Render("!"), formatErrorForDisplay(buildErr, rootFlags.verbose))
	}
	fmt.Fprintf(status, "\n%s Watching %s for changes (Ctrl+C to stop)...\n\n", VerboseHighlightStyle.Render("→"), baseDir)

	wcfg.OnChange = func(ctx context.Context, changed []string) error {
		fmt.Fprintf(status, "%s Detected %d change(s): %s\n",
			VerboseHighlightStyle.Render("→"), len(changed), strings.Join(changed, ", "))
		forgetChanged(app.Cache, baseDir, changed)
		if buildErr := rebuild(ctx); buildErr != nil {
			fmt.Fprintf(app.stderr, "%s Rebuild failed: %s\n", WarningStyle.Render("!"), formatErrorForDisplay(buildErr, rootFlags.verbose))
		} else {
			fmt.Fprintf(status, "%s Rebuilt %s\n", SuccessStyle.Render("✓"), plan.base.Input)
		}
		fmt.Fprintf(status, "\n%s Watching for changes...\n\n", VerboseHighlightStyle.Render("→"))
		return nil
	}

	w, err := watch.New(wcfg)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	return w.Run(ctx)
}

// forgetChanged drops the cached segments of the changed files, which are
// relative to baseDir.
func forgetChanged(cache *assembly.Cache, baseDir string, changed []string) {
	paths := make([]string, len(changed))
	for i, rel := range changed {
		paths[i] = filepath.Join(baseDir, rel)
	}
	if n := cache.Forget(paths...); n > 0 {
		slog.Debug("dropped stale segments", "entries", n)
	}
}

// ignoreOutput keeps the watcher from reacting to its own output when the
// output lives inside the watched directory.
func ignoreOutput(wcfg *watch.Config, plan *runPlan) error {
	if isStdout(plan.output) {
		return nil
	}
	path, err := sink.ExpandPath(plan.output)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if !plan.fanOut {
		wcfg.IgnorePaths = append(wcfg.IgnorePaths, abs)
		return nil
	}

	rel, err := filepath.Rel(wcfg.BaseDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil //nolint:nilerr // output directory outside the watched tree
	}
	if rel != "." {
		wcfg.Ignore = append(append([]string(nil), wcfg.Ignore...), filepath.ToSlash(rel)+"/**")
		return nil
	}
	// Fanned-out modules land next to the sources; ignore each one.
	for _, e := range plan.entries {
		file, err := sink.FileName(e.Module)
		if err != nil {
			return err
		}
		wcfg.IgnorePaths = append(wcfg.IgnorePaths, filepath.Join(abs, file))
	}
	return nil
}
