// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pyflat/pyflat/internal/assembly"
	"github.com/pyflat/pyflat/internal/config"
	"github.com/pyflat/pyflat/internal/discovery"
	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/issue"
	"github.com/pyflat/pyflat/internal/manifest"
	"github.com/pyflat/pyflat/internal/modname"
	"github.com/pyflat/pyflat/internal/sink"
	"github.com/pyflat/pyflat/pkg/types"
)

type (
	// flattenFlagValues holds the root command's flattening flags.
	flattenFlagValues struct {
		output        string
		moduleOnly    bool
		entries       []string
		mainFrom      string
		allGuards     bool
		guardsFrom    []string
		exclude       []string
		include       []string
		ignoreClashes bool
		shebang       string
		lineWidth     int
		stdlibExtra   []string
		workers       int
		showCLIArgs   bool
		watch         bool
	}

	// runPlan is a fully resolved invocation: one flattening per entry point.
	runPlan struct {
		base    assembly.Options
		entries []manifest.Entry
		output  string
		fanOut  bool
	}

	// flattenRun is one flattening of a plan.
	flattenRun struct {
		name string
		opts assembly.Options
	}

	// flattenResult is a rendered run waiting to be written.
	flattenResult struct {
		name string
		text string
	}
)

func bindFlattenFlags(cmd *cobra.Command, f *flattenFlagValues) {
	fs := cmd.Flags()
	fs.StringVarP(&f.output, "output", "o", "", "output file, or directory when several entry points fan out (default stdout)")
	fs.BoolVarP(&f.moduleOnly, "module-only", "M", false, "build a pure module: no __main__ module, no shebang")
	fs.StringArrayVar(&f.entries, "entry", nil, "build for the entry point `module[:func]` (repeatable)")
	fs.StringVarP(&f.mainFrom, "main-from", "m", "", "append the __main__ module of this sub-package")
	fs.BoolVarP(&f.allGuards, "all-guards", "a", false, "keep every `if __name__ == \"__main__\":` block")
	fs.StringSliceVarP(&f.guardsFrom, "guards-from", "g", nil, "keep entry guards from these modules (comma separated)")
	fs.StringSliceVarP(&f.exclude, "exclude", "E", nil, "exclude these modules and packages (comma separated)")
	fs.StringSliceVarP(&f.include, "include", "i", nil, "re-include modules inside an excluded package (comma separated)")
	fs.BoolVar(&f.ignoreClashes, "ignore-clashes", false, "allow duplicate top-level names")
	fs.StringVarP(&f.shebang, "shebang", "s", string(types.DefaultShebang), "shebang prepended when an entry module is appended")
	fs.IntVarP(&f.lineWidth, "line-width", "w", int(types.DefaultLineWidth), "wrap from-imports longer than this")
	fs.StringSliceVar(&f.stdlibExtra, "stdlib-extra", nil, "extra top-level modules grouped with the standard library")
	fs.IntVar(&f.workers, "workers", 0, "parallel segmentation workers (default GOMAXPROCS)")
	fs.BoolVar(&f.showCLIArgs, "show-cli-args", false, "print the resolved options and exit")
	fs.BoolVar(&f.watch, "watch", false, "re-flatten whenever a source file changes")
}

func runRoot(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *flattenFlagValues, input string) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return app.reportFailure(err, rootFlags, nil)
	}

	plan, err := buildPlan(cmd, cfg, flags, input)
	if err != nil {
		return app.reportFailure(err, rootFlags, cfg)
	}

	if flags.showCLIArgs {
		return plan.print(app.stdout)
	}
	if flags.watch {
		return runWatchMode(ctx, app, rootFlags, cfg, plan)
	}

	if err := app.flatten(ctx, plan, rootFlags.verbose); err != nil {
		return app.reportFailure(err, rootFlags, cfg)
	}
	return nil
}

// reportFailure prints err to stderr, followed by its issue page in verbose
// mode, and returns an ExitError carrying the exit code for err. fang does
// not print reported failures a second time.
func (a *App) reportFailure(err error, rootFlags *rootFlagValues, cfg *config.Config) error {
	svcErr := flattenFailure(err, rootFlags.verbose)
	if rootFlags.verbose {
		renderServiceError(a.stderr, svcErr, a.helpStyle(cfg))
	} else {
		fmt.Fprint(a.stderr, svcErr.StyledMessage)
	}
	return &ExitError{Code: exitCodeFor(err), Err: svcErr}
}

// buildPlan merges config values, explicitly set flags and the project's
// declared entry points into a runPlan. Flags override config values only
// when given on the command line.
func buildPlan(cmd *cobra.Command, cfg *config.Config, f *flattenFlagValues, input string) (*runPlan, error) {
	opts := assembly.DefaultOptions(input)
	opts.Shebang = cfg.Shebang
	opts.IgnoreClashes = cfg.IgnoreClashes
	opts.GuardsAll = cfg.Guards.All
	opts.GuardsFrom = cfg.Guards.From
	opts.Exclude = cfg.Exclude
	opts.Include = cfg.Include
	opts.Imports.LineWidth = cfg.LineWidth
	opts.Imports.ExtraStdlib = cfg.StdlibExtra
	output := cfg.Output

	changed := cmd.Flags().Changed
	if changed("output") {
		output = f.output
	}
	if changed("all-guards") {
		opts.GuardsAll = f.allGuards
	}
	if changed("guards-from") {
		opts.GuardsFrom = f.guardsFrom
	}
	if changed("exclude") {
		opts.Exclude = f.exclude
	}
	if changed("include") {
		opts.Include = f.include
	}
	if changed("ignore-clashes") {
		opts.IgnoreClashes = f.ignoreClashes
	}
	if changed("shebang") {
		opts.Shebang = types.Shebang(f.shebang)
	}
	if changed("line-width") {
		opts.Imports.LineWidth = types.LineWidth(f.lineWidth)
	}
	if changed("stdlib-extra") {
		opts.Imports.ExtraStdlib = f.stdlibExtra
	}
	opts.ModuleOnly = f.moduleOnly
	opts.MainFrom = strings.TrimSpace(f.mainFrom)
	opts.Workers = f.workers

	entries := make([]manifest.Entry, 0, len(f.entries))
	for _, ref := range f.entries {
		e, err := manifest.ParseEntry(ref)
		if err != nil {
			return nil, flaterr.Wrap(flaterr.KindConfiguration, ref, err, "invalid --entry")
		}
		entries = append(entries, e)
	}

	switch {
	case opts.ModuleOnly && (opts.MainFrom != "" || len(entries) > 0):
		return nil, flaterr.New(flaterr.KindConfiguration, "cannot specify --module-only with --main-from or --entry")
	case opts.MainFrom != "" && len(entries) > 0:
		return nil, flaterr.New(flaterr.KindConfiguration, "cannot specify both --main-from and --entry")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if !opts.ModuleOnly && opts.MainFrom == "" && len(entries) == 0 {
		declared, err := declaredEntries(input, opts.Resolve)
		if err != nil {
			return nil, err
		}
		entries = declared
	}

	plan := &runPlan{
		base:    opts,
		entries: entries,
		output:  output,
		fanOut:  len(entries) > 1 && !isStdout(output),
	}
	if plan.fanOut {
		if err := checkFanOutNames(entries); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// checkFanOutNames rejects entry points that would be written to the same
// file of the output directory.
func checkFanOutNames(entries []manifest.Entry) error {
	owners := make(map[string]string, len(entries))
	for _, e := range entries {
		file, err := sink.FileName(e.Module)
		if err != nil {
			return flaterr.Wrap(flaterr.KindConfiguration, e.Module, err, "invalid entry point")
		}
		if prev, ok := owners[file]; ok {
			return flaterr.New(flaterr.KindConfiguration,
				"entry points %s and %s would both be written to %s", prev, e.String(), file)
		}
		owners[file] = e.String()
	}
	return nil
}

// declaredEntries returns the entry points the project manifest declares for
// the package at input. A single-file input has none. An unreadable manifest
// is reported and ignored.
func declaredEntries(input string, resolve []discovery.Option) ([]manifest.Entry, error) {
	target, err := discovery.Resolve(input, resolve...)
	if err != nil {
		return nil, err
	}
	if target.IsFile {
		return nil, nil
	}

	all, err := manifest.Discover(target.Path)
	if err != nil {
		slog.Warn("ignoring project manifest", "error", err)
		return nil, nil
	}

	var entries []manifest.Entry
	for _, e := range all {
		if !modname.IsDottedPrefixOf(target.Package, e.Module) {
			slog.Debug("entry point outside package", "script", e.Name, "module", e.Module, "package", target.Package)
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) > 0 {
		slog.Debug("using declared entry points", "package", target.Package, "count", len(entries))
	}
	return entries, nil
}

// runs expands the plan into one flattening per entry point, or a single
// flattening when there are none.
func (p *runPlan) runs(cache *assembly.Cache) []flattenRun {
	base := p.base
	base.Cache = cache
	if len(p.entries) == 0 {
		return []flattenRun{{name: base.MainFrom, opts: base}}
	}
	runs := make([]flattenRun, 0, len(p.entries))
	for _, e := range p.entries {
		opts := base
		opts.MainFrom = e.Module
		runs = append(runs, flattenRun{name: e.Module, opts: opts})
	}
	return runs
}

// print writes the resolved options, one key per line.
func (p *runPlan) print(w io.Writer) error {
	entries := make([]string, len(p.entries))
	for i, e := range p.entries {
		entries[i] = e.String()
	}
	output := p.output
	if isStdout(output) {
		output = sink.StdoutName
	}

	rows := []struct {
		key   string
		value any
	}{
		{"input", p.base.Input},
		{"output", output},
		{"fan_out", p.fanOut},
		{"module_only", p.base.ModuleOnly},
		{"main_from", p.base.MainFrom},
		{"entries", strings.Join(entries, ", ")},
		{"all_guards", p.base.GuardsAll},
		{"guards_from", strings.Join(p.base.GuardsFrom, ", ")},
		{"exclude", strings.Join(p.base.Exclude, ", ")},
		{"include", strings.Join(p.base.Include, ", ")},
		{"ignore_clashes", p.base.IgnoreClashes},
		{"shebang", p.base.Shebang},
		{"interpreter", strings.Join(p.base.Shebang.Interpreter(), " ")},
		{"line_width", p.base.Imports.LineWidth},
		{"stdlib_extra", strings.Join(p.base.Imports.ExtraStdlib, ", ")},
		{"workers", p.base.Workers},
	}

	if _, err := fmt.Fprintln(w, TitleStyle.Render("Resolved options")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s: %v\n", CmdStyle.Render(row.key), row.value); err != nil {
			return err
		}
	}
	return nil
}

// flatten executes every run of plan and writes the results to the plan's
// sink. It stops at the first failure.
func (a *App) flatten(ctx context.Context, plan *runPlan, verbose bool) error {
	return a.flattenWith(ctx, plan, nil, verbose)
}

func (a *App) flattenWith(ctx context.Context, plan *runPlan, cache *assembly.Cache, verbose bool) error {
	out, err := sink.Open(plan.output, plan.fanOut, a.stdout)
	if err != nil {
		return outputFailure("open output", plan.output, err)
	}

	// Every run is rendered before the first write: a failing entry point
	// leaves no output behind.
	runs := plan.runs(cache)
	results := make([]flattenResult, 0, len(runs))
	for _, run := range runs {
		c, err := assembly.New(run.opts)
		if err != nil {
			return err
		}
		if err := c.Discover(ctx); err != nil {
			a.renderDiagnostics(c.Diagnostics(), verbose)
			return err
		}
		a.renderDiagnostics(c.Diagnostics(), verbose)

		text, err := c.Render()
		if err != nil {
			return err
		}

		name := run.name
		if name == "" {
			name = c.Package()
		}
		results = append(results, flattenResult{name: name, text: text})
		slog.Debug("flattened", "package", c.Package(), "entry", c.Entry(), "modules", len(c.Modules()))
	}

	for _, res := range results {
		if err := out.Write(res.name, res.text); err != nil {
			return outputFailure("write output", res.name, err)
		}
	}
	return nil
}

// outputFailure reports a sink failure with what the user can do about it.
func outputFailure(operation, resource string, err error) error {
	return issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithSuggestion("Check that the output path exists and is writable").
		WithSuggestion("Pass --output - to print the result instead").
		WithIssue(issue.OutputWriteFailedId).
		Wrap(err).
		BuildError()
}

func isStdout(output string) bool {
	switch strings.TrimSpace(output) {
	case "", "-", sink.StdoutName:
		return true
	}
	return false
}
