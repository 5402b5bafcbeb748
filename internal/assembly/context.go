// SPDX-License-Identifier: MPL-2.0

package assembly

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/pyflat/pyflat/internal/discovery"
	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/modname"
	"github.com/pyflat/pyflat/internal/segment"
)

type (
	// Module is one ingested source file.
	Module struct {
		// Name is the dotted module name; initializers carry their package's name.
		Name string
		// Path is the file the module was read from.
		Path string
		// Segments are the file's top-level statements in source order.
		Segments []segment.Segment
	}

	// Context holds the state of one flattening run.
	Context struct {
		opts   Options
		target *discovery.Target
		pkg    string

		exclude    []string
		include    []string
		guardsFrom []string
		mainFrom   string
		// allowedMain is the only __main__ module discovery admits; empty
		// admits none.
		allowedMain string

		modules []*Module
		byName  map[string]int
		guards  map[string][]segment.Segment
		entry   string

		diagnostics []discovery.Diagnostic
	}

	// admitted is a walked file that passed the filters.
	admitted struct {
		file discovery.File
		name string
	}
)

// New resolves the input and validates opts. It fails with a
// ConfigurationError or InvalidConfigurationError for bad option combinations
// and a PathResolutionError when the input cannot be found.
func New(opts Options) (*Context, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	target, err := discovery.Resolve(opts.Input, opts.Resolve...)
	if err != nil {
		return nil, err
	}

	pkg := target.Package
	c := &Context{
		opts:        opts,
		target:      target,
		pkg:         pkg,
		exclude:     modname.QualifyAll(opts.Exclude, pkg),
		include:     modname.QualifyAll(opts.Include, pkg),
		guardsFrom:  modname.QualifyAll(opts.GuardsFrom, pkg),
		byName:      make(map[string]int),
		guards:      make(map[string][]segment.Segment),
		diagnostics: slices.Clone(target.Diagnostics),
	}

	switch {
	case opts.ModuleOnly:
	case opts.MainFrom != "":
		c.mainFrom = modname.Qualify(opts.MainFrom, pkg)
		c.allowedMain = c.mainFrom
		if !modname.IsMain(c.mainFrom) {
			c.allowedMain = c.mainFrom + "." + modname.MainModule
		}
	default:
		c.allowedMain = pkg + "." + modname.MainModule
	}

	slog.Debug("assembly context ready",
		"package", pkg,
		"path", target.Path,
		"single_file", target.IsFile,
		"allowed_main", c.allowedMain,
		"exclude", c.exclude,
		"include", c.include)
	return c, nil
}

// Package returns the dotted name of the package being flattened.
func (c *Context) Package() string { return c.pkg }

// Target returns the resolved input.
func (c *Context) Target() discovery.Target { return *c.target }

// Entry returns the designated entry module name, or "" when there is none.
func (c *Context) Entry() string { return c.entryName() }

// Diagnostics returns the non-fatal findings of resolution and discovery.
func (c *Context) Diagnostics() []discovery.Diagnostic { return slices.Clone(c.diagnostics) }

// Modules returns the ingested modules in ingestion order.
func (c *Context) Modules() []Module {
	out := make([]Module, len(c.modules))
	for i, m := range c.modules {
		out[i] = *m
	}
	return out
}

// Ingest segments the file at path and records it as a module. Its dotted
// name is derived from its location under the package directory; a single
// file input is recorded under the package name itself.
func (c *Context) Ingest(path string) error {
	name, err := c.moduleName(path)
	if err != nil {
		return err
	}
	segs, err := c.segmentFile(path)
	if err != nil {
		return err
	}
	c.record(name, path, segs)
	return nil
}

// Discover ingests every admitted file of the input. Files are segmented in
// parallel but recorded in walk order; when several files fail, the first in
// walk order is reported.
func (c *Context) Discover(ctx context.Context) error {
	if c.target.IsFile {
		return c.Ingest(c.target.Path)
	}

	listing, err := discovery.Walk(c.target.Path)
	if err != nil {
		return err
	}
	c.diagnostics = append(c.diagnostics, listing.Diagnostics...)

	files := c.admit(listing.Files)

	results := make([][]segment.Segment, len(files))
	errs := make([]error, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i, a := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = c.segmentFile(a.file.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, a := range files {
		if errs[i] != nil {
			return errs[i]
		}
		c.record(a.name, a.file.Path, results[i])
		if c.mainFrom != "" && a.name == c.mainFrom && !a.file.IsInit() && !modname.IsMain(a.name) {
			slog.Debug("plain module designated as entry", "module", a.name)
			c.entry = a.name
		}
	}

	if c.mainFrom != "" && c.entry == "" {
		slog.Warn("main-from module not found; no entry body will be appended", "main_from", c.mainFrom)
	}
	return nil
}

// admit applies the exclude/include filters and the entry module policy.
func (c *Context) admit(files []discovery.File) []admitted {
	out := make([]admitted, 0, len(files))
	for _, f := range files {
		name := f.Module(c.pkg)
		if modname.AnyPrefixOf(c.exclude, name) && !modname.AnyPrefixOf(c.include, name) {
			slog.Debug("excluded module", "module", name, "path", f.Path)
			continue
		}
		if modname.IsMain(name) && name != c.allowedMain {
			slog.Debug("skipped __main__ module", "module", name, "allowed", c.allowedMain)
			continue
		}
		out = append(out, admitted{file: f, name: name})
	}
	return out
}

func (c *Context) workers() int {
	if c.opts.Workers > 0 {
		return c.opts.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c *Context) moduleName(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", flaterr.Wrap(flaterr.KindPathResolution, path, err, "cannot resolve module path")
	}
	if c.target.IsFile {
		if abs != c.target.Path {
			return "", flaterr.New(flaterr.KindPathResolution, "%s is not the flattened file %s", path, c.target.Path)
		}
		return c.pkg, nil
	}
	rel, err := filepath.Rel(c.target.Path, abs)
	if err != nil || !filepath.IsLocal(rel) {
		return "", flaterr.New(flaterr.KindPathResolution, "path %s is not inside package root %s", path, c.target.Path)
	}
	return modname.FromPath(rel, c.pkg), nil
}

// segmentFile reads and splits one file, consulting the cache first.
func (c *Context) segmentFile(path string) ([]segment.Segment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, flaterr.Wrap(flaterr.KindIngestion, path, err, "cannot read module")
	}
	key := keyFor(path, info)
	if segs, ok := c.opts.Cache.get(key); ok {
		slog.Debug("segment cache hit", "path", path)
		return segs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, flaterr.Wrap(flaterr.KindIngestion, path, err, "cannot read module")
	}
	segs, err := segment.Split(string(data), path)
	if err != nil {
		return nil, flaterr.Wrap(flaterr.KindIngestion, path, err, "cannot segment module")
	}
	c.opts.Cache.add(key, segs)
	return segs, nil
}

// record stores a module; a second module with the same name replaces the
// first in place.
func (c *Context) record(name, path string, segs []segment.Segment) {
	m := &Module{Name: name, Path: path, Segments: segs}
	if i, ok := c.byName[name]; ok {
		c.modules[i] = m
	} else {
		c.byName[name] = len(c.modules)
		c.modules = append(c.modules, m)
	}

	guards := segment.Filter(segs, func(k segment.Kind) bool { return k == segment.KindEntryGuard })
	if len(guards) > 0 {
		c.guards[name] = guards
	} else {
		delete(c.guards, name)
	}

	if modname.IsMain(name) {
		c.entry = name
	}
	slog.Debug("ingested module", "module", name, "path", path, "segments", len(segs), "guards", len(guards))
}

func (c *Context) module(name string) *Module {
	if i, ok := c.byName[name]; ok {
		return c.modules[i]
	}
	return nil
}
