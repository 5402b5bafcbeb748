// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/modname"
)

type (
	// Target is a resolved flattening input.
	Target struct {
		// Path is the absolute path of the package directory or source file.
		Path string
		// Package is the dotted name of the package being flattened.
		Package string
		// IsFile is true when the input is a single source file.
		IsFile bool
		// Diagnostics holds non-fatal findings made while resolving.
		Diagnostics []Diagnostic
	}

	// Option configures input resolution.
	Option func(*resolver)

	resolver struct {
		baseDir    string
		searchPath []string
		searchSet  bool
	}
)

// WithBaseDir sets the directory relative inputs and bare package names are
// resolved against. Defaults to the working directory.
func WithBaseDir(dir string) Option {
	return func(r *resolver) { r.baseDir = dir }
}

// WithSearchPath replaces the package search path, which defaults to the
// entries of PYTHONPATH.
func WithSearchPath(dirs ...string) Option {
	return func(r *resolver) {
		r.searchPath = dirs
		r.searchSet = true
	}
}

// Resolve turns input into a Target. It fails with a ConfigurationError when
// input is empty and a PathResolutionError when input is neither an existing
// file or directory nor a package name found on the search path.
func Resolve(input string, opts ...Option) (*Target, error) {
	if strings.TrimSpace(input) == "" {
		return nil, flaterr.New(flaterr.KindConfiguration, "input path is required")
	}

	r := &resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, flaterr.Wrap(flaterr.KindPathResolution, input, err, "cannot determine working directory")
		}
		r.baseDir = wd
	}
	if !r.searchSet {
		r.searchPath = filepath.SplitList(os.Getenv("PYTHONPATH"))
	}

	path := input
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	if info, err := os.Stat(path); err == nil {
		return targetFor(path, info)
	}

	return r.lookupPackage(input)
}

func targetFor(path string, info os.FileInfo) (*Target, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, flaterr.Wrap(flaterr.KindPathResolution, path, err, "cannot resolve absolute path")
	}
	switch {
	case info.IsDir():
		return &Target{Path: abs, Package: filepath.Base(abs)}, nil
	case info.Mode().IsRegular():
		return &Target{Path: abs, Package: modname.Stem(abs), IsFile: true}, nil
	default:
		return nil, flaterr.New(flaterr.KindPathResolution,
			"input path %q exists but is neither a file nor a directory", path)
	}
}

// lookupPackage searches the search path, then the base directory, for a
// package or module named by the dotted input.
func (r *resolver) lookupPackage(name string) (*Target, error) {
	if !isDottedIdentifier(name) {
		return nil, flaterr.New(flaterr.KindPathResolution, "cannot infer project package name from %q", name)
	}

	var diags []Diagnostic
	rel := filepath.FromSlash(strings.ReplaceAll(name, ".", "/"))
	dirs := append(append([]string(nil), r.searchPath...), r.baseDir)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeSearchPathMissing,
				Message:  fmt.Sprintf("search path entry %s is not accessible: %v", dir, err),
				Path:     dir,
			})
			continue
		}

		pkgDir := filepath.Join(dir, rel)
		if fileExists(filepath.Join(pkgDir, modname.InitModule+modname.SourceExt)) {
			slog.Debug("resolved package", "name", name, "dir", pkgDir)
			return found(pkgDir, diags)
		}
		modFile := pkgDir + modname.SourceExt
		if fileExists(modFile) {
			slog.Debug("resolved module", "name", name, "file", modFile)
			return found(modFile, diags)
		}
	}

	return nil, flaterr.New(flaterr.KindPathResolution, "cannot infer project package name from %q", name)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func found(path string, diags []Diagnostic) (*Target, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, flaterr.Wrap(flaterr.KindPathResolution, path, err, "cannot stat resolved package")
	}
	t, err := targetFor(path, info)
	if err != nil {
		return nil, err
	}
	t.Diagnostics = diags
	return t, nil
}

func isDottedIdentifier(name string) bool {
	for part := range strings.SplitSeq(name, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
				continue
			}
			return false
		}
	}
	return true
}
