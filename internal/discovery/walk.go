// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/modname"
)

// sourcePattern matches every source file below the package directory.
const sourcePattern = "**/*" + modname.SourceExt

type (
	// File is one source file found under a package directory.
	File struct {
		// Path is the absolute path of the file.
		Path string
		// Rel is the slash-separated path relative to the package directory.
		Rel string
	}

	// Listing is the result of walking a package directory.
	Listing struct {
		Files       []File
		Diagnostics []Diagnostic
	}
)

// Module returns the dotted module name of f inside package pkg.
func (f File) Module(pkg string) string {
	return modname.FromPath(f.Rel, pkg)
}

// IsInit reports whether f is a package initializer.
func (f File) IsInit() bool {
	return path.Base(f.Rel) == modname.InitModule+modname.SourceExt
}

// Walk lists every source file under root, sorted by relative path. Files
// inside hidden directories and __pycache__ are left out and reported as
// diagnostics.
func Walk(root string) (*Listing, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, flaterr.Wrap(flaterr.KindPathResolution, root, err, "cannot read package directory")
	}
	if !info.IsDir() {
		return nil, flaterr.New(flaterr.KindPathResolution, "%s is not a directory", root)
	}

	matches, err := doublestar.Glob(os.DirFS(root), sourcePattern,
		doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, flaterr.Wrap(flaterr.KindPathResolution, root, err, "cannot list source files")
	}

	listing := &Listing{Files: make([]File, 0, len(matches))}
	skipped := make(map[string]bool)
	for _, rel := range matches {
		if dir, skip := skippedDir(rel); skip {
			if !skipped[dir] {
				skipped[dir] = true
				listing.Diagnostics = append(listing.Diagnostics, Diagnostic{
					Severity: SeverityInfo,
					Code:     CodeDirSkipped,
					Message:  fmt.Sprintf("skipping source files under %s", dir),
					Path:     filepath.Join(root, filepath.FromSlash(dir)),
				})
			}
			continue
		}
		listing.Files = append(listing.Files, File{
			Path: filepath.Join(root, filepath.FromSlash(rel)),
			Rel:  rel,
		})
	}

	slices.SortFunc(listing.Files, func(a, b File) int { return strings.Compare(a.Rel, b.Rel) })
	return listing, nil
}

// skippedDir returns the first hidden or cache directory on rel's path.
func skippedDir(rel string) (string, bool) {
	parts := strings.Split(rel, "/")
	for i, p := range parts[:len(parts)-1] {
		if strings.HasPrefix(p, ".") || p == "__pycache__" {
			return strings.Join(parts[:i+1], "/"), true
		}
	}
	return "", false
}
