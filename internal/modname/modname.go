// SPDX-License-Identifier: MPL-2.0

// Package modname maps module references to fully qualified dotted names and
// answers dotted-prefix questions about them.
package modname

import (
	"path/filepath"
	"strings"
)

const (
	// InitModule is the stem of a package initializer file.
	InitModule = "__init__"
	// MainModule is the stem of a package's direct-execution entry file.
	MainModule = "__main__"
	// SourceExt is the extension of ingested source files.
	SourceExt = ".py"
)

// Qualify returns name as a dotted name under pkg. Leading dots (relative
// references) are stripped, then pkg+"." is prefixed unless name already is
// pkg or lives under it.
func Qualify(name, pkg string) string {
	name = strings.TrimLeft(name, ".")
	if pkg == "" {
		return name
	}
	if name == "" {
		return pkg
	}
	if name == pkg || strings.HasPrefix(name, pkg+".") {
		return name
	}
	return pkg + "." + name
}

// QualifyAll applies Qualify to every non-empty name.
func QualifyAll(names []string, pkg string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		out = append(out, Qualify(strings.TrimSpace(n), pkg))
	}
	return out
}

// IsDottedPrefixOf reports whether full equals candidate or is nested under it.
func IsDottedPrefixOf(candidate, full string) bool {
	return full == candidate || strings.HasPrefix(full, candidate+".")
}

// AnyPrefixOf reports whether any candidate is a dotted prefix of full.
func AnyPrefixOf(candidates []string, full string) bool {
	for _, c := range candidates {
		if IsDottedPrefixOf(c, full) {
			return true
		}
	}
	return false
}

// Root returns the first segment of a dotted name.
func Root(name string) string {
	root, _, _ := strings.Cut(name, ".")
	return root
}

// Last returns the final segment of a dotted name.
func Last(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// IsMain reports whether name denotes an entry-style module.
func IsMain(name string) bool {
	return Last(name) == MainModule
}

// FromPath converts a source file path relative to the package directory into
// the dotted module name under pkg. Package initializers collapse onto their
// containing package.
func FromPath(rel, pkg string) string {
	rel = filepath.ToSlash(strings.TrimSuffix(rel, SourceExt))
	parts := strings.Split(rel, "/")
	if parts[len(parts)-1] == InitModule {
		parts = parts[:len(parts)-1]
	}
	dotted := make([]string, 0, len(parts)+1)
	if pkg != "" {
		dotted = append(dotted, pkg)
	}
	for _, p := range parts {
		if p != "" && p != "." {
			dotted = append(dotted, p)
		}
	}
	return strings.Join(dotted, ".")
}

// Stem returns the module name of a single source file.
func Stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), SourceExt)
}
