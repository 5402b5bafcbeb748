// SPDX-License-Identifier: MPL-2.0

// Package manifest reads the console entry points a Python project declares
// in its pyproject.toml.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// FileName is the project manifest file name.
const FileName = "pyproject.toml"

// ErrInvalidEntry is returned for an entry point reference that names no module.
var ErrInvalidEntry = errors.New("invalid entry point")

type (
	// Entry is one declared entry point: `name = "module:function"`.
	Entry struct {
		// Name is the script name, empty for entries given on the command line.
		Name string
		// Module is the dotted module holding the callable.
		Module string
		// Func is the attribute path of the callable, empty when the reference
		// names a module only.
		Func string
	}

	// document is the subset of pyproject.toml this package reads.
	document struct {
		Project struct {
			Scripts map[string]string `toml:"scripts"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				// Poetry accepts either a reference string or a table with a
				// `callable` (or older `reference`) key.
				Scripts map[string]any `toml:"scripts"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
)

// String renders the entry as `module:func`.
func (e Entry) String() string {
	if e.Func == "" {
		return e.Module
	}
	return e.Module + ":" + e.Func
}

// ParseEntry parses an entry point reference of the form `module[:func]`,
// ignoring a trailing `[extras]` marker.
func ParseEntry(ref string) (Entry, error) {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexByte(ref, '['); i >= 0 {
		ref = strings.TrimSpace(ref[:i])
	}
	mod, fn, _ := strings.Cut(ref, ":")
	mod, fn = strings.TrimSpace(mod), strings.TrimSpace(fn)
	if mod == "" {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidEntry, ref)
	}
	return Entry{Module: mod, Func: fn}, nil
}

// Find returns the path of the pyproject.toml in dir or, failing that, its
// parent. It returns "" when neither has one.
func Find(dir string) string {
	for _, d := range []string{dir, filepath.Dir(dir)} {
		path := filepath.Join(d, FileName)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// Load reads the entry points declared by the manifest at path. Entries from
// [project.scripts] win; [tool.poetry.scripts] is used only when the former is
// empty. Entries are sorted by script name.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	refs := doc.Project.Scripts
	if len(refs) == 0 {
		refs = make(map[string]string, len(doc.Tool.Poetry.Scripts))
		for name, v := range doc.Tool.Poetry.Scripts {
			if ref := poetryReference(v); ref != "" {
				refs[name] = ref
			}
		}
	}

	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	slices.Sort(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		e, err := ParseEntry(refs[name])
		if err != nil {
			return nil, fmt.Errorf("script %q in %s: %w", name, path, err)
		}
		e.Name = name
		entries = append(entries, e)
	}
	return entries, nil
}

// Discover loads the entry points of the manifest found next to dir. A
// missing manifest yields no entries and no error.
func Discover(dir string) ([]Entry, error) {
	path := Find(dir)
	if path == "" {
		return nil, nil
	}
	return Load(path)
}

func poetryReference(v any) string {
	switch ref := v.(type) {
	case string:
		return ref
	case map[string]any:
		if kind, _ := ref["type"].(string); kind == "file" {
			return ""
		}
		for _, key := range []string{"callable", "reference"} {
			if s, ok := ref[key].(string); ok {
				return s
			}
		}
	}
	return ""
}
