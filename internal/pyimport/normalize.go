// SPDX-License-Identifier: MPL-2.0

package pyimport

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/modname"
	"github.com/pyflat/pyflat/internal/segment"
	"github.com/pyflat/pyflat/pkg/types"
)

type (
	// Options configures a normalization run.
	Options struct {
		// LineWidth is the longest single-line from-import; longer ones wrap.
		LineWidth types.LineWidth
		// ExtraStdlib lists additional top-level modules to group with the
		// standard library.
		ExtraStdlib []string
	}

	// Result is the canonical import block of a flattened module.
	Result struct {
		// Segments are the canonical import statements, `from __future__`
		// first, each group followed by a blank separator.
		Segments []segment.Segment
		// Bound lists every local name bound by the retained imports, in
		// first-seen order. Future directives and wildcards bind nothing.
		Bound []string
	}

	// originGroup collects the retained entries of one origin.
	originGroup struct {
		origin  string
		modules []Entry
		symbols []Entry
	}
)

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{LineWidth: types.DefaultLineWidth}
}

// Validate rejects a non-positive line width.
func (o Options) Validate() error {
	if err := o.LineWidth.Validate(); err != nil {
		return flaterr.Wrap(flaterr.KindInvalidConfiguration, "", err, "line width must be a positive integer")
	}
	return nil
}

// Normalize merges the import segments of one flattening run into canonical
// import statements. Relative imports and imports of pkg itself (or any of
// its sub-modules) are dropped. Two different origins binding the same local
// name fail with an ImportCollisionError.
func Normalize(pkg string, imports []segment.Segment, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	var entries []Entry
	for _, seg := range imports {
		parsed, err := Parse(seg.Text)
		if err != nil {
			return Result{}, err
		}
		entries = append(entries, parsed...)
	}

	var (
		future  []Entry
		kept    []Entry
		bound   []string
		seen    = make(map[[2]string]bool)
		origins = make(map[string]string)
	)
	for _, e := range entries {
		if e.IsRelative() || (pkg != "" && modname.IsDottedPrefixOf(pkg, e.Origin)) {
			slog.Debug("drop package-internal import", "origin", e.Origin, "package", pkg)
			continue
		}

		name := e.LocalName()
		key := [2]string{e.Origin, name}
		if seen[key] {
			continue
		}
		seen[key] = true

		if e.IsFuture() {
			future = append(future, e)
			continue
		}
		if !e.IsStar() {
			if first, ok := origins[name]; ok && first != e.Origin {
				return Result{}, flaterr.New(flaterr.KindImportCollision,
					"import collision: %q is bound by both %q and %q", name, first, e.Origin)
			}
			origins[name] = e.Origin
			bound = append(bound, name)
		}
		kept = append(kept, e)
	}

	classifier := NewClassifier(opts.ExtraStdlib...)
	var stdlib, thirdParty []Entry
	for _, e := range kept {
		if classifier.IsStdlib(e.Origin) {
			stdlib = append(stdlib, e)
		} else {
			thirdParty = append(thirdParty, e)
		}
	}

	width := int(opts.LineWidth)
	var out []segment.Segment
	for _, group := range [][]Entry{future, stdlib, thirdParty} {
		if len(group) == 0 {
			continue
		}
		for _, og := range groupByOrigin(group) {
			out = append(out, og.render(width)...)
		}
		out = append(out, segment.Blank())
	}

	return Result{Segments: out, Bound: bound}, nil
}

// groupByOrigin buckets entries by origin, origins sorted lexicographically.
func groupByOrigin(entries []Entry) []originGroup {
	byOrigin := make(map[string]*originGroup)
	var order []string
	for _, e := range entries {
		g, ok := byOrigin[e.Origin]
		if !ok {
			g = &originGroup{origin: e.Origin}
			byOrigin[e.Origin] = g
			order = append(order, e.Origin)
		}
		if e.WholeModule {
			g.modules = append(g.modules, e)
		} else {
			g.symbols = append(g.symbols, e)
		}
	}
	slices.Sort(order)

	groups := make([]originGroup, 0, len(order))
	for _, o := range order {
		groups = append(groups, *byOrigin[o])
	}
	return groups
}

// render emits the whole-module statements of the origin as one segment,
// then its from-import as another.
func (g originGroup) render(width int) []segment.Segment {
	var segs []segment.Segment
	if len(g.modules) > 0 {
		var sb strings.Builder
		for _, e := range sortedUnique(g.modules) {
			sb.WriteString("import " + e.Render() + "\n")
		}
		segs = append(segs, segment.Segment{Kind: segment.KindImport, Text: sb.String()})
	}
	if len(g.symbols) > 0 {
		symbols := sortedUnique(g.symbols)
		names := make([]string, len(symbols))
		for i, e := range symbols {
			names[i] = e.Render()
		}
		segs = append(segs, segment.Segment{Kind: segment.KindImport, Text: formatFrom(g.origin, names, width)})
	}
	return segs
}

func sortedUnique(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortFunc(out, Compare)
	return slices.CompactFunc(out, func(a, b Entry) bool { return Compare(a, b) == 0 })
}

// formatFrom renders `from origin import a, b` on one line when it fits in
// width, otherwise as a parenthesized block with one name per line.
func formatFrom(origin string, names []string, width int) string {
	line := fmt.Sprintf("from %s import %s", origin, strings.Join(names, ", "))
	if len(line) <= width {
		return line + "\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "from %s import (\n", origin)
	for _, n := range names {
		sb.WriteString("    ")
		sb.WriteString(n)
		sb.WriteString(",\n")
	}
	sb.WriteString(")\n")
	return sb.String()
}
