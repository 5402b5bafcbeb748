// SPDX-License-Identifier: MPL-2.0

package assembly

import (
	"context"
	"strings"

	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/pyimport"
	"github.com/pyflat/pyflat/internal/segment"
)

// Result is an assembled module.
type Result struct {
	// Segments is the final ordered segment list.
	Segments []segment.Segment
	// Bound lists the names bound by the normalized imports.
	Bound []string
	// HasEntryBody is true when an entry module body was appended.
	HasEntryBody bool
}

// Text serializes the result, prefixed by shebang when an entry body was
// appended.
func (r *Result) Text(shebang string) string {
	var sb strings.Builder
	if r.HasEntryBody && shebang != "" {
		sb.WriteString(strings.TrimRight(shebang, "\n"))
		sb.WriteString("\n")
	}
	sb.WriteString(segment.Join(r.Segments))
	return sb.String()
}

// Assemble orders the ingested segments into the flattened module and runs
// the collision check unless IgnoreClashes is set.
func (c *Context) Assemble() (*Result, error) {
	root := c.GatherRoot()
	leaves := c.GatherLeaves()
	guards := c.GatherEntryGuards()
	body := c.GatherEntryBody()

	isImport := func(k segment.Kind) bool { return k == segment.KindImport }
	notImport := func(k segment.Kind) bool { return k != segment.KindImport }

	imports := make([]segment.Segment, 0, len(root.Imports))
	imports = append(imports, root.Imports...)
	imports = append(imports, segment.Filter(leaves, isImport)...)
	imports = append(imports, c.entryImports()...)

	norm, err := pyimport.Normalize(c.pkg, imports, c.opts.Imports)
	if err != nil {
		if flaterr.KindOf(err) == flaterr.KindUnknown {
			return nil, flaterr.Wrap(flaterr.KindIngestion, c.pkg, err, "cannot normalize imports")
		}
		return nil, err
	}

	var out []segment.Segment
	if root.Docstring != nil {
		out = append(out, *root.Docstring, segment.Blank())
	}
	out = append(out, norm.Segments...)
	if root.ExportList != nil {
		out = append(out, *root.ExportList, segment.Blank())
	}
	for _, group := range [][]segment.Segment{root.Logic, segment.Filter(leaves, notImport), guards} {
		for _, s := range group {
			out = append(out, s, segment.Blank())
		}
	}
	out = append(out, body...)

	if !c.opts.IgnoreClashes {
		if err := CheckCollisions(out, norm.Bound); err != nil {
			return nil, err
		}
	}

	return &Result{Segments: out, Bound: norm.Bound, HasEntryBody: len(body) > 0}, nil
}

// Render assembles the module and serializes it with the configured shebang.
func (c *Context) Render() (string, error) {
	res, err := c.Assemble()
	if err != nil {
		return "", err
	}
	return res.Text(c.opts.Shebang.Line()), nil
}

// Flatten runs a whole flattening: resolve, discover, assemble, render.
func Flatten(ctx context.Context, opts Options) (string, error) {
	c, err := New(opts)
	if err != nil {
		return "", err
	}
	if err := c.Discover(ctx); err != nil {
		return "", err
	}
	return c.Render()
}
