// SPDX-License-Identifier: MPL-2.0

package assembly

import (
	"github.com/pyflat/pyflat/internal/segment"
)

// RootParts are the pieces taken from the package initializer.
type RootParts struct {
	// Docstring is the first logic statement when it is a bare string.
	Docstring *segment.Segment
	// ExportList is the first __all__ declaration.
	ExportList *segment.Segment
	// Imports are the initializer's import statements.
	Imports []segment.Segment
	// Logic is everything else except entry guards, which are dropped.
	Logic []segment.Segment
}

// GatherRoot partitions the segments of the root module, the module named
// after the package itself.
func (c *Context) GatherRoot() RootParts {
	var parts RootParts
	root := c.module(c.pkg)
	if root == nil || c.pkg == c.entryName() {
		return parts
	}

	seenLogic := false
	for _, s := range root.Segments {
		switch s.Kind {
		case segment.KindImport:
			parts.Imports = append(parts.Imports, s)
		case segment.KindEntryGuard:
		case segment.KindExportList:
			if parts.ExportList == nil {
				parts.ExportList = &s
				continue
			}
			parts.Logic = append(parts.Logic, s)
		case segment.KindLogic:
			if !seenLogic {
				seenLogic = true
				if segment.IsStringStatement(s.Text) {
					parts.Docstring = &s
					continue
				}
			}
			parts.Logic = append(parts.Logic, s)
		default:
			parts.Logic = append(parts.Logic, s)
		}
	}
	return parts
}

// GatherLeaves returns, in ingestion order, every segment except entry
// guards of every module other than the root and the entry module.
func (c *Context) GatherLeaves() []segment.Segment {
	var out []segment.Segment
	entry := c.entryName()
	for _, m := range c.modules {
		if m.Name == c.pkg || m.Name == entry {
			continue
		}
		for _, s := range m.Segments {
			if s.Kind != segment.KindEntryGuard {
				out = append(out, s)
			}
		}
	}
	return out
}

// GatherEntryGuards returns the entry guards retained by the guard policy.
// The entry module's guards are never returned here; they travel with its
// body.
func (c *Context) GatherEntryGuards() []segment.Segment {
	var out []segment.Segment
	entry := c.entryName()
	switch {
	case c.opts.GuardsAll:
		for _, m := range c.modules {
			if m.Name != entry {
				out = append(out, c.guards[m.Name]...)
			}
		}
	case len(c.guardsFrom) > 0:
		seen := make(map[string]bool, len(c.guardsFrom))
		for _, name := range c.guardsFrom {
			if seen[name] || name == entry {
				continue
			}
			seen[name] = true
			out = append(out, c.guards[name]...)
		}
	}
	return out
}

// GatherEntryBody returns the entry module's non-import segments, including
// its own entry guard, or nil when no entry module is designated.
func (c *Context) GatherEntryBody() []segment.Segment {
	m := c.entryModule()
	if m == nil {
		return nil
	}
	return segment.Filter(m.Segments, func(k segment.Kind) bool { return k != segment.KindImport })
}

// entryImports returns the entry module's imports for the global pool.
func (c *Context) entryImports() []segment.Segment {
	m := c.entryModule()
	if m == nil {
		return nil
	}
	return segment.Filter(m.Segments, func(k segment.Kind) bool { return k == segment.KindImport })
}

// entryName is the entry module in effect: none in module-only runs.
func (c *Context) entryName() string {
	if c.opts.ModuleOnly {
		return ""
	}
	return c.entry
}

func (c *Context) entryModule() *Module {
	if name := c.entryName(); name != "" {
		return c.module(name)
	}
	return nil
}
