// SPDX-License-Identifier: MPL-2.0

package segment

import "strings"

const (
	// KindImport is an import statement (whole-module or from-import).
	KindImport Kind = "import"
	// KindClass is a class definition, decorators included.
	KindClass Kind = "class"
	// KindFunction is a def or async def, decorators included.
	KindFunction Kind = "function"
	// KindLogic is any other top-level statement.
	KindLogic Kind = "logic"
	// KindEntryGuard is an `if __name__ == "__main__":` block.
	KindEntryGuard Kind = "entry_guard"
	// KindBlank is a synthetic separator line.
	KindBlank Kind = "blank"
	// KindExportList is an `__all__` declaration.
	KindExportList Kind = "export_list"
)

type (
	// Kind classifies a Segment.
	Kind string

	// Segment is one top-level statement with its exact source text.
	// Text always ends with a newline.
	Segment struct {
		Kind Kind
		Text string
		// Line is the 1-based line the segment starts at in its file,
		// or 0 for synthetic segments.
		Line int
	}
)

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// IsDefinition reports whether the kind declares a top-level name.
func (k Kind) IsDefinition() bool {
	return k == KindClass || k == KindFunction
}

// Blank returns a fresh separator segment.
func Blank() Segment {
	return Segment{Kind: KindBlank, Text: "\n"}
}

// Join concatenates the text of segs in order.
func Join(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Filter returns the segments of segs whose kind satisfies keep, in order.
func Filter(segs []Segment, keep func(Kind) bool) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if keep(s.Kind) {
			out = append(out, s)
		}
	}
	return out
}
