// SPDX-License-Identifier: MPL-2.0

package pyimport

import (
	"cmp"
	"strings"

	"github.com/pyflat/pyflat/internal/modname"
)

// Star is the bound symbol of a wildcard from-import.
const Star = "*"

// Entry is one imported binding. Unset fields are empty strings, never
// absent, so entries have a total order.
type Entry struct {
	// Origin is the module path imported from ("os.path", ".sibling").
	Origin string
	// Symbol is the name exported by Origin; empty for whole-module imports.
	Symbol string
	// Alias is the local name given with `as`; empty when not renamed.
	Alias string
	// WholeModule is true for `import x` and false for `from x import y`.
	WholeModule bool
}

// NewModuleEntry returns the entry for `import origin [as alias]`.
func NewModuleEntry(origin, alias string) Entry {
	return Entry{Origin: origin, Alias: alias, WholeModule: true}
}

// NewFromEntry returns the entry for `from origin import symbol [as alias]`.
func NewFromEntry(origin, symbol, alias string) Entry {
	return Entry{Origin: origin, Symbol: symbol, Alias: alias}
}

// LocalName is the identifier the entry binds: the alias if set, else the
// imported symbol, else the last component of the origin.
func (e Entry) LocalName() string {
	switch {
	case e.Alias != "":
		return e.Alias
	case e.Symbol != "":
		return e.Symbol
	default:
		return modname.Last(e.Origin)
	}
}

// IsRelative reports whether the origin is an intra-package relative reference.
func (e Entry) IsRelative() bool {
	return e.Origin == "" || strings.HasPrefix(e.Origin, ".")
}

// IsStar reports whether the entry is a wildcard import.
func (e Entry) IsStar() bool {
	return !e.WholeModule && e.Symbol == Star
}

// IsFuture reports whether the entry is a compiler directive import.
func (e Entry) IsFuture() bool {
	return e.Origin == futureModule
}

// Render returns the binding as it appears in an import list:
// `name` or `name as alias`.
func (e Entry) Render() string {
	name := e.Symbol
	if e.WholeModule {
		name = e.Origin
	}
	if e.Alias != "" {
		return name + " as " + e.Alias
	}
	return name
}

// Compare orders entries by origin, symbol, alias, then whole-module flag
// (from-imports first).
func Compare(a, b Entry) int {
	if c := cmp.Compare(a.Origin, b.Origin); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Symbol, b.Symbol); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Alias, b.Alias); c != 0 {
		return c
	}
	switch {
	case a.WholeModule == b.WholeModule:
		return 0
	case a.WholeModule:
		return 1
	default:
		return -1
	}
}
