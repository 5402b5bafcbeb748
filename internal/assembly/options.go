// SPDX-License-Identifier: MPL-2.0

package assembly

import (
	"github.com/pyflat/pyflat/internal/discovery"
	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/pyimport"
	"github.com/pyflat/pyflat/pkg/types"
)

// Options configures one flattening run.
type Options struct {
	// Input is a package directory, a source file or a dotted package name.
	Input string

	// ModuleOnly drops every __main__ module: no entry body, no shebang.
	ModuleOnly bool
	// MainFrom designates the sub-package whose __main__ module (or the plain
	// module whose body) is appended last. Empty means the package's own
	// __main__.
	MainFrom string

	// GuardsAll retains the entry guard of every module.
	GuardsAll bool
	// GuardsFrom retains the entry guards of the listed modules only, in
	// list order. Ignored when GuardsAll is set.
	GuardsFrom []string

	// Exclude drops the listed modules and everything below them.
	Exclude []string
	// Include re-admits modules inside an excluded subtree. It requires
	// Exclude.
	Include []string

	// IgnoreClashes skips the duplicate top-level name check.
	IgnoreClashes bool
	// Shebang is prepended when an entry body is appended. Empty disables it.
	Shebang types.Shebang

	// Imports configures import normalization.
	Imports pyimport.Options

	// Workers bounds parallel segmentation. Zero or less uses GOMAXPROCS.
	Workers int
	// Cache, when set, reuses segmentation results across runs.
	Cache *Cache
	// Resolve configures how Input is resolved.
	Resolve []discovery.Option
}

// DefaultOptions returns the options of a plain `pyflat <input>` run.
func DefaultOptions(input string) Options {
	return Options{
		Input:   input,
		Shebang: types.DefaultShebang,
		Imports: pyimport.DefaultOptions(),
	}
}

// Validate checks option combinations that do not need the file system.
func (o Options) Validate() error {
	if len(o.Include) > 0 && len(o.Exclude) == 0 {
		return flaterr.New(flaterr.KindConfiguration, "cannot specify include without exclude")
	}
	if o.ModuleOnly && o.MainFrom != "" {
		return flaterr.New(flaterr.KindConfiguration, "cannot combine module-only with main-from %q", o.MainFrom)
	}
	if err := o.Imports.Validate(); err != nil {
		return err
	}
	if err := o.Shebang.Validate(); err != nil {
		return flaterr.Wrap(flaterr.KindInvalidConfiguration, "", err, "invalid shebang")
	}
	return nil
}
