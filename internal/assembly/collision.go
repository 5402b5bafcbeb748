// SPDX-License-Identifier: MPL-2.0

package assembly

import (
	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/segment"
)

// CheckCollisions scans segs left to right and fails with a DuplicateNameError
// on the first class or function whose name is already bound, either by an
// earlier definition or by one of the imported names in bound.
func CheckCollisions(segs []segment.Segment, bound []string) error {
	seen := make(map[string]struct{}, len(bound)+len(segs))
	for _, name := range bound {
		seen[name] = struct{}{}
	}
	for _, s := range segs {
		if !s.Kind.IsDefinition() {
			continue
		}
		name := segment.DefinitionName(s.Text)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			return flaterr.New(flaterr.KindDuplicateName, "duplicate top-level name: %s", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
