// SPDX-License-Identifier: MPL-2.0

// Package pyimport normalizes the import statements of a flattened package.
//
// Import segments from every ingested module are parsed back into Entries,
// relative and self-referential imports are dropped, duplicates removed, and
// the survivors re-rendered as canonical statements grouped into standard
// library and third-party blocks. `from __future__` imports are emitted ahead
// of both groups.
package pyimport
