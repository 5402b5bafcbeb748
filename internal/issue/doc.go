// SPDX-License-Identifier: MPL-2.0

// Package issue turns flattening failures into user-facing guidance.
//
// ActionableError wraps a failure with the operation, the resource involved and
// remediation hints. The issue catalog holds one Markdown page per failure kind,
// rendered with glamour by `pyflat explain` and on verbose errors.
package issue
