// SPDX-License-Identifier: MPL-2.0

package discovery

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityInfo indicates a purely informational note.
	SeverityInfo Severity = "info"

	// CodeSearchPathMissing is reported for a PYTHONPATH entry that does not exist.
	CodeSearchPathMissing = "search_path_missing"
	// CodeDirSkipped is reported for a hidden or cache directory left out of the walk.
	CodeDirSkipped = "dir_skipped"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic is a non-fatal discovery finding returned to the caller
	// rather than printed, so the CLI decides how to render it.
	Diagnostic struct {
		// Severity is the diagnostic level.
		Severity Severity
		// Code is a machine-readable identifier (e.g., "dir_skipped").
		Code string
		// Message is the human-readable description.
		Message string
		// Path is the file system path the diagnostic is about.
		Path string
	}
)
