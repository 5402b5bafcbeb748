// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// DefaultShebang is prepended to outputs that end with an executable entry body.
const DefaultShebang Shebang = "#!/usr/bin/env python3"

// ErrInvalidShebang is the sentinel error wrapped by InvalidShebangError.
var ErrInvalidShebang = errors.New("invalid shebang")

type (
	// Shebang is the interpreter line written before an executable output.
	// The empty value disables the line.
	Shebang string

	// InvalidShebangError is returned when a Shebang cannot be used as the
	// first line of a script.
	InvalidShebangError struct {
		Value  Shebang
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidShebangError) Error() string {
	return fmt.Sprintf("invalid shebang %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidShebang for errors.Is() compatibility.
func (e *InvalidShebangError) Unwrap() error { return ErrInvalidShebang }

// Validate checks that the shebang is a single line whose interpreter part
// splits into at least one shell word.
func (s Shebang) Validate() error {
	if s == "" {
		return nil
	}
	line := strings.TrimRight(string(s), "\n")
	if strings.ContainsAny(line, "\r\n") {
		return &InvalidShebangError{Value: s, Reason: "must be a single line"}
	}
	interp, ok := strings.CutPrefix(line, "#!")
	if !ok {
		return &InvalidShebangError{Value: s, Reason: "must start with #!"}
	}
	fields, err := shell.Fields(interp, nil)
	if err != nil {
		return &InvalidShebangError{Value: s, Reason: err.Error()}
	}
	if len(fields) == 0 {
		return &InvalidShebangError{Value: s, Reason: "missing interpreter"}
	}
	return nil
}

// Line returns the shebang terminated by exactly one newline, or "" when unset.
func (s Shebang) Line() string {
	if s == "" {
		return ""
	}
	return strings.TrimRight(string(s), "\n") + "\n"
}

// Interpreter returns the interpreter words of the shebang.
func (s Shebang) Interpreter() []string {
	interp, ok := strings.CutPrefix(strings.TrimSpace(string(s)), "#!")
	if !ok {
		return nil
	}
	fields, err := shell.Fields(interp, nil)
	if err != nil {
		return nil
	}
	return fields
}
