// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// DefaultLineWidth is the column limit after which a from-import is wrapped
// into a parenthesized block.
const DefaultLineWidth LineWidth = 80

// ErrInvalidLineWidth is the sentinel error wrapped by InvalidLineWidthError.
var ErrInvalidLineWidth = errors.New("invalid line width")

type (
	// LineWidth is the maximum rendered length of a single-line import statement.
	LineWidth int

	// InvalidLineWidthError is returned when a LineWidth is not a positive integer.
	InvalidLineWidthError struct {
		Value LineWidth
	}
)

// Error implements the error interface.
func (e *InvalidLineWidthError) Error() string {
	return fmt.Sprintf("invalid line width %d (must be a positive integer)", e.Value)
}

// Unwrap returns ErrInvalidLineWidth for errors.Is() compatibility.
func (e *InvalidLineWidthError) Unwrap() error { return ErrInvalidLineWidth }

// Validate returns an error if the width is zero or negative.
func (w LineWidth) Validate() error {
	if w <= 0 {
		return &InvalidLineWidthError{Value: w}
	}
	return nil
}

// OrDefault returns DefaultLineWidth for the zero value.
func (w LineWidth) OrDefault() LineWidth {
	if w == 0 {
		return DefaultLineWidth
	}
	return w
}

// String returns the decimal string representation of the LineWidth.
func (w LineWidth) String() string { return strconv.Itoa(int(w)) }
