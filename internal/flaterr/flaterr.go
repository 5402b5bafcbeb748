// SPDX-License-Identifier: MPL-2.0

// Package flaterr defines the closed set of failures a flattening run can
// end with. Every failure is a *Error carrying one Kind; callers branch on the
// kind with a switch instead of type assertions on many error types.
package flaterr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the category of a flattening failure.
type Kind int

const (
	// KindUnknown is the zero value and never produced by this module.
	KindUnknown Kind = iota
	// KindPathResolution means the input is neither a file, a directory nor an
	// importable package name.
	KindPathResolution
	// KindConfiguration means mutually exclusive options were combined or a
	// required option is missing.
	KindConfiguration
	// KindIngestion wraps a per-file segmentation failure.
	KindIngestion
	// KindImportCollision means two distinct origins bind the same local name.
	KindImportCollision
	// KindDuplicateName means two top-level definitions (or a definition and an
	// import) bind the same name.
	KindDuplicateName
	// KindInvalidConfiguration means a configuration value is out of range.
	KindInvalidConfiguration
)

// Sentinels for errors.Is matching by kind.
var (
	ErrPathResolution       = &Error{Kind: KindPathResolution}
	ErrConfiguration        = &Error{Kind: KindConfiguration}
	ErrIngestion            = &Error{Kind: KindIngestion}
	ErrImportCollision      = &Error{Kind: KindImportCollision}
	ErrDuplicateName        = &Error{Kind: KindDuplicateName}
	ErrInvalidConfiguration = &Error{Kind: KindInvalidConfiguration}
)

// Kinds lists every kind a run can fail with.
func Kinds() []Kind {
	return []Kind{
		KindPathResolution,
		KindConfiguration,
		KindIngestion,
		KindImportCollision,
		KindDuplicateName,
		KindInvalidConfiguration,
	}
}

// String returns the error kind name.
func (k Kind) String() string {
	switch k {
	case KindPathResolution:
		return "PathResolutionError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindIngestion:
		return "IngestionError"
	case KindImportCollision:
		return "ImportCollisionError"
	case KindDuplicateName:
		return "DuplicateNameError"
	case KindInvalidConfiguration:
		return "InvalidConfigurationError"
	case KindUnknown:
		return "UnknownError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a flattening failure. Source attributes the failure to the
// responsible input (a file path or a dotted module name) when known.
type Error struct {
	Kind    Kind
	Message string
	Source  string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	if e.Source != "" {
		sb.WriteString(e.Source)
		sb.WriteString(": ")
	}
	if e.Message != "" {
		sb.WriteString(e.Message)
	} else {
		sb.WriteString(e.Kind.String())
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind. Sentinel values
// such as ErrIngestion match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind attributed to source, with cause
// preserved for errors.Is/As chains.
func Wrap(kind Kind, source string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Source:  source,
		Cause:   cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}
