// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor maps a command error to the process exit status. An ExitError
// anywhere in the chain wins; otherwise the flattening failure kind decides.
func exitCodeFor(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitCodeForKind(flaterr.KindOf(err))
}

func exitCodeForKind(kind flaterr.Kind) types.ExitCode {
	switch kind {
	case flaterr.KindConfiguration, flaterr.KindInvalidConfiguration:
		return types.ExitUsage
	case flaterr.KindPathResolution:
		return types.ExitPathResolution
	case flaterr.KindIngestion:
		return types.ExitIngestion
	case flaterr.KindImportCollision, flaterr.KindDuplicateName:
		return types.ExitCollision
	case flaterr.KindUnknown:
		return types.ExitFailure
	default:
		return types.ExitFailure
	}
}
