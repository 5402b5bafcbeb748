// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/fang"

	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/issue"
	"github.com/pyflat/pyflat/pkg/types"
)

func TestNewServiceError_PanicsOnNilErr(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on nil Err, got none")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("expected string panic, got %T", r)
		}
		if msg != "ServiceError: Err must not be nil" {
			t.Fatalf("unexpected panic message: %s", msg)
		}
	}()

	newServiceError(nil, 0, "")
}

func TestNewServiceError_ValidConstruction(t *testing.T) {
	t.Parallel()

	err := errors.New("test error")
	svcErr := newServiceError(err, issue.OutputWriteFailedId, "styled message")

	if !errors.Is(svcErr.Err, err) {
		t.Errorf("Err = %v, want %v", svcErr.Err, err)
	}
	if svcErr.IssueID != issue.OutputWriteFailedId {
		t.Errorf("IssueID = %d, want %d", svcErr.IssueID, issue.OutputWriteFailedId)
	}
	if svcErr.StyledMessage != "styled message" {
		t.Errorf("StyledMessage = %q, want %q", svcErr.StyledMessage, "styled message")
	}
}

func TestServiceError_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()

	underlying := errors.New("underlying error")
	svcErr := newServiceError(underlying, 0, "")

	if svcErr.Error() != "underlying error" {
		t.Errorf("Error() = %q, want %q", svcErr.Error(), "underlying error")
	}
	if !errors.Is(svcErr, underlying) {
		t.Error("errors.Is should find underlying error via Unwrap")
	}
}

func TestFlattenFailure_PicksIssue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{"path resolution", flaterr.New(flaterr.KindPathResolution, "x"), issue.PathResolutionId},
		{"import collision", flaterr.New(flaterr.KindImportCollision, "x"), issue.ImportCollisionId},
		{"invalid configuration", flaterr.New(flaterr.KindInvalidConfiguration, "x"), issue.InvalidConfigurationId},
		{"plain", errors.New("plain"), 0},
		{"actionable with issue", issue.NewErrorContext().
			WithOperation("write output").
			WithIssue(issue.OutputWriteFailedId).
			Wrap(errors.New("disk full")).
			BuildError(), issue.OutputWriteFailedId},
		{"actionable falls back to kind", issue.NewErrorContext().
			WithOperation("load configuration").
			Wrap(flaterr.New(flaterr.KindPathResolution, "x")).
			BuildError(), issue.PathResolutionId},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := flattenFailure(tt.err, false).IssueID; got != tt.want {
				t.Errorf("flattenFailure(%v).IssueID = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFlattenFailure_StyledMessage(t *testing.T) {
	t.Parallel()

	err := issue.NewErrorContext().
		WithOperation("write output").
		WithResource("dist/tool.py").
		WithSuggestion("Check that the output path exists and is writable").
		Wrap(errors.New("permission denied")).
		BuildError()

	tests := []struct {
		name     string
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "terse",
			contains: []string{"Error:", "failed to write output: dist/tool.py: permission denied", "• Check that the output path"},
			excludes: []string{"Error chain:"},
		},
		{
			name:     "verbose",
			verbose:  true,
			contains: []string{"Error chain:", "1. permission denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := flattenFailure(err, tt.verbose).StyledMessage
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("StyledMessage missing %q:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("StyledMessage should not contain %q:\n%s", s, got)
				}
			}
		})
	}
}

func TestFormatErrorForDisplay_PlainError(t *testing.T) {
	t.Parallel()

	err := flaterr.New(flaterr.KindDuplicateName, "duplicate top-level name: run")
	if got := formatErrorForDisplay(err, true); got != err.Error() {
		t.Errorf("formatErrorForDisplay() = %q, want %q", got, err.Error())
	}
}

func TestHandleError_SkipsReportedFailures(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handleError(&buf, fang.Styles{}, &ExitError{Code: types.ExitCollision, Err: errors.New("already printed")})
	if buf.Len() != 0 {
		t.Errorf("reported failure printed again: %q", buf.String())
	}
}

func TestRenderServiceError_NilServiceError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderServiceError(&buf, nil, "notty")

	if buf.Len() != 0 {
		t.Errorf("expected no output for nil ServiceError, got %q", buf.String())
	}
}

func TestRenderServiceError_StyledMessageOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	svcErr := newServiceError(errors.New("test"), 0, "styled output\n")
	renderServiceError(&buf, svcErr, "notty")

	if got := buf.String(); got != "styled output\n" {
		t.Errorf("output = %q, want %q", got, "styled output\n")
	}
}

func TestRenderServiceError_WithIssue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	svcErr := newServiceError(errors.New("write failed"), issue.OutputWriteFailedId, "")
	renderServiceError(&buf, svcErr, "notty")

	if !strings.Contains(buf.String(), "Failed to write output") {
		t.Errorf("issue page not rendered:\n%s", buf.String())
	}
}
