// SPDX-License-Identifier: MPL-2.0

// Package logging builds the process logger: log/slog in front of a
// charmbracelet/log handler writing to stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// Prefix is printed before every log line.
const Prefix = "pyflat"

const (
	// FormatText renders human readable, styled lines.
	FormatText Format = "text"
	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
	// FormatLogfmt renders key=value lines.
	FormatLogfmt Format = "logfmt"
)

type (
	// Format selects the log line encoding.
	Format string

	// Options configures New.
	Options struct {
		// Level is one of debug, info, warn, error. Unknown values mean warn.
		Level string
		// Format defaults to FormatText.
		Format Format
		// Timestamps adds the time to each line.
		Timestamps bool
	}
)

// ParseFormat validates a format name. The empty string means FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatLogfmt:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want text, json or logfmt)", s)
	}
}

// LevelFor maps the verbose flag to a level name.
func LevelFor(verbose bool) string {
	if verbose {
		return "debug"
	}
	return "warn"
}

// New returns a logger writing to w. It does not install itself as the
// default logger; callers do that with slog.SetDefault.
func New(w io.Writer, opts Options) *slog.Logger {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		level = log.WarnLevel
	}

	formatter := log.TextFormatter
	format, _ := ParseFormat(string(opts.Format))
	switch format {
	case FormatJSON:
		formatter = log.JSONFormatter
	case FormatLogfmt:
		formatter = log.LogfmtFormatter
	case FormatText, "":
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          Prefix,
		ReportTimestamp: opts.Timestamps,
		Formatter:       formatter,
	})
	return slog.New(handler)
}

// Install builds a logger with New and makes it the slog default.
func Install(w io.Writer, opts Options) *slog.Logger {
	logger := New(w, opts)
	slog.SetDefault(logger)
	return logger
}
