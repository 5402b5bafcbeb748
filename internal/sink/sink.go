// SPDX-License-Identifier: MPL-2.0

// Package sink writes flattened modules to standard output, a file, or one
// file per entry point in a directory.
package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"github.com/pyflat/pyflat/internal/modname"
)

// StdoutName is the output value that selects standard output.
const StdoutName = "stdout"

const (
	fileMode       os.FileMode = 0o644
	executableMode os.FileMode = 0o755
	dirMode        os.FileMode = 0o755
)

type (
	// Sink receives flattened modules. name identifies the entry point a
	// module was built for and is only used by sinks that fan out.
	Sink interface {
		Write(name, text string) error
	}

	writerSink struct {
		w io.Writer
	}

	fileSink struct {
		path string
	}

	dirSink struct {
		dir string
	}
)

// Open returns the sink for an output setting. An empty value, "-" or
// "stdout" select w. With fanOut the output names a directory receiving one
// `<name>.py` per module; otherwise it names a single file. Shell variables
// and a leading ~ in output are expanded.
func Open(output string, fanOut bool, w io.Writer) (Sink, error) {
	switch strings.TrimSpace(output) {
	case "", "-", StdoutName:
		return Writer(w), nil
	}
	path, err := ExpandPath(output)
	if err != nil {
		return nil, err
	}
	if fanOut {
		return Dir(path), nil
	}
	return File(path), nil
}

// ExpandPath expands $VAR, ${VAR} and ~ in path the way a POSIX shell would.
func ExpandPath(path string) (string, error) {
	expanded, err := shell.Expand(path, nil)
	if err != nil {
		return "", fmt.Errorf("expanding output path %q: %w", path, err)
	}
	return expanded, nil
}

// Writer returns a sink that writes every module to w, one after another.
func Writer(w io.Writer) Sink { return &writerSink{w: w} }

// File returns a sink that atomically replaces the file at path.
func File(path string) Sink { return &fileSink{path: path} }

// Dir returns a sink that writes each module to `<dir>/<name>.py`.
func Dir(dir string) Sink { return &dirSink{dir: dir} }

func (s *writerSink) Write(_, text string) error {
	_, err := io.WriteString(s.w, text)
	return err
}

func (s *fileSink) Write(_, text string) error {
	return writeAtomic(s.path, text)
}

func (s *dirSink) Write(name, text string) error {
	file, err := FileName(name)
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(s.dir, file), text)
}

// FileName is the file a fanned-out module built for the entry point name
// is written to: the last name component, or the underscore-joined package
// path for a __main__ module.
func FileName(name string) (string, error) {
	base := modname.Last(name)
	if base == modname.MainModule || base == "" {
		base = strings.ReplaceAll(strings.TrimSuffix(name, "."+modname.MainModule), ".", "_")
	}
	if base == "" {
		return "", fmt.Errorf("cannot derive an output file name from %q", name)
	}
	return base + modname.SourceExt, nil
}

// writeAtomic writes text to a temporary file next to path and renames it
// into place, so readers never observe a partially written module.
func writeAtomic(path, text string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary output: %w", err)
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name()) // best-effort cleanup of the temporary file
		}
	}()

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	mode := fileMode
	if strings.HasPrefix(text, "#!") {
		mode = executableMode
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	renamed = true
	return nil
}
