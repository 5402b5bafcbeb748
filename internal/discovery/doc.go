// SPDX-License-Identifier: MPL-2.0

// Package discovery resolves the flattening input and lists its source files.
//
// An input is one of:
//   - a directory: every *.py file below it, the directory name being the package
//   - a single *.py file: the file stem being the package
//   - a dotted package name: looked up under each PYTHONPATH entry, then the
//     working directory, as `a/b/__init__.py` or `a/b.py`
//
// Files are always listed in lexicographic order of their slash-separated path
// relative to the package directory, so two runs over the same tree ingest
// modules in the same order.
package discovery
