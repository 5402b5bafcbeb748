// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the pyflat command line.
//
// The root command flattens a package; config, explain, version and
// completion are subcommands. Failures are mapped to exit codes by their
// flattening error kind.
package cmd
