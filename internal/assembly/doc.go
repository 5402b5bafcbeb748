// SPDX-License-Identifier: MPL-2.0

// Package assembly flattens a Python package into one module.
//
// A Context is built once per run from Options. Discover ingests every
// admitted source file of the input, recording one module per file in walk
// order. Assemble then orders the recorded segments:
//
//	docstring, blank
//	normalized imports (each group followed by a blank)
//	__all__, blank
//	root logic, leaf definitions and logic, retained entry guards (each followed by a blank)
//	entry module body
//
// and rejects duplicate top-level names unless IgnoreClashes is set.
package assembly
