// SPDX-License-Identifier: MPL-2.0

// Package segment splits Python source text into ordered top-level segments.
//
// A segment is the exact source slice of one top-level statement, tagged with a
// Kind. Decorator lines belong to the definition they decorate, and
// continuation clauses (else, elif, except, finally) stay with the statement
// they continue. Blank and comment-only lines between statements are not part
// of any segment.
//
// # File Organization
//
//   - segment.go: Kind and Segment types
//   - lexer.go: logical-line tokenizer (strings, comments, brackets, continuations)
//   - split.go: grouping of logical lines into top-level statements
//   - classify.go: kind assignment, entry-guard detection, definition names
//   - errors.go: ParseError
package segment
