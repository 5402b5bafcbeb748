// SPDX-License-Identifier: MPL-2.0

package segment

import "strings"

// continuationKeywords open clauses that belong to the preceding compound
// statement even though they start at column 0.
var continuationKeywords = map[string]bool{
	"else":    true,
	"elif":    true,
	"except":  true,
	"finally": true,
}

// statement is a run of logical lines forming one top-level statement.
type statement struct {
	lines []LogicalLine
	// header indexes the first non-decorator line.
	header int
	// decorating is true while only decorator lines have been seen.
	decorating bool
}

func (s *statement) start() int { return s.lines[0].Start }

func (s *statement) end() int { return s.lines[len(s.lines)-1].End }

// Split parses src into its ordered top-level segments. name identifies the
// source in error messages.
func Split(src, name string) ([]Segment, error) {
	src = strings.TrimPrefix(src, byteOrderMark)
	lines, err := Lex(src, name)
	if err != nil {
		return nil, err
	}
	physical := strings.SplitAfter(src, "\n")

	var (
		segs       []Segment
		cur        *statement
		expectBody bool
	)
	flush := func() {
		if cur == nil {
			return
		}
		segs = append(segs, Segment{
			Kind: classify(cur),
			Text: lineRange(physical, cur.start(), cur.end()),
			Line: cur.start(),
		})
		cur = nil
	}
	fail := func(ll LogicalLine, msg string) error {
		return &ParseError{Name: name, Line: ll.Start, Col: ll.Indent, Msg: msg}
	}

	for _, ll := range lines {
		first := ll.First()

		if ll.Indent > 0 {
			if cur == nil {
				return nil, fail(ll, "unexpected indent")
			}
			prev := cur.lines[len(cur.lines)-1]
			if prev.Indent == 0 && !prev.Last().Is(TokenOp, ":") {
				return nil, fail(ll, "unexpected indent")
			}
			cur.lines = append(cur.lines, ll)
			expectBody = false
			continue
		}

		if expectBody {
			return nil, fail(ll, "expected an indented block")
		}

		switch {
		case first.Kind == TokenName && continuationKeywords[first.Text]:
			if cur == nil || cur.decorating {
				return nil, fail(ll, "invalid syntax: '"+first.Text+"' without a preceding block")
			}
			cur.lines = append(cur.lines, ll)

		case first.Is(TokenOp, "@"):
			if cur == nil || !cur.decorating {
				flush()
				cur = &statement{decorating: true}
			}
			cur.lines = append(cur.lines, ll)

		case cur != nil && cur.decorating:
			if !isDefinitionHeader(ll.Tokens) {
				return nil, fail(ll, "decorator must be followed by def or class")
			}
			cur.lines = append(cur.lines, ll)
			cur.header = len(cur.lines) - 1
			cur.decorating = false

		default:
			flush()
			cur = &statement{lines: []LogicalLine{ll}}
		}

		expectBody = ll.Last().Is(TokenOp, ":")
	}

	if cur != nil && cur.decorating {
		last := cur.lines[len(cur.lines)-1]
		return nil, fail(last, "decorator must be followed by def or class")
	}
	if expectBody {
		last := cur.lines[len(cur.lines)-1]
		return nil, &ParseError{Name: name, Line: last.End + 1, Msg: "expected an indented block"}
	}
	flush()

	return segs, nil
}

// lineRange returns physical lines first..last (1-based, inclusive), newline
// terminated.
func lineRange(physical []string, first, last int) string {
	if last > len(physical) {
		last = len(physical)
	}
	text := strings.Join(physical[first-1:last], "")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text
}

func isDefinitionHeader(toks []Token) bool {
	if len(toks) == 0 {
		return false
	}
	i := 0
	if toks[0].Is(TokenName, "async") {
		i = 1
	}
	if i >= len(toks) {
		return false
	}
	return toks[i].Is(TokenName, "def") || toks[i].Is(TokenName, "class")
}
