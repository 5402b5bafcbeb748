// SPDX-License-Identifier: MPL-2.0

package pyimport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pyflat/pyflat/internal/segment"
)

// ErrMalformedImport is returned when an import segment cannot be parsed.
var ErrMalformedImport = errors.New("malformed import statement")

type importParser struct {
	toks []segment.Token
	pos  int
}

// Parse returns the entries bound by the import statements in text, in
// source order. text may hold several `;`-joined statements.
func Parse(text string) ([]Entry, error) {
	lines, err := segment.Lex(text, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}
	var entries []Entry
	for _, ll := range lines {
		for _, part := range segment.SplitSimple(ll.Tokens) {
			p := &importParser{toks: part}
			got, err := p.statement()
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %s", ErrMalformedImport, strings.TrimSpace(text), err)
			}
			entries = append(entries, got...)
		}
	}
	return entries, nil
}

func (p *importParser) peek() (segment.Token, bool) {
	if p.pos >= len(p.toks) {
		return segment.Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *importParser) next() (segment.Token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *importParser) accept(kind segment.TokenKind, text string) bool {
	if t, ok := p.peek(); ok && t.Is(kind, text) {
		p.pos++
		return true
	}
	return false
}

func (p *importParser) name() (string, error) {
	t, ok := p.next()
	if !ok || t.Kind != segment.TokenName {
		return "", errors.New("expected a name")
	}
	return t.Text, nil
}

func (p *importParser) dotted() (string, error) {
	first, err := p.name()
	if err != nil {
		return "", err
	}
	parts := []string{first}
	for p.accept(segment.TokenOp, ".") {
		n, err := p.name()
		if err != nil {
			return "", err
		}
		parts = append(parts, n)
	}
	return strings.Join(parts, "."), nil
}

func (p *importParser) alias() (string, error) {
	if !p.accept(segment.TokenName, "as") {
		return "", nil
	}
	return p.name()
}

func (p *importParser) statement() ([]Entry, error) {
	var (
		entries []Entry
		err     error
	)
	switch {
	case p.accept(segment.TokenName, "import"):
		entries, err = p.moduleList()
	case p.accept(segment.TokenName, "from"):
		entries, err = p.fromImport()
	default:
		return nil, errors.New("expected 'import' or 'from'")
	}
	if err != nil {
		return nil, err
	}
	if t, ok := p.peek(); ok {
		return nil, fmt.Errorf("unexpected %q", t.Text)
	}
	return entries, nil
}

func (p *importParser) moduleList() ([]Entry, error) {
	var entries []Entry
	for {
		origin, err := p.dotted()
		if err != nil {
			return nil, err
		}
		alias, err := p.alias()
		if err != nil {
			return nil, err
		}
		entries = append(entries, NewModuleEntry(origin, alias))
		if !p.accept(segment.TokenOp, ",") {
			return entries, nil
		}
	}
}

func (p *importParser) fromImport() ([]Entry, error) {
	var dots strings.Builder
	for {
		switch {
		case p.accept(segment.TokenOp, "."):
			dots.WriteString(".")
			continue
		case p.accept(segment.TokenOp, "..."):
			dots.WriteString("...")
			continue
		}
		break
	}

	origin := dots.String()
	if t, ok := p.peek(); ok && t.Kind == segment.TokenName && t.Text != "import" {
		mod, err := p.dotted()
		if err != nil {
			return nil, err
		}
		origin += mod
	}
	if origin == "" {
		return nil, errors.New("missing module")
	}
	if !p.accept(segment.TokenName, "import") {
		return nil, errors.New("expected 'import'")
	}
	if p.accept(segment.TokenOp, "*") {
		return []Entry{NewFromEntry(origin, Star, "")}, nil
	}

	paren := p.accept(segment.TokenOp, "(")
	var entries []Entry
	for {
		if paren && p.accept(segment.TokenOp, ")") {
			break
		}
		sym, err := p.name()
		if err != nil {
			return nil, err
		}
		alias, err := p.alias()
		if err != nil {
			return nil, err
		}
		entries = append(entries, NewFromEntry(origin, sym, alias))
		if p.accept(segment.TokenOp, ",") {
			if !paren {
				if _, ok := p.peek(); !ok {
					return nil, errors.New("trailing comma not allowed without parentheses")
				}
			}
			continue
		}
		if paren && !p.accept(segment.TokenOp, ")") {
			return nil, errors.New("expected ')'")
		}
		break
	}
	if len(entries) == 0 {
		return nil, errors.New("empty import list")
	}
	return entries, nil
}
