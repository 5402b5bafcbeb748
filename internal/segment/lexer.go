// SPDX-License-Identifier: MPL-2.0

package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// TokenName is an identifier or keyword.
	TokenName TokenKind = iota + 1
	// TokenNumber is a numeric literal.
	TokenNumber
	// TokenString is a string or bytes literal, prefix and quotes included.
	TokenString
	// TokenOp is an operator or delimiter.
	TokenOp
)

// multiOps are matched longest first.
var multiOps = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"==", "!=", "<=", ">=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"->", ":=", "**", "//", "<<", ">>",
}

var stringPrefixes = map[string]bool{
	"r": true, "u": true, "b": true, "f": true, "t": true,
	"br": true, "rb": true, "fr": true, "rf": true, "tr": true, "rt": true,
}

var closers = map[string]string{")": "(", "]": "[", "}": "{"}

type (
	// TokenKind classifies a Token.
	TokenKind int

	// Token is one lexical element. Comments and whitespace produce no tokens.
	Token struct {
		Kind TokenKind
		Text string
		// Line is the 1-based line the token starts on; Col its 0-based byte column.
		Line int
		Col  int
	}

	// LogicalLine is a sequence of tokens forming one logical line: physical
	// lines joined by open brackets, triple-quoted strings or backslashes.
	LogicalLine struct {
		Tokens []Token
		// Start and End are the first and last physical lines covered (1-based).
		Start int
		End   int
		// Indent is the byte column of the first token.
		Indent int
	}

	lexer struct {
		src       string
		name      string
		pos       int
		line      int
		lineStart int
		open      []Token
		cur       []Token
		curStart  int
		curEnd    int
		continued bool
		lines     []LogicalLine
	}
)

// Is reports whether the token is of kind k with the exact text.
func (t Token) Is(k TokenKind, text string) bool {
	return t.Kind == k && t.Text == text
}

// First returns the first token of the line.
func (l LogicalLine) First() Token {
	return l.Tokens[0]
}

// Last returns the last token of the line.
func (l LogicalLine) Last() Token {
	return l.Tokens[len(l.Tokens)-1]
}

// byteOrderMark may open a UTF-8 source file; it is not part of the code.
const byteOrderMark = "\ufeff"

// Lex tokenizes src into logical lines. name is used in error messages. A
// leading byte order mark is skipped.
func Lex(src, name string) ([]LogicalLine, error) {
	src = strings.TrimPrefix(src, byteOrderMark)
	if !utf8.ValidString(src) {
		return nil, invalidUTF8(src, name)
	}
	lx := &lexer{src: src, name: name, line: 1}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.lines, nil
}

func invalidUTF8(src, name string) error {
	line, lineStart := 1, 0
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRuneInString(src[i:])
		if r == utf8.RuneError && size <= 1 {
			return &ParseError{Name: name, Line: line, Col: i - lineStart, Msg: "invalid UTF-8 encoding"}
		}
		if r == '\n' {
			line++
			lineStart = i + 1
		}
		i += size
	}
	return &ParseError{Name: name, Line: line, Msg: "invalid UTF-8 encoding"}
}

func (lx *lexer) errorf(line, col int, msg string) error {
	return &ParseError{Name: lx.name, Line: line, Col: col, Msg: msg}
}

func (lx *lexer) col() int { return lx.pos - lx.lineStart }

func (lx *lexer) run() error {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == '\n':
			lx.newline()
		case c == ' ' || c == '\t' || c == '\f' || c == '\r':
			lx.pos++
		case c == '#':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		case c == '\\':
			if err := lx.continuation(); err != nil {
				return err
			}
		case c == '"' || c == '\'':
			if err := lx.str(lx.pos); err != nil {
				return err
			}
		case isDigit(c) || (c == '.' && lx.pos+1 < len(lx.src) && isDigit(lx.src[lx.pos+1])):
			lx.number()
		default:
			r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
			if isNameStart(r) {
				if err := lx.nameOrString(); err != nil {
					return err
				}
				continue
			}
			if err := lx.op(); err != nil {
				return err
			}
		}
	}

	if lx.continued {
		return lx.errorf(lx.line, lx.col(), "unexpected end of file after line continuation")
	}
	if len(lx.open) > 0 {
		opener := lx.open[len(lx.open)-1]
		return lx.errorf(opener.Line, opener.Col, "'"+opener.Text+"' was never closed")
	}
	lx.endLogical()
	return nil
}

func (lx *lexer) newline() {
	if len(lx.open) == 0 && !lx.continued {
		lx.endLogical()
	}
	lx.continued = false
	lx.pos++
	lx.line++
	lx.lineStart = lx.pos
}

func (lx *lexer) continuation() error {
	rest := lx.src[lx.pos+1:]
	switch {
	case strings.HasPrefix(rest, "\n"):
		lx.pos++
	case strings.HasPrefix(rest, "\r\n"):
		lx.pos += 2
	case rest == "":
		return lx.errorf(lx.line, lx.col(), "unexpected end of file after line continuation")
	default:
		return lx.errorf(lx.line, lx.col(), "unexpected character after line continuation character")
	}
	lx.continued = true
	return nil
}

func (lx *lexer) emit(tok Token, endLine int) {
	if len(lx.cur) == 0 {
		lx.curStart = tok.Line
	}
	lx.cur = append(lx.cur, tok)
	lx.curEnd = endLine
}

func (lx *lexer) endLogical() {
	if len(lx.cur) == 0 {
		return
	}
	lx.lines = append(lx.lines, LogicalLine{
		Tokens: lx.cur,
		Start:  lx.curStart,
		End:    lx.curEnd,
		Indent: lx.cur[0].Col,
	})
	lx.cur = nil
}

func (lx *lexer) nameOrString() error {
	start := lx.pos
	for lx.pos < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		if !isNameRune(r) {
			break
		}
		lx.pos += size
	}
	word := lx.src[start:lx.pos]
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == '"' || lx.src[lx.pos] == '\'') && stringPrefixes[strings.ToLower(word)] {
		lx.pos = start
		return lx.str(start)
	}
	lx.emit(Token{Kind: TokenName, Text: word, Line: lx.line, Col: start - lx.lineStart}, lx.line)
	return nil
}

// str lexes a string literal starting at start, which may point at a prefix.
func (lx *lexer) str(start int) error {
	line, col := lx.line, start-lx.lineStart
	for lx.src[lx.pos] != '"' && lx.src[lx.pos] != '\'' {
		lx.pos++
	}
	quote := lx.src[lx.pos]
	delim := string(quote)
	if strings.HasPrefix(lx.src[lx.pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	triple := len(delim) == 3
	lx.pos += len(delim)

	for {
		if lx.pos >= len(lx.src) {
			return lx.errorf(line, col, "unterminated string literal")
		}
		c := lx.src[lx.pos]
		switch {
		case c == '\\':
			lx.pos++
			if lx.pos < len(lx.src) {
				if lx.src[lx.pos] == '\n' {
					lx.line++
					lx.lineStart = lx.pos + 1
				}
				lx.pos++
			}
		case c == '\n':
			if !triple {
				return lx.errorf(line, col, "unterminated string literal")
			}
			lx.pos++
			lx.line++
			lx.lineStart = lx.pos
		case c == quote && strings.HasPrefix(lx.src[lx.pos:], delim):
			lx.pos += len(delim)
			lx.emit(Token{Kind: TokenString, Text: lx.src[start:lx.pos], Line: line, Col: col}, lx.line)
			return nil
		default:
			lx.pos++
		}
	}
}

func (lx *lexer) number() {
	start := lx.pos
	hex := strings.HasPrefix(strings.ToLower(lx.src[lx.pos:]), "0x")
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if isDigit(c) || isASCIILetter(c) || c == '_' || c == '.' {
			lx.pos++
			continue
		}
		prev := lx.src[lx.pos-1]
		if (c == '+' || c == '-') && (prev == 'e' || prev == 'E') && !hex {
			lx.pos++
			continue
		}
		break
	}
	lx.emit(Token{Kind: TokenNumber, Text: lx.src[start:lx.pos], Line: lx.line, Col: start - lx.lineStart}, lx.line)
}

func (lx *lexer) op() error {
	start := lx.pos
	text := ""
	for _, o := range multiOps {
		if strings.HasPrefix(lx.src[lx.pos:], o) {
			text = o
			break
		}
	}
	if text == "" {
		_, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		text = lx.src[lx.pos : lx.pos+size]
	}
	lx.pos += len(text)
	tok := Token{Kind: TokenOp, Text: text, Line: lx.line, Col: start - lx.lineStart}

	switch text {
	case "(", "[", "{":
		lx.open = append(lx.open, tok)
	case ")", "]", "}":
		if len(lx.open) == 0 {
			return lx.errorf(tok.Line, tok.Col, "unmatched '"+text+"'")
		}
		opener := lx.open[len(lx.open)-1]
		if opener.Text != closers[text] {
			return lx.errorf(tok.Line, tok.Col, "closing parenthesis '"+text+"' does not match opening parenthesis '"+opener.Text+"'")
		}
		lx.open = lx.open[:len(lx.open)-1]
	}
	lx.emit(tok, lx.line)
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isASCIILetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}
