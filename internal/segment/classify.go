// SPDX-License-Identifier: MPL-2.0

package segment

import "strings"

const (
	nameDunder = "__name__"
	mainDunder = "__main__"
	exportName = "__all__"
)

var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"in": true, "is": true, "not": true,
}

func classify(st *statement) Kind {
	header := st.lines[st.header].Tokens
	first := header[0]

	switch {
	case len(st.lines) == 1 && isImportStatement(header):
		return KindImport
	case first.Is(TokenName, "class"):
		return KindClass
	case first.Is(TokenName, "def"),
		first.Is(TokenName, "async") && len(header) > 1 && header[1].Is(TokenName, "def"):
		return KindFunction
	case first.Is(TokenName, "if") && isEntryGuardTest(conditionTokens(header)):
		return KindEntryGuard
	case first.Is(TokenName, exportName) && len(header) > 1 &&
		(header[1].Is(TokenOp, "=") || header[1].Is(TokenOp, "+=") || header[1].Is(TokenOp, ":")):
		return KindExportList
	default:
		return KindLogic
	}
}

// isImportStatement reports whether every ';'-separated part of the line is
// an import or from-import.
func isImportStatement(toks []Token) bool {
	parts := SplitSimple(toks)
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if !p[0].Is(TokenName, "import") && !p[0].Is(TokenName, "from") {
			return false
		}
	}
	return true
}

// SplitSimple splits a logical line into its ';'-separated simple statements,
// dropping empty parts.
func SplitSimple(toks []Token) [][]Token {
	var (
		parts [][]Token
		start int
		depth int
	)
	for i, t := range toks {
		if t.Kind != TokenOp {
			continue
		}
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ";":
			if depth == 0 {
				if i > start {
					parts = append(parts, toks[start:i])
				}
				start = i + 1
			}
		}
	}
	if start < len(toks) {
		parts = append(parts, toks[start:])
	}
	return parts
}

// conditionTokens returns the tokens between the `if` keyword and the colon
// that ends the header.
func conditionTokens(header []Token) []Token {
	depth := 0
	for i := 1; i < len(header); i++ {
		t := header[i]
		if t.Kind != TokenOp {
			continue
		}
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ":":
			if depth == 0 {
				return header[1:i]
			}
		}
	}
	return nil
}

// isEntryGuardTest reports whether cond is a comparison chain in which an ==
// joins the name __name__ and the string "__main__", in either order.
func isEntryGuardTest(cond []Token) bool {
	for len(cond) >= 2 && cond[0].Is(TokenOp, "(") && cond[len(cond)-1].Is(TokenOp, ")") {
		cond = cond[1 : len(cond)-1]
	}

	var (
		operands []Token
		ops      []string
	)
	expectOperand := true
	for i := 0; i < len(cond); i++ {
		t := cond[i]
		if expectOperand {
			if t.Kind == TokenOp {
				return false
			}
			operands = append(operands, t)
			expectOperand = false
			continue
		}
		op := t.Text
		if t.Kind == TokenString || t.Kind == TokenNumber || !comparisonOps[op] {
			return false
		}
		// `not in` and `is not` are single comparison operators.
		if (op == "not" || op == "is") && i+1 < len(cond) && (cond[i+1].Is(TokenName, "in") || cond[i+1].Is(TokenName, "not")) {
			op += " " + cond[i+1].Text
			i++
		}
		if op == "not" {
			return false
		}
		ops = append(ops, op)
		expectOperand = true
	}
	if expectOperand || len(ops) == 0 {
		return false
	}

	for i, op := range ops {
		if op != "==" {
			continue
		}
		left, right := operands[i], operands[i+1]
		if (isNameDunder(left) && isMainLiteral(right)) || (isMainLiteral(left) && isNameDunder(right)) {
			return true
		}
	}
	return false
}

func isNameDunder(t Token) bool {
	return t.Is(TokenName, nameDunder)
}

func isMainLiteral(t Token) bool {
	if t.Kind != TokenString {
		return false
	}
	value, ok := StringValue(t.Text)
	return ok && value == mainDunder
}

// StringValue returns the body of a plain or raw string literal. Bytes and
// formatted literals are rejected. Escape sequences are not interpreted.
func StringValue(lit string) (string, bool) {
	i := strings.IndexAny(lit, `"'`)
	if i < 0 {
		return "", false
	}
	prefix := strings.ToLower(lit[:i])
	if strings.ContainsAny(prefix, "bft") {
		return "", false
	}
	body := lit[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			return body[len(q) : len(body)-len(q)], true
		}
	}
	return "", false
}

// DefinitionName returns the name declared by a class or function segment
// text: the token after `def` or `class`, skipping decorators and `async`.
// It returns "" when the text declares no name.
func DefinitionName(text string) string {
	lines, err := Lex(text, "")
	if err != nil {
		return ""
	}
	for _, ll := range lines {
		if ll.First().Is(TokenOp, "@") {
			continue
		}
		toks := ll.Tokens
		i := 0
		if toks[0].Is(TokenName, "async") {
			i++
		}
		if i+1 < len(toks) && (toks[i].Is(TokenName, "def") || toks[i].Is(TokenName, "class")) && toks[i+1].Kind == TokenName {
			return toks[i+1].Text
		}
		return ""
	}
	return ""
}

// IsStringStatement reports whether text is a single expression statement made
// only of string literals, as a module docstring is.
func IsStringStatement(text string) bool {
	lines, err := Lex(text, "")
	if err != nil || len(lines) != 1 {
		return false
	}
	for _, t := range lines[0].Tokens {
		if t.Kind != TokenString {
			return false
		}
	}
	return true
}
