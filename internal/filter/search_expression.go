package filter

import (
	"strings"
)

// searchOp is the type of node in a parsed search text.
type searchOp int

const (
	searchOpTerm   searchOp = iota // Single word
	searchOpPhrase                 // Quoted phrase, matched as a consecutive substring
	searchOpAnd
	searchOpOr
	searchOpNot
)

// searchNode is a node of the tree parsed from the text of a query or simple
// clause:
//
//	orExpr      = andExpr (("OR" | "|") andExpr)*
//	andExpr     = notExpr (("AND" | "+") notExpr | notExpr)*
//	notExpr     = ("NOT" | "-") notExpr | primary
//	primary     = DQUOTE phrase DQUOTE | "(" orExpr ")" | term
//
// Adjacent operands without a keyword combine with the default operator.
type searchNode struct {
	op    searchOp
	term  string
	left  *searchNode
	right *searchNode
}

// parseSearchExpression parses text. The parser is lenient: dangling
// operators and blank phrases are dropped, so malformed input degrades to
// matching the remaining operands. It returns nil when nothing is left.
// implicitOr selects OR as the default operator between adjacent operands.
func parseSearchExpression(text string, implicitOr bool) *searchNode {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	p := &searchParser{tokens: tokenizeSearch(text), implicitOr: implicitOr}
	node := p.parseOr()
	// parseOr stops only at EOF or an unbalanced ")".
	for p.peek().typ == sTokRParen {
		p.consume()
		node = combineSearch(node, p.parseOr(), p.defaultOp())
	}
	return node
}

// combineSearch joins two operands, either of which may have parsed empty.
func combineSearch(left, right *searchNode, op searchOp) *searchNode {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	}
	return &searchNode{op: op, left: left, right: right}
}

type searchTokType int

const (
	sTokEOF    searchTokType = iota
	sTokTerm                 // any word that is not a keyword
	sTokPhrase               // "quoted phrase"
	sTokAND
	sTokOR
	sTokNOT
	sTokLParen
	sTokRParen
)

type searchTok struct {
	typ  searchTokType
	text string
}

func isSearchSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func tokenizeSearch(input string) []searchTok {
	runes := []rune(input)
	n := len(runes)
	var toks []searchTok
	i := 0

	for i < n {
		for i < n && isSearchSpace(runes[i]) {
			i++
		}
		if i >= n {
			break
		}

		switch runes[i] {
		case '(':
			toks = append(toks, searchTok{typ: sTokLParen})
			i++
		case ')':
			toks = append(toks, searchTok{typ: sTokRParen})
			i++
		case '|':
			toks = append(toks, searchTok{typ: sTokOR, text: "|"})
			i++
		case '+':
			toks = append(toks, searchTok{typ: sTokAND, text: "+"})
			i++
		case '-':
			toks = append(toks, searchTok{typ: sTokNOT, text: "-"})
			i++
		case '"':
			i++
			start := i
			for i < n && runes[i] != '"' {
				i++
			}
			phrase := string(runes[start:i])
			if i < n {
				i++
			}
			if strings.TrimSpace(phrase) == "" {
				continue
			}
			toks = append(toks, searchTok{typ: sTokPhrase, text: phrase})
		default:
			start := i
			for i < n && !isSearchSpace(runes[i]) && runes[i] != '(' && runes[i] != ')' && runes[i] != '"' && runes[i] != '|' {
				i++
			}
			word := string(runes[start:i])
			switch word {
			case "AND":
				toks = append(toks, searchTok{typ: sTokAND, text: word})
			case "OR":
				toks = append(toks, searchTok{typ: sTokOR, text: word})
			case "NOT":
				toks = append(toks, searchTok{typ: sTokNOT, text: word})
			default:
				toks = append(toks, searchTok{typ: sTokTerm, text: word})
			}
		}
	}

	toks = append(toks, searchTok{typ: sTokEOF})
	return toks
}

type searchParser struct {
	tokens     []searchTok
	pos        int
	implicitOr bool
}

func (p *searchParser) peek() searchTok {
	if p.pos >= len(p.tokens) {
		return searchTok{typ: sTokEOF}
	}
	return p.tokens[p.pos]
}

func (p *searchParser) consume() searchTok {
	tok := p.peek()
	if tok.typ != sTokEOF {
		p.pos++
	}
	return tok
}

func (p *searchParser) defaultOp() searchOp {
	if p.implicitOr {
		return searchOpOr
	}
	return searchOpAnd
}

func (p *searchParser) parseOr() *searchNode {
	left := p.parseAnd()
	for p.peek().typ == sTokOR {
		p.consume()
		left = combineSearch(left, p.parseAnd(), searchOpOr)
	}
	return left
}

func (p *searchParser) parseAnd() *searchNode {
	left := p.parseOperand()
	for {
		switch p.peek().typ {
		case sTokAND:
			p.consume()
			left = combineSearch(left, p.parseOperand(), searchOpAnd)
		case sTokTerm, sTokPhrase, sTokNOT, sTokLParen:
			left = combineSearch(left, p.parseOperand(), p.defaultOp())
		default:
			// OR, ) or EOF
			return left
		}
	}
}

// parseOperand parses a notExpr, skipping operands that parse empty such
// as "()" or a NOT with nothing after it.
func (p *searchParser) parseOperand() *searchNode {
	for {
		start := p.pos
		if n := p.parseNot(); n != nil || p.pos == start {
			return n
		}
	}
}

func (p *searchParser) parseNot() *searchNode {
	if p.peek().typ == sTokNOT {
		p.consume()
		operand := p.parseNot()
		if operand == nil {
			return nil
		}
		return &searchNode{op: searchOpNot, left: operand}
	}
	return p.parsePrimary()
}

func (p *searchParser) parsePrimary() *searchNode {
	tok := p.peek()
	switch tok.typ {
	case sTokPhrase:
		p.consume()
		return &searchNode{op: searchOpPhrase, term: tok.text}
	case sTokTerm:
		p.consume()
		return &searchNode{op: searchOpTerm, term: tok.text}
	case sTokLParen:
		p.consume()
		inner := p.parseOr()
		if p.peek().typ == sTokRParen {
			p.consume()
		}
		return inner
	default:
		return nil
	}
}

// toWebsearchQuery converts the tree to PostgreSQL websearch_to_tsquery syntax.
//   - AND    -> adjacent terms
//   - OR     -> "or"
//   - NOT    -> "-" prefix, "-(...)" around groups
//   - Phrase -> "double-quoted"
func (n *searchNode) toWebsearchQuery() string {
	if n == nil {
		return ""
	}
	switch n.op {
	case searchOpTerm:
		return n.term
	case searchOpPhrase:
		return `"` + strings.ReplaceAll(n.term, `"`, ``) + `"`
	case searchOpAnd:
		return n.left.toWebsearchQuery() + " " + n.right.toWebsearchQuery()
	case searchOpOr:
		return n.left.toWebsearchQuery() + " or " + n.right.toWebsearchQuery()
	case searchOpNot:
		inner := n.left
		switch inner.op {
		case searchOpTerm:
			return "-" + inner.term
		case searchOpPhrase:
			return `-"` + strings.ReplaceAll(inner.term, `"`, ``) + `"`
		default:
			return "-(" + inner.toWebsearchQuery() + ")"
		}
	}
	return ""
}

// toLikeSQL renders the tree as case-insensitive LIKE comparisons. A term
// or phrase matches when any of columns contains it.
func (n *searchNode) toLikeSQL(columns []string) (string, []interface{}) {
	if n == nil || len(columns) == 0 {
		return "", nil
	}
	switch n.op {
	case searchOpTerm, searchOpPhrase:
		parts := make([]string, 0, len(columns))
		var args []interface{}
		for _, col := range columns {
			sql, a := buildLikeComparison(col, n.term, true, true, true)
			parts = append(parts, sql)
			args = append(args, a...)
		}
		if len(parts) == 1 {
			return parts[0], args
		}
		return "(" + strings.Join(parts, " OR ") + ")", args
	case searchOpAnd, searchOpOr:
		left, leftArgs := n.left.toLikeSQL(columns)
		right, rightArgs := n.right.toLikeSQL(columns)
		keyword := "AND"
		if n.op == searchOpOr {
			keyword = "OR"
		}
		return "(" + left + " " + keyword + " " + right + ")", append(leftArgs, rightArgs...)
	case searchOpNot:
		inner, args := n.left.toLikeSQL(columns)
		return "NOT " + inner, args
	}
	return "", nil
}
