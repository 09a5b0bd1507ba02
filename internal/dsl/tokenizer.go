package dsl

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/icode/ameba/internal/i18n"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdentifier
	TokenString
	TokenNumber
	TokenLParen
	TokenRParen
	TokenComma
	TokenDot
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenIdentifier:
		return "identifier"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenComma:
		return "','"
	case TokenDot:
		return "'.'"
	default:
		return "unknown"
	}
}

// Token represents a single token in a query
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Tokenizer splits query text into tokens
type Tokenizer struct {
	input string
	pos   int
	ch    rune
	width int
}

// NewTokenizer creates a new tokenizer
func NewTokenizer(input string) *Tokenizer {
	t := &Tokenizer{input: input}
	t.decode()
	return t
}

func (t *Tokenizer) decode() {
	if t.pos >= len(t.input) {
		t.ch, t.width = 0, 0
		return
	}
	t.ch, t.width = utf8.DecodeRuneInString(t.input[t.pos:])
}

// advance moves to the next character
func (t *Tokenizer) advance() {
	t.pos += t.width
	t.decode()
}

// peek looks ahead without advancing
func (t *Tokenizer) peek() rune {
	next := t.pos + t.width
	if next >= len(t.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(t.input[next:])
	return r
}

func (t *Tokenizer) skipWhitespace() {
	for unicode.IsSpace(t.ch) {
		t.advance()
	}
}

func (t *Tokenizer) errorf(pos int, format string, args ...interface{}) error {
	return NewSyntaxError(i18n.KeyParse, pos, fmt.Sprintf(format, args...))
}

// readString reads a quoted string. A quote is escaped by doubling it or by
// a backslash, and a backslash by another backslash.
func (t *Tokenizer) readString() (string, error) {
	start := t.pos
	quote := t.ch
	t.advance()

	var result strings.Builder
	for {
		switch {
		case t.pos >= len(t.input):
			return "", t.errorf(start, "unterminated string")
		case t.ch == '\\' && (t.peek() == quote || t.peek() == '\\'):
			t.advance()
			result.WriteRune(t.ch)
		case t.ch == quote && t.peek() == quote:
			t.advance()
			result.WriteRune(t.ch)
		case t.ch == quote:
			t.advance()
			return result.String(), nil
		default:
			result.WriteRune(t.ch)
		}
		t.advance()
	}
}

func (t *Tokenizer) readDigits(b *strings.Builder) {
	for t.ch >= '0' && t.ch <= '9' {
		b.WriteRune(t.ch)
		t.advance()
	}
}

// readNumber reads an optionally signed decimal number with exponent
func (t *Tokenizer) readNumber() string {
	var result strings.Builder
	if t.ch == '-' || t.ch == '+' {
		result.WriteRune(t.ch)
		t.advance()
	}
	t.readDigits(&result)
	if t.ch == '.' && t.peek() >= '0' && t.peek() <= '9' {
		result.WriteRune(t.ch)
		t.advance()
		t.readDigits(&result)
	}
	if t.ch == 'e' || t.ch == 'E' {
		result.WriteRune(t.ch)
		t.advance()
		if t.ch == '+' || t.ch == '-' {
			result.WriteRune(t.ch)
			t.advance()
		}
		t.readDigits(&result)
	}
	return result.String()
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_' || ch == '$'
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || unicode.IsDigit(ch)
}

func (t *Tokenizer) readIdentifier() string {
	start := t.pos
	for t.ch != 0 && isIdentPart(t.ch) {
		t.advance()
	}
	return t.input[start:t.pos]
}

// NextToken returns the next token
func (t *Tokenizer) NextToken() (*Token, error) {
	t.skipWhitespace()

	pos := t.pos
	if pos >= len(t.input) {
		return &Token{Type: TokenEOF, Pos: pos}, nil
	}

	switch {
	case t.ch == '\'' || t.ch == '"':
		s, err := t.readString()
		if err != nil {
			return nil, err
		}
		return &Token{Type: TokenString, Value: s, Pos: pos}, nil
	case unicode.IsDigit(t.ch) || ((t.ch == '-' || t.ch == '+') && unicode.IsDigit(t.peek())):
		return &Token{Type: TokenNumber, Value: t.readNumber(), Pos: pos}, nil
	case isIdentStart(t.ch):
		return &Token{Type: TokenIdentifier, Value: t.readIdentifier(), Pos: pos}, nil
	}

	var typ TokenType
	switch t.ch {
	case '(':
		typ = TokenLParen
	case ')':
		typ = TokenRParen
	case ',':
		typ = TokenComma
	case '.':
		typ = TokenDot
	default:
		return nil, t.errorf(pos, "unexpected character '%c'", t.ch)
	}
	value := string(t.ch)
	t.advance()
	return &Token{Type: typ, Value: value, Pos: pos}, nil
}

// TokenizeAll returns all tokens from the input, ending with TokenEOF
func (t *Tokenizer) TokenizeAll() ([]*Token, error) {
	var tokens []*Token
	for {
		token, err := t.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
		if token.Type == TokenEOF {
			return tokens, nil
		}
	}
}
