package dsl

import (
	"fmt"
	"strings"

	"github.com/icode/ameba/internal/i18n"
)

// DefaultMaxDepth caps call nesting when no other limit is configured.
const DefaultMaxDepth = 32

// parser is a recursive descent parser over the token stream:
//
//	query := call (',' call)*
//	call  := path '(' [arg (',' arg)*] ')'
//	path  := IDENT ('.' IDENT)*
//	arg   := call | STRING | NUMBER | 'true' | 'false' | 'null' | path
type parser struct {
	tokens   []*Token
	current  int
	maxDepth int
}

func (p *parser) currentToken() *Token {
	if p.current >= len(p.tokens) {
		return &Token{Type: TokenEOF}
	}
	return p.tokens[p.current]
}

func (p *parser) advance() *Token {
	token := p.currentToken()
	if p.current < len(p.tokens)-1 {
		p.current++
	}
	return token
}

func (p *parser) errorf(pos int, format string, args ...interface{}) error {
	return NewSyntaxError(i18n.KeyParse, pos, fmt.Sprintf(format, args...))
}

func (p *parser) expect(tokenType TokenType) (*Token, error) {
	token := p.currentToken()
	if token.Type != tokenType {
		return nil, p.errorf(token.Pos, "expected %v, got %v", tokenType, token.Type)
	}
	return p.advance(), nil
}

func (p *parser) parseQuery() ([]*CallNode, error) {
	if p.currentToken().Type == TokenEOF {
		return nil, nil
	}

	var calls []*CallNode
	for {
		pos := p.currentToken().Pos
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		call, err := p.parseCall(path, pos, nil, 1)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)

		switch token := p.currentToken(); token.Type {
		case TokenComma:
			p.advance()
		case TokenEOF:
			return calls, nil
		default:
			return nil, p.errorf(token.Pos, "unexpected %v after call", token.Type)
		}
	}
}

func (p *parser) parsePath() ([]string, error) {
	first, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	segments := []string{first.Value}
	for p.currentToken().Type == TokenDot {
		p.advance()
		next, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		segments = append(segments, next.Value)
	}
	return segments, nil
}

// parseCall parses the argument list of a call whose path was already read.
// The last path segment is the operator, the rest the field.
func (p *parser) parseCall(path []string, pos int, parent *CallNode, depth int) (*CallNode, error) {
	if depth > p.maxDepth {
		return nil, NewSyntaxError(i18n.KeyParseDepth, p.maxDepth)
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	call := &CallNode{
		Field:    strings.Join(path[:len(path)-1], "."),
		Operator: path[len(path)-1],
		Parent:   parent,
		Pos:      pos,
	}

	if p.currentToken().Type == TokenRParen {
		p.advance()
		return call, nil
	}

	for {
		arg, err := p.parseArg(call, depth)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		token := p.advance()
		switch token.Type {
		case TokenComma:
			continue
		case TokenRParen:
			return call, nil
		default:
			return nil, p.errorf(token.Pos, "expected ',' or ')', got %v", token.Type)
		}
	}
}

func (p *parser) parseArg(parent *CallNode, depth int) (Node, error) {
	token := p.currentToken()
	switch token.Type {
	case TokenString:
		p.advance()
		return &Literal{Kind: LiteralString, Text: token.Value, Pos: token.Pos}, nil
	case TokenNumber:
		p.advance()
		return &Literal{Kind: LiteralNumber, Text: token.Value, Pos: token.Pos}, nil
	case TokenIdentifier:
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		if p.currentToken().Type == TokenLParen {
			return p.parseCall(path, token.Pos, parent, depth+1)
		}
		if len(path) == 1 {
			switch path[0] {
			case "true", "false":
				return &Literal{Kind: LiteralBool, Text: path[0], Pos: token.Pos}, nil
			case "null":
				return &Literal{Kind: LiteralNull, Text: path[0], Pos: token.Pos}, nil
			}
		}
		return &Literal{Kind: LiteralIdent, Text: strings.Join(path, "."), Pos: token.Pos}, nil
	default:
		return nil, p.errorf(token.Pos, "unexpected %v", token.Type)
	}
}
