// Package dsl holds the query expression language shared by every
// transformer: the parsed call tree, the argument value union, the
// transformer contract and the invoker that runs a transformer chain.
package dsl

import (
	"strconv"
	"strings"
)

// Node is a parsed call argument: either a *CallNode or a *Literal.
type Node interface {
	node()
	Position() int
}

// LiteralKind classifies a literal argument.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralIdent
	LiteralNumber
	LiteralBool
	LiteralNull
)

// Literal is a scalar argument as written in the query text.
type Literal struct {
	Kind LiteralKind
	Text string
	Pos  int
}

func (l *Literal) node() {}

// Position returns the byte offset of the literal in the query text.
func (l *Literal) Position() int { return l.Pos }

func (l *Literal) String() string {
	switch l.Kind {
	case LiteralString:
		return strconv.Quote(l.Text)
	case LiteralNull:
		return "null"
	default:
		return l.Text
	}
}

// CallNode is one operator invocation, e.g. name.eq('x') has Field "name"
// and Operator "eq". Field is empty for operators that are not field scoped.
// Parent points at the enclosing call and is nil at the top level. The tree
// is read only once parsed.
type CallNode struct {
	Field    string
	Operator string
	Args     []Node
	Parent   *CallNode
	Pos      int
}

func (c *CallNode) node() {}

// Position returns the byte offset of the call in the query text.
func (c *CallNode) Position() int { return c.Pos }

// ParentOperator returns the operator of the enclosing call or "".
func (c *CallNode) ParentOperator() string {
	if c.Parent == nil {
		return ""
	}
	return c.Parent.Operator
}

// String renders the call back into query syntax.
func (c *CallNode) String() string {
	var b strings.Builder
	c.write(&b)
	return b.String()
}

func (c *CallNode) write(b *strings.Builder) {
	if c.Field != "" {
		b.WriteString(c.Field)
		b.WriteByte('.')
	}
	b.WriteString(c.Operator)
	b.WriteByte('(')
	for i, arg := range c.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		switch a := arg.(type) {
		case *CallNode:
			a.write(b)
		case *Literal:
			b.WriteString(a.String())
		}
	}
	b.WriteByte(')')
}
