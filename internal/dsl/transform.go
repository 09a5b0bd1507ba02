package dsl

import "github.com/icode/ameba/internal/i18n"

// Transformed is the outcome of offering a call to one transformer. A failed
// outcome is not an error: the invoker moves on to the next transformer.
type Transformed[E any] struct {
	value Value[E]
	ok    bool
}

// Succ wraps a transformer result.
func Succ[E any](v Value[E]) Transformed[E] {
	return Transformed[E]{value: v, ok: true}
}

// Fail signals that the transformer does not handle the operator.
func Fail[E any]() Transformed[E] {
	return Transformed[E]{}
}

func (t Transformed[E]) Success() bool { return t.ok }

func (t Transformed[E]) Value() Value[E] { return t.value }

// Transformer turns one call into a value. args are already evaluated,
// nested calls first. ctx carries the backend specific collaborators and
// parent is the enclosing call, nil at the top level.
type Transformer[E any, C any] interface {
	Transform(field, operator string, args []Value[E], ctx C, parent *CallNode) (Transformed[E], error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc[E any, C any] func(field, operator string, args []Value[E], ctx C, parent *CallNode) (Transformed[E], error)

func (f TransformerFunc[E, C]) Transform(field, operator string, args []Value[E], ctx C, parent *CallNode) (Transformed[E], error) {
	return f(field, operator, args, ctx, parent)
}

// Invoker evaluates call trees against a chain of transformers. The first
// transformer that succeeds wins; a call nobody handles is a syntax error.
type Invoker[E any, C any] struct {
	transformers []Transformer[E, C]
}

// NewInvoker creates an invoker trying transformers in order.
func NewInvoker[E any, C any](transformers ...Transformer[E, C]) *Invoker[E, C] {
	return &Invoker[E, C]{transformers: transformers}
}

// Transformers returns the chain in invocation order.
func (inv *Invoker[E, C]) Transformers() []Transformer[E, C] {
	out := make([]Transformer[E, C], len(inv.transformers))
	copy(out, inv.transformers)
	return out
}

// Invoke evaluates node depth first.
func (inv *Invoker[E, C]) Invoke(node *CallNode, ctx C) (Value[E], error) {
	args := make([]Value[E], 0, len(node.Args))
	for _, arg := range node.Args {
		switch a := arg.(type) {
		case *CallNode:
			v, err := inv.Invoke(a, ctx)
			if err != nil {
				return Value[E]{}, err
			}
			args = append(args, v)
		case *Literal:
			v, err := LiteralValue[E](a)
			if err != nil {
				return Value[E]{}, err
			}
			args = append(args, v)
		}
	}

	for _, t := range inv.transformers {
		res, err := t.Transform(node.Field, node.Operator, args, ctx, node.Parent)
		if err != nil {
			return Value[E]{}, err
		}
		if res.Success() {
			return res.Value(), nil
		}
	}
	return Value[E]{}, NewSyntaxError(i18n.KeyUnknownOperator, node.Operator)
}

// InvokeAll evaluates every top level call of a query.
func (inv *Invoker[E, C]) InvokeAll(nodes []*CallNode, ctx C) ([]Value[E], error) {
	values := make([]Value[E], 0, len(nodes))
	for _, n := range nodes {
		v, err := inv.Invoke(n, ctx)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
