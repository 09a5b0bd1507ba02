package filter

import (
	"strings"

	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/i18n"
)

func isTextClause(operator string) bool {
	switch operator {
	case OpMatch.String(), OpSimple.String(), OpQuery.String(), OpCommon.String():
		return true
	}
	return false
}

// requireParent checks that a call is nested directly under want.
func requireParent(name string, parent *dsl.CallNode, want string) error {
	if parent == nil {
		return dsl.NewSyntaxError(i18n.KeyNoParent, name)
	}
	if parent.Operator != want {
		return dsl.NewSyntaxError(i18n.KeyWrongParent, name, want)
	}
	return nil
}

// transformOption folds its arguments into a TextOptions. Nested option
// calls contribute key/value pairs, fields(...) contributes "fields" and
// bare names become flags.
func transformOption(op Operator, args []Value, parent *dsl.CallNode) (Value, error) {
	if parent == nil {
		return Value{}, dsl.NewSyntaxError(i18n.KeyNoParent, op.String())
	}
	if !isTextClause(parent.Operator) {
		return Value{}, dsl.NewSyntaxError(i18n.KeyWrongParent, op.String(), textClauseParents)
	}
	if len(args) == 0 {
		return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsMoreThan, op.String(), 0)
	}

	opts := newTextOptions()
	for i, a := range args {
		if a.IsExpr() {
			switch e := mustExpr(a).(type) {
			case *MapExpression:
				opts.set(e.Key, e.Value)
			case *TextFields:
				v := dsl.ExprValue[Expression](e)
				opts.set(OpFields.String(), &v)
			default:
				return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentKind, op.String(), i, "an option")
			}
			continue
		}
		key, err := a.AsString()
		if err != nil {
			return Value{}, err
		}
		opts.set(strings.TrimSpace(key), nil)
	}
	return expr(opts), nil
}

func transformFields(op Operator, args []Value, parent *dsl.CallNode) (Value, error) {
	if err := requireParent(op.String(), parent, OpOption.String()); err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsMoreThan, op.String(), 0)
	}

	fields := make([]string, 0, len(args))
	for i, a := range args {
		if a.IsExpr() {
			return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentKind, op.String(), i, "a field name")
		}
		name, err := a.AsString()
		if err != nil {
			return Value{}, err
		}
		fields = append(fields, splitProperties(name)...)
	}
	return expr(&TextFields{Fields: fields}), nil
}

// transformFlag records a flag option. An explicit argument such as
// phrase(false) is kept as its value.
func transformFlag(name string, args []Value, parent *dsl.CallNode) (Value, error) {
	switch len(args) {
	case 0:
		return transformMap(name, nil, parent)
	case 1:
		return transformMap(name, &args[0], parent)
	default:
		return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsAtMost, name, 1)
	}
}

// transformMap threads one option up to the enclosing option(...) call.
func transformMap(name string, v *Value, parent *dsl.CallNode) (Value, error) {
	if err := requireParent(name, parent, OpOption.String()); err != nil {
		return Value{}, err
	}
	if v != nil && v.IsExpr() {
		return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentKind, name, 0, "a value")
	}
	return expr(&MapExpression{Key: name, Value: v}), nil
}

// OptionTransformer accepts operators outside the vocabulary when they are
// nested in option(...), so newer option keys reach the clause builders,
// which ignore what they do not know.
type OptionTransformer struct{}

func (OptionTransformer) Transform(field, operator string, args []Value, ctx QueryContext, parent *dsl.CallNode) (dsl.Transformed[Expression], error) {
	if parent == nil || parent.Operator != OpOption.String() || field != "" {
		return dsl.Fail[Expression](), nil
	}
	v, err := transformFlag(operator, args, parent)
	if err != nil {
		return dsl.Fail[Expression](), err
	}
	return dsl.Succ(v), nil
}
