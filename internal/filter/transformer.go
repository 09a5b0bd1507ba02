package filter

import (
	"errors"
	"strings"

	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/i18n"
	"github.com/icode/ameba/internal/metadata"
)

// textClauseParents are the operators option(...) may be nested in.
const textClauseParents = "match|simple|query|common"

// CommonTransformer handles the whole operator vocabulary. Operators outside
// of it fail without an error so the next transformer in the chain can try.
type CommonTransformer struct{}

func (CommonTransformer) Transform(field, operator string, args []Value, ctx QueryContext, parent *dsl.CallNode) (dsl.Transformed[Expression], error) {
	op, ok := ParseOperator(operator)
	if !ok {
		return dsl.Fail[Expression](), nil
	}
	v, err := transform(op, field, args, ctx, parent)
	if err != nil {
		return dsl.Fail[Expression](), err
	}
	return dsl.Succ(v), nil
}

func transform(op Operator, field string, args []Value, ctx QueryContext, parent *dsl.CallNode) (Value, error) {
	f := ctx.Factory()

	switch op {
	case OpEq, OpNe, OpIEq, OpGt, OpGe, OpLt, OpLe,
		OpStartsWith, OpIStartsWith, OpEndsWith, OpIEndsWith, OpContains, OpIContains:
		if err := exactlyOne(op, args); err != nil {
			return Value{}, err
		}
		if err := requireField(op, field); err != nil {
			return Value{}, err
		}
		v, err := scalar(op, args, 0)
		if err != nil {
			return Value{}, err
		}
		return expr(f.Predicate(op, field, v)), nil

	case OpBetween:
		if len(args) != 2 {
			return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsExactlyTwo, op.String())
		}
		if err := requireField(op, field); err != nil {
			return Value{}, err
		}
		lo, err := scalar(op, args, 0)
		if err != nil {
			return Value{}, err
		}
		hi, err := scalar(op, args, 1)
		if err != nil {
			return Value{}, err
		}
		return expr(f.Predicate(op, field, lo, hi)), nil

	case OpIsNull, OpNotNull, OpEmpty, OpNotEmpty:
		if err := requireField(op, field); err != nil {
			return Value{}, err
		}
		return expr(f.Predicate(op, field)), nil

	case OpID:
		if err := exactlyOne(op, args); err != nil {
			return Value{}, err
		}
		v, err := scalar(op, args, 0)
		if err != nil {
			return Value{}, err
		}
		return expr(f.Predicate(op, "", v)), nil

	case OpIDIn:
		values, err := scalars(op, args)
		if err != nil {
			return Value{}, err
		}
		return expr(f.Predicate(op, "", values...)), nil

	case OpDate:
		return transformDate(op, args, ctx, parent)

	case OpHaving:
		children, err := expressions(op, args, 0)
		if err != nil {
			return Value{}, err
		}
		return expr(&HavingExpression{Children: children}), nil

	case OpIn, OpNotIn:
		return transformIn(op, field, args, ctx)

	case OpExists, OpNotExists:
		if err := exactlyOne(op, args); err != nil {
			return Value{}, err
		}
		q, ok := queryOf(args[0])
		if !ok {
			return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsExpressions, op.String())
		}
		return expr(f.SubQuery(op, field, q)), nil

	case OpNot:
		return junction(op, args, JunctionNot, ctx, 0)
	case OpAnd:
		return junction(op, args, JunctionAnd, ctx, 1)
	case OpOr:
		return junction(op, args, JunctionOr, ctx, 1)
	case OpMust:
		return junction(op, args, JunctionMust, ctx, 0)
	case OpShould:
		return junction(op, args, JunctionShould, ctx, 0)
	case OpMustNot:
		return junction(op, args, JunctionMustNot, ctx, 0)

	case OpFilter:
		return transformFilter(op, field, args, ctx, parent)

	case OpSelect:
		return transformSelect(op, field, args, ctx)

	case OpDistinct:
		distinct := true
		if len(args) > 0 {
			b, err := args[0].AsBool()
			if err != nil {
				return Value{}, err
			}
			distinct = b
		}
		return expr(&DistinctExpression{Distinct: distinct}), nil

	case OpText:
		children, err := expressions(op, args, 0)
		if err != nil {
			return Value{}, err
		}
		return expr(&TextExpression{Children: children}), nil

	case OpMatch:
		if field != "" {
			return transformFieldMatch(op, field, args, ctx)
		}
		return transformMultiMatch(op, args, ctx)

	case OpSimple:
		return transformSimple(op, args, ctx)

	case OpQuery:
		return transformQueryString(op, args, ctx)

	case OpCommon:
		return transformCommonTerms(op, args, ctx)

	case OpOption:
		return transformOption(op, args, parent)

	case OpFields:
		return transformFields(op, args, parent)
	}

	switch {
	case op.isFlagOption():
		return transformFlag(op.String(), args, parent)
	case op.isValueOption():
		if err := exactlyOne(op, args); err != nil {
			return Value{}, err
		}
		return transformMap(op.String(), &args[0], parent)
	}

	return Value{}, dsl.NewSyntaxError(i18n.KeyUnknownOperator, op.String())
}

func expr(e Expression) Value {
	return dsl.ExprValue(e)
}

func exactlyOne(op Operator, args []Value) error {
	if len(args) != 1 {
		return dsl.NewSyntaxError(i18n.KeyArgumentsExactlyOne, op.String())
	}
	return nil
}

func requireField(op Operator, field string) error {
	if field == "" {
		return dsl.NewSyntaxError(i18n.KeyFieldRequired, op.String())
	}
	return nil
}

// scalar returns args[i] as a raw object. Expressions are rejected.
func scalar(op Operator, args []Value, i int) (interface{}, error) {
	if args[i].IsExpr() {
		return nil, dsl.NewSyntaxError(i18n.KeyArgumentKind, op.String(), i, "a value")
	}
	return args[i].Object(), nil
}

func scalars(op Operator, args []Value) ([]interface{}, error) {
	values := make([]interface{}, len(args))
	for i := range args {
		v, err := scalar(op, args, i)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func queryOf(v Value) (*SubQuery, bool) {
	if !v.IsExpr() {
		return nil, false
	}
	q, ok := mustExpr(v).(*QueryExpression)
	if !ok {
		return nil, false
	}
	return q.Query, true
}

// isCondition reports whether e can take part in a boolean composition.
func isCondition(e Expression) bool {
	switch e.(type) {
	case *TextOptions, *TextFields, *MapExpression, *QueryExpression, *DistinctExpression, *HavingExpression:
		return false
	}
	return e != nil
}

// fillArgs collects the expressions carried by args, in order.
func fillArgs(op Operator, args []Value) ([]Expression, error) {
	children := make([]Expression, 0, len(args))
	for _, a := range args {
		if !a.IsExpr() {
			return nil, dsl.NewSyntaxError(i18n.KeyArgumentsExpressions, op.String())
		}
		e := mustExpr(a)
		if !isCondition(e) {
			return nil, dsl.NewSyntaxError(i18n.KeyArgumentsExpressions, op.String())
		}
		children = append(children, e)
	}
	return children, nil
}

// expressions requires more than minArgs expression arguments.
func expressions(op Operator, args []Value, minArgs int) ([]Expression, error) {
	if len(args) <= minArgs {
		return nil, dsl.NewSyntaxError(i18n.KeyArgumentsMoreThan, op.String(), minArgs)
	}
	return fillArgs(op, args)
}

func junction(op Operator, args []Value, t JunctionType, ctx QueryContext, minArgs int) (Value, error) {
	children, err := expressions(op, args, minArgs)
	if err != nil {
		return Value{}, err
	}
	return expr(ctx.Factory().Junction(t, children)), nil
}

func transformDate(op Operator, args []Value, ctx QueryContext, parent *dsl.CallNode) (Value, error) {
	if parent == nil {
		return Value{}, dsl.NewSyntaxError(i18n.KeyNoParent, op.String())
	}
	if err := exactlyOne(op, args); err != nil {
		return Value{}, err
	}
	s, err := args[0].AsString()
	if err != nil {
		return Value{}, err
	}
	t, err := ctx.ParseDate(s)
	if err != nil {
		return Value{}, dsl.NewSyntaxError(i18n.KeyDate, s)
	}
	return dsl.TimeValue[Expression](t), nil
}

func transformIn(op Operator, field string, args []Value, ctx QueryContext) (Value, error) {
	switch len(args) {
	case 0:
		return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsMoreThan, op.String(), 0)
	case 1:
		if err := requireField(op, field); err != nil {
			return Value{}, err
		}
		q, ok := queryOf(args[0])
		if !ok {
			return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsExpressions, op.String())
		}
		return expr(ctx.Factory().SubQuery(op, field, q)), nil
	}

	if err := requireField(op, field); err != nil {
		return Value{}, err
	}
	values, err := scalars(op, args)
	if err != nil {
		return Value{}, err
	}
	return expr(ctx.Factory().Predicate(op, field, values...)), nil
}

// scopeOf returns the entity properties of a call nested under parent refer
// to: the bean type of the closest enclosing select, or the root entity,
// narrowed by every enclosing filter path.
func scopeOf(ctx QueryContext, parent *dsl.CallNode) (*metadata.EntityMetadata, error) {
	base := ctx.Entity()
	var paths []string
	for p := parent; p != nil; p = p.Parent {
		if p.Operator == OpSelect.String() {
			if bean, ok := ctx.BeanTypeByName(p.Field); ok {
				base = bean
			}
			break
		}
		if p.Operator == OpFilter.String() && p.Field != "" {
			paths = append(paths, p.Field)
		}
	}
	for i := len(paths) - 1; i >= 0; i-- {
		target, err := ctx.BeanTypeAtPath(base, paths[i])
		if err != nil {
			return nil, err
		}
		base = target
	}
	return base, nil
}

func transformFilter(op Operator, field string, args []Value, ctx QueryContext, parent *dsl.CallNode) (Value, error) {
	if err := requireField(op, field); err != nil {
		return Value{}, err
	}
	children, err := expressions(op, args, 0)
	if err != nil {
		return Value{}, err
	}

	owner, err := scopeOf(ctx, parent)
	if err != nil {
		return Value{}, dsl.NewUnprocessableEntityError(field)
	}
	target, err := ctx.BeanTypeAtPath(owner, field)
	if err != nil {
		var unprocessable *dsl.UnprocessableEntityError
		if errors.As(err, &unprocessable) {
			return Value{}, err
		}
		return Value{}, dsl.NewUnprocessableEntityError(field)
	}

	if unknown := collectUnknown(target, children, nil); len(unknown) > 0 {
		return Value{}, dsl.NewUnprocessableEntityError(unknown...)
	}
	return expr(ctx.Factory().Filter(field, target, children)), nil
}

func transformSelect(op Operator, field string, args []Value, ctx QueryContext) (Value, error) {
	bean, ok := ctx.BeanTypeByName(field)
	if !ok {
		return Value{}, dsl.NewSyntaxError(i18n.KeyBeanType, field)
	}
	if len(args) == 0 {
		return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsMoreThan, op.String(), 0)
	}
	if args[0].IsExpr() {
		return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentKind, op.String(), 0, "a property list")
	}
	props, err := args[0].AsString()
	if err != nil {
		return Value{}, err
	}

	q := ctx.CreateSubQuery(bean)
	q.Select = splitProperties(props)
	for _, a := range args[1:] {
		if !a.IsExpr() {
			return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsExpressions, op.String())
		}
		switch e := mustExpr(a).(type) {
		case *HavingExpression:
			q.Having = append(q.Having, e.Children...)
		case *DistinctExpression:
			q.Distinct = e.Distinct
		default:
			if !isCondition(e) {
				return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsExpressions, op.String())
			}
			q.Where = append(q.Where, e)
		}
	}

	if err := ctx.ValidateQuery(q); err != nil {
		return Value{}, err
	}
	return expr(&QueryExpression{Query: q}), nil
}

func splitProperties(s string) []string {
	parts := strings.Split(s, ",")
	props := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			props = append(props, p)
		}
	}
	return props
}
