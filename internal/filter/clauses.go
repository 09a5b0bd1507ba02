package filter

import (
	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/i18n"
)

// searchText returns the text searched by a full-text clause.
func searchText(op Operator, args []Value) (string, error) {
	if args[0].IsExpr() {
		return "", dsl.NewSyntaxError(i18n.KeyArgumentKind, op.String(), 0, "a search text")
	}
	return args[0].AsString()
}

func optionsArg(op Operator, args []Value, i int) (*TextOptions, error) {
	if args[i].IsExpr() {
		if opts, ok := mustExpr(args[i]).(*TextOptions); ok {
			return opts, nil
		}
	}
	return nil, dsl.NewSyntaxError(i18n.KeyArgumentKind, op.String(), i, OpOption.String())
}

// checkTextOptions requires (text, option(...)).
func checkTextOptions(op Operator, args []Value) (string, *TextOptions, error) {
	if len(args) != 2 {
		return "", nil, dsl.NewSyntaxError(i18n.KeyArgumentsExactlyTwo, op.String())
	}
	text, err := searchText(op, args)
	if err != nil {
		return "", nil, err
	}
	opts, err := optionsArg(op, args, 1)
	if err != nil {
		return "", nil, err
	}
	return text, opts, nil
}

func optionFields(opts *TextOptions) ([]string, error) {
	v, ok := opts.Get(OpFields.String())
	if !ok {
		return nil, dsl.NewSyntaxError(i18n.KeyArgumentKind, OpOption.String(), 1, OpFields.String())
	}
	fv, err := optionSpec[struct{}]{kind: optFields}.coerce(OpFields.String(), v)
	if err != nil {
		return nil, err
	}
	return fv.fields, nil
}

// transformFieldMatch handles field.match(text[, option(...)]).
func transformFieldMatch(op Operator, field string, args []Value, ctx QueryContext) (Value, error) {
	switch {
	case len(args) == 0:
		return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsMoreThan, op.String(), 0)
	case len(args) > 2:
		return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsAtMost, op.String(), 2)
	}
	text, err := searchText(op, args)
	if err != nil {
		return Value{}, err
	}

	var opts MatchOptions
	if len(args) == 2 {
		textOpts, err := optionsArg(op, args, 1)
		if err != nil {
			return Value{}, err
		}
		if err := applyOptions(matchOptionSchema, textOpts, &opts); err != nil {
			return Value{}, err
		}
	}
	return expr(ctx.Factory().TextMatch(field, text, opts)), nil
}

// transformMultiMatch handles match(text, option(fields(...), ...)) and
// match(text, field1, field2, ...).
func transformMultiMatch(op Operator, args []Value, ctx QueryContext) (Value, error) {
	if len(args) < 2 {
		return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsMoreThan, op.String(), 1)
	}
	text, err := searchText(op, args)
	if err != nil {
		return Value{}, err
	}

	var opts MultiMatchOptions
	if args[1].IsExpr() {
		textOpts, err := optionsArg(op, args, 1)
		if err != nil {
			return Value{}, err
		}
		if len(args) > 2 {
			return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentsAtMost, op.String(), 2)
		}
		fields, err := optionFields(textOpts)
		if err != nil {
			return Value{}, err
		}
		if err := applyOptions(multiMatchOptionSchema, textOpts, &opts); err != nil {
			return Value{}, err
		}
		return expr(ctx.Factory().TextMultiMatch(text, fields, opts)), nil
	}

	fields := make([]string, 0, len(args)-1)
	for i := 1; i < len(args); i++ {
		if args[i].IsExpr() {
			return Value{}, dsl.NewSyntaxError(i18n.KeyArgumentKind, op.String(), i, "a field name")
		}
		name, err := args[i].AsString()
		if err != nil {
			return Value{}, err
		}
		fields = append(fields, name)
	}
	return expr(ctx.Factory().TextMultiMatch(text, fields, opts)), nil
}

func transformSimple(op Operator, args []Value, ctx QueryContext) (Value, error) {
	text, textOpts, err := checkTextOptions(op, args)
	if err != nil {
		return Value{}, err
	}
	var opts SimpleOptions
	if err := applyOptions(simpleOptionSchema, textOpts, &opts); err != nil {
		return Value{}, err
	}
	return expr(ctx.Factory().TextSimple(text, opts)), nil
}

func transformQueryString(op Operator, args []Value, ctx QueryContext) (Value, error) {
	text, textOpts, err := checkTextOptions(op, args)
	if err != nil {
		return Value{}, err
	}
	if err := requireFields(textOpts); err != nil {
		return Value{}, err
	}
	var opts QueryStringOptions
	if err := applyOptions(queryStringOptionSchema, textOpts, &opts); err != nil {
		return Value{}, err
	}
	return expr(ctx.Factory().TextQueryString(text, opts)), nil
}

func transformCommonTerms(op Operator, args []Value, ctx QueryContext) (Value, error) {
	text, textOpts, err := checkTextOptions(op, args)
	if err != nil {
		return Value{}, err
	}
	fields, err := optionFields(textOpts)
	if err != nil {
		return Value{}, err
	}
	var opts CommonTermsOptions
	if err := applyOptions(commonTermsOptionSchema, textOpts, &opts); err != nil {
		return Value{}, err
	}
	return expr(ctx.Factory().TextCommonTerms(text, fields, opts)), nil
}
