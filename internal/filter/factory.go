package filter

import "github.com/icode/ameba/internal/metadata"

// ExpressionFactory builds the leaf and composite expressions the
// transformers return. Implementations must return fresh values.
type ExpressionFactory interface {
	Predicate(op Operator, field string, values ...interface{}) Expression
	SubQuery(op Operator, field string, query *SubQuery) Expression
	Junction(t JunctionType, children []Expression) Expression
	Filter(path string, target *metadata.EntityMetadata, children []Expression) Expression

	TextMatch(field, text string, opts MatchOptions) Expression
	TextMultiMatch(text string, fields []string, opts MultiMatchOptions) Expression
	TextSimple(text string, opts SimpleOptions) Expression
	TextQueryString(text string, opts QueryStringOptions) Expression
	TextCommonTerms(text string, fields []string, opts CommonTermsOptions) Expression
}

// DefaultFactory builds the expression types of this package.
type DefaultFactory struct{}

func (DefaultFactory) Predicate(op Operator, field string, values ...interface{}) Expression {
	return &Predicate{Op: op, Field: field, Values: append([]interface{}(nil), values...)}
}

func (DefaultFactory) SubQuery(op Operator, field string, query *SubQuery) Expression {
	return &SubQueryPredicate{Op: op, Field: field, Query: query}
}

func (DefaultFactory) Junction(t JunctionType, children []Expression) Expression {
	return &Junction{Type: t, Children: append([]Expression(nil), children...)}
}

func (DefaultFactory) Filter(path string, target *metadata.EntityMetadata, children []Expression) Expression {
	return &FilterExpression{Path: path, Target: target, Children: append([]Expression(nil), children...)}
}

func (DefaultFactory) TextMatch(field, text string, opts MatchOptions) Expression {
	return &Match{Field: field, Text: text, Options: opts}
}

func (DefaultFactory) TextMultiMatch(text string, fields []string, opts MultiMatchOptions) Expression {
	return &MultiMatch{Text: text, Fields: append([]string(nil), fields...), Options: opts}
}

func (DefaultFactory) TextSimple(text string, opts SimpleOptions) Expression {
	return &SimpleQuery{Text: text, Options: opts}
}

func (DefaultFactory) TextQueryString(text string, opts QueryStringOptions) Expression {
	return &QueryString{Text: text, Options: opts}
}

func (DefaultFactory) TextCommonTerms(text string, fields []string, opts CommonTermsOptions) Expression {
	return &CommonTerms{Text: text, Fields: append([]string(nil), fields...), Options: opts}
}
