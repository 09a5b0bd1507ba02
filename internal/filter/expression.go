// Package filter transforms query DSL calls into expressions and applies them
// to GORM queries or renders them as Elasticsearch search bodies.
package filter

import (
	"fmt"
	"strings"

	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/metadata"
)

// Value is a transformer argument or result for this backend.
type Value = dsl.Value[Expression]

// Expression is the closed set of nodes the transformers build. Every
// variant is immutable once returned.
type Expression interface {
	expression()
}

// JunctionType is the boolean kind of a Junction.
type JunctionType string

const (
	JunctionAnd     JunctionType = "AND"
	JunctionOr      JunctionType = "OR"
	JunctionNot     JunctionType = "NOT"
	JunctionMust    JunctionType = "MUST"
	JunctionShould  JunctionType = "SHOULD"
	JunctionMustNot JunctionType = "MUST_NOT"
)

// Predicate is a single-field comparison. Field is a dotted property path;
// it is empty for id and idIn, which target the primary key.
type Predicate struct {
	Op     Operator
	Field  string
	Values []interface{}
}

// SubQueryPredicate compares Field, or tests existence, against a sub-query.
type SubQueryPredicate struct {
	Op    Operator
	Field string
	Query *SubQuery
}

// Junction combines children in argument order.
type Junction struct {
	Type     JunctionType
	Children []Expression
}

// QueryExpression carries a sub-query built by select.
type QueryExpression struct {
	Query *SubQuery
}

// TextOptions is the ordered key/value configuration of a full-text clause.
// Flag options are stored with a nil value.
type TextOptions struct {
	keys   []string
	values map[string]*Value
}

func newTextOptions() *TextOptions {
	return &TextOptions{values: make(map[string]*Value)}
}

// set is only called while the options are being built.
func (o *TextOptions) set(key string, v *Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value for key. A present flag has a nil value.
func (o *TextOptions) Get(key string) (*Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the option keys in insertion order.
func (o *TextOptions) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *TextOptions) Len() int { return len(o.keys) }

// TextFields lists the fields searched by a full-text clause.
type TextFields struct {
	Fields []string
}

// MapExpression threads one option from a nested call up to option(...).
type MapExpression struct {
	Key   string
	Value *Value
}

type DistinctExpression struct {
	Distinct bool
}

// HavingExpression holds post-aggregation predicates.
type HavingExpression struct {
	Children []Expression
}

// TextExpression groups full-text clauses of a query.
type TextExpression struct {
	Children []Expression
}

// FilterExpression restricts a collection property: it holds when at least
// one element of Path satisfies every child.
type FilterExpression struct {
	Path     string
	Target   *metadata.EntityMetadata
	Children []Expression
}

func (*Predicate) expression()          {}
func (*SubQueryPredicate) expression()  {}
func (*Junction) expression()           {}
func (*QueryExpression) expression()    {}
func (*TextOptions) expression()        {}
func (*TextFields) expression()         {}
func (*MapExpression) expression()      {}
func (*DistinctExpression) expression() {}
func (*HavingExpression) expression()   {}
func (*TextExpression) expression()     {}
func (*FilterExpression) expression()   {}
func (*Match) expression()              {}
func (*MultiMatch) expression()         {}
func (*SimpleQuery) expression()        {}
func (*QueryString) expression()        {}
func (*CommonTerms) expression()        {}

func (p *Predicate) String() string {
	vals := make([]string, len(p.Values))
	for i, v := range p.Values {
		vals[i] = fmt.Sprint(v)
	}
	if p.Field == "" {
		return fmt.Sprintf("%s(%s)", p.Op, strings.Join(vals, ","))
	}
	return fmt.Sprintf("%s.%s(%s)", p.Field, p.Op, strings.Join(vals, ","))
}

func (p *SubQueryPredicate) String() string {
	if p.Field == "" {
		return fmt.Sprintf("%s(%s)", p.Op, p.Query)
	}
	return fmt.Sprintf("%s.%s(%s)", p.Field, p.Op, p.Query)
}

func (j *Junction) String() string {
	return string(j.Type) + joinExpressions(j.Children)
}

func (f *FilterExpression) String() string {
	return f.Path + ".filter" + joinExpressions(f.Children)
}

func (h *HavingExpression) String() string { return "having" + joinExpressions(h.Children) }

func (t *TextExpression) String() string { return "text" + joinExpressions(t.Children) }

func (m *MapExpression) String() string {
	if m.Value == nil {
		return m.Key
	}
	return m.Key + "=" + m.Value.String()
}

func (q *QueryExpression) String() string { return q.Query.String() }

func joinExpressions(children []Expression) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = fmt.Sprint(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// SubQuery is a query over another entity, embedded by in, notIn, exists
// and notExists. It is built by select and not modified afterwards.
type SubQuery struct {
	Entity   *metadata.EntityMetadata
	Select   []string
	Distinct bool
	Where    []Expression
	Having   []Expression
}

func (q *SubQuery) String() string {
	if q == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("select ")
	if q.Distinct {
		b.WriteString("distinct ")
	}
	b.WriteString(strings.Join(q.Select, ","))
	if q.Entity != nil {
		b.WriteString(" from ")
		b.WriteString(q.Entity.EntityName)
	}
	if len(q.Where) > 0 {
		b.WriteString(" where ")
		b.WriteString(joinExpressions(q.Where))
	}
	if len(q.Having) > 0 {
		b.WriteString(" having ")
		b.WriteString(joinExpressions(q.Having))
	}
	return b.String()
}

// exprName names e for error messages.
func exprName(e Expression) string {
	switch x := e.(type) {
	case *TextOptions:
		return OpOption.String()
	case *TextFields:
		return OpFields.String()
	case *MapExpression:
		return x.Key
	case *QueryExpression:
		return OpSelect.String()
	case *DistinctExpression:
		return OpDistinct.String()
	case *HavingExpression:
		return OpHaving.String()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%T", e)
}
