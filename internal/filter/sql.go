package filter

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/i18n"
	"github.com/icode/ameba/internal/metadata"
	"gorm.io/gorm"
)

const dialectPostgres = "postgres"

// getDatabaseDialect returns the active database dialect name (e.g. "sqlite", "postgres").
func getDatabaseDialect(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	return db.Dialector.Name()
}

// quoteIdent quotes identifiers in a portable way (double quotes work for
// sqlite and postgres). Embedded double quotes are doubled.
func quoteIdent(ident string) string {
	if ident == "" {
		return ident
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// scope is the entity properties are resolved against and the SQL name its
// table is referenced by.
type scope struct {
	entity *metadata.EntityMetadata
	ref    string
}

func (s scope) column(name string) string {
	return s.ref + "." + quoteIdent(name)
}

// sqlBuilder renders expressions as SQL conditions with ? placeholders.
// Correlated sub-queries get fresh aliases so self references stay
// unambiguous.
type sqlBuilder struct {
	dialect string
	aliases int
}

func newSQLBuilder(dialect string) *sqlBuilder {
	return &sqlBuilder{dialect: dialect}
}

func (b *sqlBuilder) nextAlias() string {
	b.aliases++
	return fmt.Sprintf("t%d", b.aliases)
}

func rootScope(entity *metadata.EntityMetadata) scope {
	return scope{entity: entity, ref: quoteIdent(entity.TableName)}
}

// build renders e against s.
func (b *sqlBuilder) build(e Expression, s scope) (string, []interface{}, error) {
	switch x := e.(type) {
	case *Predicate:
		return b.predicate(x, s)
	case *SubQueryPredicate:
		return b.subQueryPredicate(x, s)
	case *Junction:
		return b.junction(x, s)
	case *TextExpression:
		return b.conjunction(x.Children, s, "AND")
	case *FilterExpression:
		return b.filter(x, s)
	case *Match:
		return b.match(x, s)
	case *MultiMatch:
		return b.multiMatch(x, s)
	case *SimpleQuery:
		return b.simpleQuery(x, s)
	case *QueryString:
		return b.queryString(x, s)
	case *CommonTerms:
		return b.commonTerms(x, s)
	}
	return "", nil, dsl.NewSyntaxError(i18n.KeyUnsupportedExpr, exprName(e))
}

func (b *sqlBuilder) conjunction(children []Expression, s scope, keyword string) (string, []interface{}, error) {
	parts := make([]string, 0, len(children))
	var args []interface{}
	for _, c := range children {
		sql, a, err := b.build(c, s)
		if err != nil {
			return "", nil, err
		}
		if !isGrouped(c) {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		args = append(args, a...)
	}
	if len(parts) == 1 {
		return parts[0], args, nil
	}
	return "(" + strings.Join(parts, " "+keyword+" ") + ")", args, nil
}

// isGrouped reports whether e always renders inside its own parentheses.
func isGrouped(e Expression) bool {
	switch x := e.(type) {
	case *Junction:
		return x.Type != JunctionNot && x.Type != JunctionMustNot
	case *TextExpression:
		return len(x.Children) > 0
	}
	return false
}

func (b *sqlBuilder) junction(j *Junction, s scope) (string, []interface{}, error) {
	switch j.Type {
	case JunctionAnd, JunctionMust:
		return b.conjunction(j.Children, s, "AND")
	case JunctionOr, JunctionShould:
		return b.conjunction(j.Children, s, "OR")
	case JunctionNot:
		sql, args, err := b.conjunction(j.Children, s, "AND")
		if err != nil {
			return "", nil, err
		}
		return "NOT " + sql, args, nil
	case JunctionMustNot:
		sql, args, err := b.conjunction(j.Children, s, "OR")
		if err != nil {
			return "", nil, err
		}
		return "NOT " + sql, args, nil
	}
	return "", nil, fmt.Errorf("unsupported junction type %q", j.Type)
}

// onPath resolves path against s and renders leaf inside the EXISTS
// sub-queries of the navigations walked on the way.
func (b *sqlBuilder) onPath(s scope, path string, leaf func(scope, *metadata.PropertyMetadata) (string, []interface{}, error)) (string, []interface{}, error) {
	resolved, err := s.entity.ResolvePath(path)
	if err != nil {
		return "", nil, dsl.NewUnprocessableEntityError(path)
	}
	return b.navigate(s, resolved.Navigations, func(inner scope) (string, []interface{}, error) {
		return leaf(inner, resolved.Property)
	})
}

func (b *sqlBuilder) navigate(s scope, navs []*metadata.PropertyMetadata, inner func(scope) (string, []interface{}, error)) (string, []interface{}, error) {
	if len(navs) == 0 {
		return inner(s)
	}
	return b.exists(s, navs[0], func(t scope) (string, []interface{}, error) {
		return b.navigate(t, navs[1:], inner)
	})
}

// exists renders EXISTS (SELECT 1 FROM target WHERE <join> [AND <inner>]).
// inner may be nil.
func (b *sqlBuilder) exists(s scope, nav *metadata.PropertyMetadata, inner func(scope) (string, []interface{}, error)) (string, []interface{}, error) {
	if nav.Target == nil {
		return "", nil, fmt.Errorf("navigation property %s has no target", nav.Name)
	}
	alias := quoteIdent(b.nextAlias())
	target := scope{entity: nav.Target, ref: alias}
	from := quoteIdent(nav.Target.TableName) + " AS " + alias

	var conds []string
	var args []interface{}
	if nav.JoinTable != "" {
		jt := quoteIdent(b.nextAlias())
		on := make([]string, 0, len(nav.TargetColumns))
		for _, jc := range nav.TargetColumns {
			on = append(on, fmt.Sprintf("%s.%s = %s.%s", jt, quoteIdent(jc.Remote), alias, quoteIdent(jc.Local)))
		}
		from = fmt.Sprintf("%s AS %s INNER JOIN %s ON %s", quoteIdent(nav.JoinTable), jt, from, strings.Join(on, " AND "))
		for _, jc := range nav.JoinColumns {
			conds = append(conds, fmt.Sprintf("%s.%s = %s", jt, quoteIdent(jc.Remote), s.column(jc.Local)))
		}
	} else {
		for _, jc := range nav.JoinColumns {
			if jc.Local == "" {
				conds = append(conds, fmt.Sprintf("%s = ?", target.column(jc.Remote)))
				args = append(args, jc.Value)
				continue
			}
			conds = append(conds, fmt.Sprintf("%s = %s", target.column(jc.Remote), s.column(jc.Local)))
		}
	}

	if inner != nil {
		sql, innerArgs, err := inner(target)
		if err != nil {
			return "", nil, err
		}
		if sql != "" {
			conds = append(conds, sql)
			args = append(args, innerArgs...)
		}
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s)", from, strings.Join(conds, " AND ")), args, nil
}

func (b *sqlBuilder) predicate(p *Predicate, s scope) (string, []interface{}, error) {
	if p.Op == OpID || p.Op == OpIDIn {
		return b.idPredicate(p, s)
	}
	return b.onPath(s, p.Field, func(t scope, prop *metadata.PropertyMetadata) (string, []interface{}, error) {
		if prop.IsNavigationProp {
			return b.navigationPredicate(p, t, prop)
		}
		return buildComparison(p.Op, t.column(prop.Column), prop, p.Values)
	})
}

// navigationPredicate handles null and emptiness checks on relationships.
func (b *sqlBuilder) navigationPredicate(p *Predicate, s scope, prop *metadata.PropertyMetadata) (string, []interface{}, error) {
	switch p.Op {
	case OpNotNull, OpNotEmpty:
		return b.exists(s, prop, nil)
	case OpIsNull, OpEmpty:
		sql, args, err := b.exists(s, prop, nil)
		if err != nil {
			return "", nil, err
		}
		return "NOT " + sql, args, nil
	}
	return "", nil, fmt.Errorf("operator %s cannot be applied to navigation property %s", p.Op, p.Field)
}

func (b *sqlBuilder) idPredicate(p *Predicate, s scope) (string, []interface{}, error) {
	keys := s.entity.KeyColumns()
	if len(keys) != 1 {
		return "", nil, fmt.Errorf("entity %s has a composite key; %s needs a single key column", s.entity.EntityName, p.Op)
	}
	col := s.column(keys[0])
	if p.Op == OpID {
		return buildComparison(OpEq, col, nil, p.Values)
	}
	if len(p.Values) == 0 {
		return "1 = 0", nil, nil
	}
	return buildComparison(OpIn, col, nil, p.Values)
}

func isStringProperty(prop *metadata.PropertyMetadata) bool {
	if prop == nil || prop.Type == nil {
		return false
	}
	t := prop.Type
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.String
}

// buildComparison renders a scalar comparison of column.
func buildComparison(op Operator, column string, prop *metadata.PropertyMetadata, values []interface{}) (string, []interface{}, error) {
	first := func() interface{} {
		if len(values) == 0 {
			return nil
		}
		return values[0]
	}

	switch op {
	case OpEq:
		if first() == nil {
			return column + " IS NULL", nil, nil
		}
		return column + " = ?", []interface{}{first()}, nil
	case OpNe:
		if first() == nil {
			return column + " IS NOT NULL", nil, nil
		}
		return column + " <> ?", []interface{}{first()}, nil
	case OpIEq:
		return fmt.Sprintf("LOWER(%s) = LOWER(?)", column), []interface{}{fmt.Sprint(first())}, nil
	case OpGt:
		return column + " > ?", []interface{}{first()}, nil
	case OpGe:
		return column + " >= ?", []interface{}{first()}, nil
	case OpLt:
		return column + " < ?", []interface{}{first()}, nil
	case OpLe:
		return column + " <= ?", []interface{}{first()}, nil
	case OpBetween:
		return column + " BETWEEN ? AND ?", []interface{}{values[0], values[1]}, nil
	case OpIsNull:
		return column + " IS NULL", nil, nil
	case OpNotNull:
		return column + " IS NOT NULL", nil, nil
	case OpEmpty:
		if isStringProperty(prop) {
			return fmt.Sprintf("(%s IS NULL OR %s = '')", column, column), nil, nil
		}
		return column + " IS NULL", nil, nil
	case OpNotEmpty:
		if isStringProperty(prop) {
			return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", column, column), nil, nil
		}
		return column + " IS NOT NULL", nil, nil
	case OpStartsWith, OpIStartsWith:
		sql, args := buildLikeComparison(column, first(), false, true, op == OpIStartsWith)
		return sql, args, nil
	case OpEndsWith, OpIEndsWith:
		sql, args := buildLikeComparison(column, first(), true, false, op == OpIEndsWith)
		return sql, args, nil
	case OpContains, OpIContains:
		sql, args := buildLikeComparison(column, first(), true, true, op == OpIContains)
		return sql, args, nil
	case OpIn, OpNotIn:
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
		keyword := "IN"
		if op == OpNotIn {
			keyword = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", column, keyword, placeholders), append([]interface{}(nil), values...), nil
	}
	return "", nil, fmt.Errorf("operator %s is not a comparison", op)
}

func (b *sqlBuilder) subQueryPredicate(p *SubQueryPredicate, s scope) (string, []interface{}, error) {
	sub, subArgs, err := b.subQuery(p.Query)
	if err != nil {
		return "", nil, err
	}
	switch p.Op {
	case OpExists:
		return "EXISTS (" + sub + ")", subArgs, nil
	case OpNotExists:
		return "NOT EXISTS (" + sub + ")", subArgs, nil
	case OpIn, OpNotIn:
		if len(p.Query.Select) != 1 {
			return "", nil, fmt.Errorf("sub-query of %s must select exactly one property, got %d", p.Op, len(p.Query.Select))
		}
		keyword := "IN"
		if p.Op == OpNotIn {
			keyword = "NOT IN"
		}
		return b.onPath(s, p.Field, func(t scope, prop *metadata.PropertyMetadata) (string, []interface{}, error) {
			if prop.IsNavigationProp {
				return "", nil, fmt.Errorf("operator %s cannot be applied to navigation property %s", p.Op, p.Field)
			}
			return fmt.Sprintf("%s %s (%s)", t.column(prop.Column), keyword, sub), subArgs, nil
		})
	}
	return "", nil, fmt.Errorf("operator %s does not take a sub-query", p.Op)
}

// subQuery renders q. Having clauses group by the selected columns.
func (b *sqlBuilder) subQuery(q *SubQuery) (string, []interface{}, error) {
	if q == nil || q.Entity == nil {
		return "", nil, fmt.Errorf("sub-query has no entity")
	}
	alias := quoteIdent(b.nextAlias())
	s := scope{entity: q.Entity, ref: alias}

	cols := make([]string, 0, len(q.Select))
	for _, name := range q.Select {
		prop, ok := q.Entity.FindProperty(name)
		if !ok || prop.Hidden || prop.IsNavigationProp {
			return "", nil, dsl.NewUnprocessableEntityError(name)
		}
		cols = append(cols, s.column(prop.Column))
	}
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("sub-query over %s selects nothing", q.Entity.EntityName)
	}

	var sb strings.Builder
	var args []interface{}
	sb.WriteString("SELECT ")
	if q.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(q.Entity.TableName))
	sb.WriteString(" AS ")
	sb.WriteString(alias)

	if len(q.Where) > 0 {
		where, whereArgs, err := b.conjunction(q.Where, s, "AND")
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		args = append(args, whereArgs...)
	}
	if len(q.Having) > 0 {
		having, havingArgs, err := b.conjunction(q.Having, s, "AND")
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(cols, ", "))
		sb.WriteString(" HAVING ")
		sb.WriteString(having)
		args = append(args, havingArgs...)
	}
	return sb.String(), args, nil
}

func (b *sqlBuilder) filter(f *FilterExpression, s scope) (string, []interface{}, error) {
	resolved, err := s.entity.ResolvePath(f.Path)
	if err != nil || !resolved.Property.IsNavigationProp {
		return "", nil, dsl.NewUnprocessableEntityError(f.Path)
	}
	navs := append(append([]*metadata.PropertyMetadata(nil), resolved.Navigations...), resolved.Property)
	return b.navigate(s, navs, func(t scope) (string, []interface{}, error) {
		if len(f.Children) == 0 {
			return "", nil, nil
		}
		return b.conjunction(f.Children, t, "AND")
	})
}
