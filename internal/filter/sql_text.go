package filter

import (
	"strings"

	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/metadata"
)

const (
	matchNothing = "1 = 0"
	matchAll     = "1 = 1"
)

// textQuery is a search text ready for rendering against a set of columns.
type textQuery struct {
	node *searchNode
	// tsFunc is the PostgreSQL function turning tsText into a tsquery.
	tsFunc   string
	tsText   string
	prefix   bool
	analyzer string
}

// termsQuery builds the query of a match clause.
func termsQuery(text string, phrase, prefix bool, operator, analyzer string) *textQuery {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	q := &textQuery{prefix: prefix, analyzer: analyzer}
	switch {
	case phrase || prefix:
		q.node = &searchNode{op: searchOpPhrase, term: strings.Join(words, " ")}
		q.tsFunc, q.tsText = "phraseto_tsquery", q.node.term
	case operator == operatorAnd:
		q.node = joinTerms(words, searchOpAnd)
		q.tsFunc, q.tsText = "plainto_tsquery", strings.Join(words, " ")
	default:
		q.node = joinTerms(words, searchOpOr)
		q.tsFunc, q.tsText = "websearch_to_tsquery", q.node.toWebsearchQuery()
	}
	return q
}

func joinTerms(words []string, op searchOp) *searchNode {
	node := &searchNode{op: searchOpTerm, term: words[0]}
	for _, w := range words[1:] {
		node = &searchNode{op: op, left: node, right: &searchNode{op: searchOpTerm, term: w}}
	}
	return node
}

// syntaxQuery builds the query of a simple or query clause.
func syntaxQuery(text, operator, analyzer string) *textQuery {
	node := parseSearchExpression(text, operator != operatorAnd)
	if node == nil {
		return nil
	}
	return &textQuery{node: node, tsFunc: "websearch_to_tsquery", tsText: node.toWebsearchQuery(), analyzer: analyzer}
}

// render matches q against columns, all of the same table.
func (b *sqlBuilder) render(q *textQuery, columns []string) (string, []interface{}) {
	if b.dialect != dialectPostgres || q.prefix {
		return q.node.toLikeSQL(columns)
	}

	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = "coalesce(" + c + ", '')"
	}
	document := strings.Join(parts, " || ' ' || ")

	if q.analyzer != "" {
		return "to_tsvector(CAST(? AS regconfig), " + document + ") @@ " + q.tsFunc + "(CAST(? AS regconfig), ?)",
			[]interface{}{q.analyzer, q.analyzer, q.tsText}
	}
	return "to_tsvector(" + document + ") @@ " + q.tsFunc + "(?)", []interface{}{q.tsText}
}

// textSearch renders q over fields. Columns of s itself are searched as one
// document; fields behind navigations are searched in their own EXISTS.
func (b *sqlBuilder) textSearch(s scope, fields []string, q *textQuery, empty string) (string, []interface{}, error) {
	if q == nil {
		return empty, nil, nil
	}

	var direct []string
	var nested []string
	for _, f := range expandTextFields(s.entity, fields) {
		resolved, err := s.entity.ResolvePath(f)
		if err != nil || resolved.Property.IsNavigationProp {
			return "", nil, dsl.NewUnprocessableEntityError(f)
		}
		if len(resolved.Navigations) == 0 {
			direct = append(direct, s.column(resolved.Property.Column))
			continue
		}
		nested = append(nested, f)
	}

	var parts []string
	var args []interface{}
	if len(direct) > 0 {
		sql, a := b.render(q, direct)
		parts = append(parts, sql)
		args = append(args, a...)
	}
	for _, f := range nested {
		sql, a, err := b.onPath(s, f, func(t scope, prop *metadata.PropertyMetadata) (string, []interface{}, error) {
			sql, a := b.render(q, []string{t.column(prop.Column)})
			return sql, a, nil
		})
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, a...)
	}

	switch len(parts) {
	case 0:
		return matchNothing, nil, nil
	case 1:
		return parts[0], args, nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args, nil
}

// expandTextFields strips boosts and expands wildcards and an empty list to
// the string properties of entity.
func expandTextFields(entity *metadata.EntityMetadata, fields []string) []string {
	out := make([]string, 0, len(fields))
	wildcard := len(fields) == 0
	for _, f := range fields {
		name := stripBoost(f)
		if strings.Contains(name, "*") {
			wildcard = true
			continue
		}
		out = append(out, name)
	}
	if wildcard {
		for i := range entity.Properties {
			p := &entity.Properties[i]
			if !p.Hidden && !p.IsNavigationProp && isStringProperty(p) {
				out = append(out, p.Name)
			}
		}
	}
	return out
}

func zeroTermsResult(zeroTerms string) string {
	if zeroTerms == zeroTermsAll {
		return matchAll
	}
	return matchNothing
}

func (b *sqlBuilder) match(m *Match, s scope) (string, []interface{}, error) {
	o := m.Options
	q := termsQuery(m.Text, o.Phrase, o.PhrasePrefix, o.Operator, o.Analyzer)
	return b.textSearch(s, []string{m.Field}, q, zeroTermsResult(o.ZeroTerms))
}

func (b *sqlBuilder) multiMatch(m *MultiMatch, s scope) (string, []interface{}, error) {
	o := m.Options
	q := termsQuery(m.Text, o.Type == MultiMatchPhrase, o.Type == MultiMatchPhrasePrefix, o.Operator, o.Analyzer)
	return b.textSearch(s, m.Fields, q, zeroTermsResult(o.ZeroTerms))
}

func (b *sqlBuilder) simpleQuery(sq *SimpleQuery, s scope) (string, []interface{}, error) {
	o := sq.Options
	return b.textSearch(s, o.Fields, syntaxQuery(sq.Text, o.Operator, o.Analyzer), matchNothing)
}

func (b *sqlBuilder) queryString(qs *QueryString, s scope) (string, []interface{}, error) {
	o := qs.Options
	fields := o.Fields
	if len(fields) == 0 && o.DefaultField != "" {
		fields = []string{o.DefaultField}
	}
	return b.textSearch(s, fields, syntaxQuery(qs.Text, o.Operator, o.Analyzer), matchNothing)
}

func (b *sqlBuilder) commonTerms(c *CommonTerms, s scope) (string, []interface{}, error) {
	q := termsQuery(c.Text, false, false, c.Options.LowFreqOperator, "")
	return b.textSearch(s, c.Fields, q, matchNothing)
}
