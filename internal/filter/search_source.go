package filter

import (
	"fmt"

	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/i18n"
	"github.com/icode/ameba/internal/response"
)

func newObject(key string, value interface{}) *response.OrderedMap {
	return response.NewOrderedMap().Set(key, value)
}

// SearchSource renders top level expressions as an Elasticsearch search
// body: {"query": {"bool": {"must": [...]}}}. Distinct maps to nothing,
// sub-queries and having clauses have no search counterpart.
func SearchSource(exprs []Expression) (*response.OrderedMap, error) {
	must := make([]interface{}, 0, len(exprs))
	for _, e := range exprs {
		if _, ok := e.(*DistinctExpression); ok {
			continue
		}
		clause, err := searchClause(e)
		if err != nil {
			return nil, err
		}
		must = append(must, clause)
	}
	return newObject("query", newObject("bool", newObject("must", must))), nil
}

func searchClauses(exprs []Expression) ([]interface{}, error) {
	out := make([]interface{}, 0, len(exprs))
	for _, e := range exprs {
		c, err := searchClause(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func boolQuery(occur string, exprs []Expression) (*response.OrderedMap, error) {
	clauses, err := searchClauses(exprs)
	if err != nil {
		return nil, err
	}
	b := newObject(occur, clauses)
	if occur == "should" {
		b.Set("minimum_should_match", 1)
	}
	return newObject("bool", b), nil
}

func mustNot(clause interface{}) *response.OrderedMap {
	return newObject("bool", newObject("must_not", []interface{}{clause}))
}

func searchClause(e Expression) (interface{}, error) {
	switch x := e.(type) {
	case *Predicate:
		return searchPredicate(x)
	case *Junction:
		switch x.Type {
		case JunctionAnd, JunctionMust:
			return boolQuery("must", x.Children)
		case JunctionOr, JunctionShould:
			return boolQuery("should", x.Children)
		case JunctionMustNot:
			return boolQuery("must_not", x.Children)
		case JunctionNot:
			inner, err := boolQuery("must", x.Children)
			if err != nil {
				return nil, err
			}
			return mustNot(inner), nil
		}
	case *TextExpression:
		return boolQuery("must", x.Children)
	case *FilterExpression:
		inner, err := boolQuery("must", x.Children)
		if err != nil {
			return nil, err
		}
		return newObject("nested", response.NewOrderedMap().Set("path", x.Path).Set("query", inner)), nil
	case *Match:
		return searchMatch(x), nil
	case *MultiMatch:
		return searchMultiMatch(x), nil
	case *SimpleQuery:
		return searchSimple(x), nil
	case *QueryString:
		return searchQueryString(x), nil
	case *CommonTerms:
		return searchCommonTerms(x)
	}
	return nil, dsl.NewSyntaxError(i18n.KeyUnsupportedExpr, exprName(e))
}

func searchPredicate(p *Predicate) (interface{}, error) {
	first := func() interface{} {
		if len(p.Values) == 0 {
			return nil
		}
		return p.Values[0]
	}
	field := p.Field

	switch p.Op {
	case OpEq:
		if first() == nil {
			return mustNot(newObject("exists", newObject("field", field))), nil
		}
		return newObject("term", newObject(field, first())), nil
	case OpNe:
		if first() == nil {
			return newObject("exists", newObject("field", field)), nil
		}
		return mustNot(newObject("term", newObject(field, first()))), nil
	case OpIEq:
		return newObject("term", newObject(field, response.NewOrderedMap().
			Set("value", first()).Set("case_insensitive", true))), nil
	case OpGt, OpGe, OpLt, OpLe:
		return newObject("range", newObject(field, newObject(rangeKeys[p.Op], first()))), nil
	case OpBetween:
		return newObject("range", newObject(field, response.NewOrderedMap().
			Set("gte", p.Values[0]).Set("lte", p.Values[1]))), nil
	case OpIsNull, OpEmpty:
		return mustNot(newObject("exists", newObject("field", field))), nil
	case OpNotNull, OpNotEmpty:
		return newObject("exists", newObject("field", field)), nil
	case OpStartsWith, OpIStartsWith:
		return newObject("prefix", newObject(field, textValue(first(), p.Op == OpIStartsWith))), nil
	case OpEndsWith, OpIEndsWith:
		return newObject("wildcard", newObject(field, textValue("*"+wildcardEscape(first()), p.Op == OpIEndsWith))), nil
	case OpContains, OpIContains:
		return newObject("wildcard", newObject(field, textValue("*"+wildcardEscape(first())+"*", p.Op == OpIContains))), nil
	case OpID:
		return newObject("ids", newObject("values", []interface{}{first()})), nil
	case OpIDIn:
		return newObject("ids", newObject("values", p.Values)), nil
	case OpIn:
		return newObject("terms", newObject(field, p.Values)), nil
	case OpNotIn:
		return mustNot(newObject("terms", newObject(field, p.Values))), nil
	}
	return nil, dsl.NewSyntaxError(i18n.KeyUnsupportedExpr, p.String())
}

var rangeKeys = map[Operator]string{
	OpGt: "gt",
	OpGe: "gte",
	OpLt: "lt",
	OpLe: "lte",
}

func textValue(v interface{}, caseInsensitive bool) *response.OrderedMap {
	m := newObject("value", v)
	if caseInsensitive {
		m.Set("case_insensitive", true)
	}
	return m
}

func wildcardEscape(v interface{}) string {
	s := fmt.Sprint(v)
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '*' || r == '?' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

func setString(m *response.OrderedMap, key, value string) {
	if value != "" {
		m.Set(key, value)
	}
}

func setFloat(m *response.OrderedMap, key string, value *float64) {
	if value != nil {
		m.Set(key, *value)
	}
}

func setInt(m *response.OrderedMap, key string, value *int) {
	if value != nil {
		m.Set(key, *value)
	}
}

func setBool(m *response.OrderedMap, key string, value *bool) {
	if value != nil {
		m.Set(key, *value)
	}
}

func searchMatch(m *Match) *response.OrderedMap {
	o := m.Options
	kind := "match"
	switch {
	case o.PhrasePrefix:
		kind = "match_phrase_prefix"
	case o.Phrase:
		kind = "match_phrase"
	}
	body := newObject("query", m.Text)
	setString(body, "operator", o.Operator)
	setString(body, "zero_terms_query", o.ZeroTerms)
	setFloat(body, "cutoff_frequency", o.Cutoff)
	setInt(body, "max_expansions", o.MaxExpansions)
	setString(body, "analyzer", o.Analyzer)
	setFloat(body, "boost", o.Boost)
	setString(body, "minimum_should_match", o.MinShouldMatch)
	setString(body, "fuzzy_rewrite", o.Rewrite)
	return newObject(kind, newObject(m.Field, body))
}

func searchMultiMatch(m *MultiMatch) *response.OrderedMap {
	o := m.Options
	body := response.NewOrderedMap().Set("query", m.Text).Set("fields", m.Fields)
	setString(body, "type", string(o.Type))
	setFloat(body, "tie_breaker", o.TieBreaker)
	setString(body, "operator", o.Operator)
	setString(body, "zero_terms_query", o.ZeroTerms)
	setFloat(body, "cutoff_frequency", o.Cutoff)
	setInt(body, "max_expansions", o.MaxExpansions)
	setString(body, "analyzer", o.Analyzer)
	setFloat(body, "boost", o.Boost)
	setString(body, "minimum_should_match", o.MinShouldMatch)
	setString(body, "fuzzy_rewrite", o.Rewrite)
	return newObject("multi_match", body)
}

func searchSimple(s *SimpleQuery) *response.OrderedMap {
	o := s.Options
	body := newObject("query", s.Text)
	if len(o.Fields) > 0 {
		body.Set("fields", o.Fields)
	}
	setString(body, "default_operator", o.Operator)
	setString(body, "analyzer", o.Analyzer)
	setString(body, "flags", o.Flags)
	setBool(body, "lowercase_expanded_terms", o.LowercaseExpanded)
	setBool(body, "analyze_wildcard", o.AnalyzeWildcard)
	setString(body, "locale", o.Locale)
	setBool(body, "lenient", o.Lenient)
	setString(body, "minimum_should_match", o.MinShouldMatch)
	return newObject("simple_query_string", body)
}

func searchQueryString(q *QueryString) *response.OrderedMap {
	o := q.Options
	body := newObject("query", q.Text)
	if len(o.Fields) > 0 {
		body.Set("fields", o.Fields)
	}
	setString(body, "default_operator", o.Operator)
	setString(body, "locale", o.Locale)
	setBool(body, "lenient", o.Lenient)
	setString(body, "minimum_should_match", o.MinShouldMatch)
	setString(body, "analyzer", o.Analyzer)
	setBool(body, "use_dis_max", o.UseDisMax)
	setFloat(body, "tie_breaker", o.TieBreaker)
	setString(body, "default_field", o.DefaultField)
	setBool(body, "allow_leading_wildcard", o.AllowLeadingWildcard)
	setBool(body, "lowercase_expanded_terms", o.LowercaseExpanded)
	setInt(body, "fuzzy_max_expansions", o.FuzzyMaxExpansions)
	setString(body, "fuzziness", o.Fuzziness)
	setInt(body, "fuzzy_prefix_length", o.FuzzyPrefixLength)
	setInt(body, "phrase_slop", o.PhraseSlop)
	setFloat(body, "boost", o.Boost)
	setBool(body, "analyze_wildcard", o.AnalyzeWildcard)
	setBool(body, "auto_generate_phrase_queries", o.AutoGeneratePhraseQueries)
	setString(body, "time_zone", o.TimeZone)
	setString(body, "rewrite", o.Rewrite)
	return newObject("query_string", body)
}

// searchCommonTerms renders one common clause per field, combined with
// should when there are several.
func searchCommonTerms(c *CommonTerms) (interface{}, error) {
	o := c.Options
	clauses := make([]interface{}, 0, len(c.Fields))
	for _, f := range c.Fields {
		body := newObject("query", c.Text)
		setFloat(body, "cutoff_frequency", o.Cutoff)
		setString(body, "low_freq_operator", o.LowFreqOperator)
		setString(body, "high_freq_operator", o.HighFreqOperator)
		if o.MinShouldMatchLowFreq != "" || o.MinShouldMatchHighFreq != "" {
			msm := response.NewOrderedMap()
			setString(msm, "low_freq", o.MinShouldMatchLowFreq)
			setString(msm, "high_freq", o.MinShouldMatchHighFreq)
			body.Set("minimum_should_match", msm)
		} else {
			setString(body, "minimum_should_match", o.MinShouldMatch)
		}
		clauses = append(clauses, newObject("common", newObject(f, body)))
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return newObject("bool", response.NewOrderedMap().Set("should", clauses).Set("minimum_should_match", 1)), nil
}
