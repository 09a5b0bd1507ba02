package filter

import (
	"strings"

	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/metadata"
)

// Validate reports every property referenced by exprs that entity does not
// expose, as an *dsl.UnprocessableEntityError.
func Validate(entity *metadata.EntityMetadata, exprs []Expression) error {
	if unknown := collectUnknown(entity, exprs, nil); len(unknown) > 0 {
		return dsl.NewUnprocessableEntityError(unknown...)
	}
	return nil
}

func validateSubQuery(q *SubQuery) error {
	if q == nil || q.Entity == nil {
		return nil
	}
	var unknown []string
	for _, prop := range q.Select {
		unknown = checkPath(q.Entity, prop, unknown)
	}
	unknown = collectUnknown(q.Entity, q.Where, unknown)
	unknown = collectUnknown(q.Entity, q.Having, unknown)
	if len(unknown) > 0 {
		return dsl.NewUnprocessableEntityError(unknown...)
	}
	return nil
}

func collectUnknown(entity *metadata.EntityMetadata, exprs []Expression, unknown []string) []string {
	for _, e := range exprs {
		unknown = collectUnknownIn(entity, e, unknown)
	}
	return unknown
}

func collectUnknownIn(entity *metadata.EntityMetadata, e Expression, unknown []string) []string {
	switch x := e.(type) {
	case *Predicate:
		if x.Field != "" {
			unknown = checkPath(entity, x.Field, unknown)
		}
	case *SubQueryPredicate:
		if x.Field != "" && x.Op != OpExists && x.Op != OpNotExists {
			unknown = checkPath(entity, x.Field, unknown)
		}
	case *Junction:
		unknown = collectUnknown(entity, x.Children, unknown)
	case *HavingExpression:
		unknown = collectUnknown(entity, x.Children, unknown)
	case *TextExpression:
		unknown = collectUnknown(entity, x.Children, unknown)
	case *FilterExpression:
		resolved, err := entity.ResolvePath(x.Path)
		if err != nil || !resolved.Property.IsNavigationProp {
			return append(unknown, x.Path)
		}
		unknown = collectUnknown(resolved.Property.Target, x.Children, unknown)
	case *Match:
		unknown = checkTextFields(entity, []string{x.Field}, unknown)
	case *MultiMatch:
		unknown = checkTextFields(entity, x.Fields, unknown)
	case *SimpleQuery:
		unknown = checkTextFields(entity, x.Options.Fields, unknown)
	case *QueryString:
		unknown = checkTextFields(entity, x.Options.Fields, unknown)
		if x.Options.DefaultField != "" {
			unknown = checkTextFields(entity, []string{x.Options.DefaultField}, unknown)
		}
	case *CommonTerms:
		unknown = checkTextFields(entity, x.Fields, unknown)
	}
	return unknown
}

func checkPath(entity *metadata.EntityMetadata, path string, unknown []string) []string {
	if entity == nil {
		return append(unknown, path)
	}
	if _, err := entity.ResolvePath(path); err != nil {
		return append(unknown, path)
	}
	return unknown
}

// checkTextFields skips wildcard patterns and ignores "^boost" suffixes.
func checkTextFields(entity *metadata.EntityMetadata, fields []string, unknown []string) []string {
	for _, f := range fields {
		name := stripBoost(f)
		if strings.Contains(name, "*") {
			continue
		}
		unknown = checkPath(entity, name, unknown)
	}
	return unknown
}

func stripBoost(field string) string {
	if i := strings.IndexByte(field, '^'); i >= 0 {
		return field[:i]
	}
	return field
}
