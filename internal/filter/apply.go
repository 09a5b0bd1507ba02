package filter

import (
	"fmt"

	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/i18n"
	"github.com/icode/ameba/internal/metadata"
	"gorm.io/gorm"
)

// Invoker evaluates parsed calls into expressions.
type Invoker = dsl.Invoker[Expression, QueryContext]

// Transformer is a link of the transformer chain.
type Transformer = dsl.Transformer[Expression, QueryContext]

// NewInvoker returns a chain trying extra first, then CommonTransformer and
// OptionTransformer.
func NewInvoker(extra ...Transformer) *Invoker {
	chain := make([]Transformer, 0, len(extra)+2)
	chain = append(chain, extra...)
	chain = append(chain, CommonTransformer{}, OptionTransformer{})
	return dsl.NewInvoker[Expression, QueryContext](chain...)
}

// Transform evaluates calls against ctx. Every top level call must produce
// an expression.
func Transform(inv *Invoker, calls []*dsl.CallNode, ctx QueryContext) ([]Expression, error) {
	values, err := inv.InvokeAll(calls, ctx)
	if err != nil {
		return nil, err
	}
	exprs := make([]Expression, 0, len(values))
	for i, v := range values {
		if !v.IsExpr() {
			return nil, dsl.NewSyntaxError(i18n.KeyUnsupportedExpr, calls[i].String())
		}
		exprs = append(exprs, mustExpr(v))
	}
	return exprs, nil
}

// Compile parses input, transforms it against ctx and validates the
// properties it references against ctx.Entity(). A nil parser selects the
// shared default parser.
func Compile(parser *dsl.Parser, inv *Invoker, input string, ctx QueryContext) ([]Expression, error) {
	if parser == nil {
		parser = dsl.Default()
	}
	calls, err := parser.Parse(input)
	if err != nil {
		return nil, err
	}
	exprs, err := Transform(inv, calls, ctx)
	if err != nil {
		return nil, err
	}
	if err := Validate(ctx.Entity(), exprs); err != nil {
		return nil, err
	}
	return exprs, nil
}

// Apply adds exprs to db. Conditions go to WHERE, having groups by the
// primary key, distinct marks the query distinct. Option, field list and
// bare sub-query expressions cannot stand at the top level.
func Apply(db *gorm.DB, entity *metadata.EntityMetadata, exprs []Expression) (*gorm.DB, error) {
	if entity == nil {
		return nil, fmt.Errorf("apply filter: entity metadata is nil")
	}
	logger := loggerFromDB(db)
	b := newSQLBuilder(getDatabaseDialect(db))
	root := rootScope(entity)

	grouped := false
	for _, e := range exprs {
		switch x := e.(type) {
		case *DistinctExpression:
			if !x.Distinct {
				continue
			}
			// GORM drops DISTINCT from a bare SELECT *.
			if len(db.Statement.Selects) == 0 {
				db = db.Distinct(root.ref + ".*")
			} else {
				db = db.Distinct()
			}
		case *HavingExpression:
			if !grouped {
				for _, col := range entity.KeyColumns() {
					db = db.Group(root.column(col))
				}
				grouped = true
			}
			sql, args, err := b.conjunction(x.Children, root, "AND")
			if err != nil {
				return nil, err
			}
			db = db.Having(sql, args...)
		case *TextOptions, *TextFields, *MapExpression, *QueryExpression:
			return nil, dsl.NewSyntaxError(i18n.KeyUnsupportedExpr, exprName(e))
		default:
			sql, args, err := b.build(e, root)
			if err != nil {
				return nil, err
			}
			db = db.Where(sql, args...)
		}
	}

	logger.Debug("Applied filter expressions", "entity", entity.EntityName, "count", len(exprs))
	return db, nil
}
