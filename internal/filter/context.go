package filter

import (
	"fmt"
	"time"

	"github.com/icode/ameba/internal/metadata"
	"github.com/icode/ameba/internal/params"
)

// QueryContext supplies the collaborators a transformer needs: the entity
// being queried, the expression factory, the bean type registry, sub-query
// validation and date parsing.
type QueryContext interface {
	Factory() ExpressionFactory
	// Entity is the root entity of the query.
	Entity() *metadata.EntityMetadata
	CreateSubQuery(entity *metadata.EntityMetadata) *SubQuery
	BeanTypeByName(name string) (*metadata.EntityMetadata, bool)
	// BeanTypeAtPath resolves the entity a collection path of owner points
	// to. A nil owner means Entity().
	BeanTypeAtPath(owner *metadata.EntityMetadata, path string) (*metadata.EntityMetadata, error)
	ValidateQuery(query *SubQuery) error
	ParseDate(value string) (time.Time, error)
}

// Context is the QueryContext backed by a metadata registry.
type Context struct {
	registry  *metadata.Registry
	entity    *metadata.EntityMetadata
	factory   ExpressionFactory
	parseDate params.DateParser
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithFactory replaces DefaultFactory.
func WithFactory(f ExpressionFactory) ContextOption {
	return func(c *Context) {
		if f != nil {
			c.factory = f
		}
	}
}

// WithDateParser replaces params.ParseDate.
func WithDateParser(p params.DateParser) ContextOption {
	return func(c *Context) {
		if p != nil {
			c.parseDate = p
		}
	}
}

// NewContext creates a context for queries over entity. registry may be nil,
// in which case select cannot resolve any bean type.
func NewContext(registry *metadata.Registry, entity *metadata.EntityMetadata, opts ...ContextOption) *Context {
	c := &Context{
		registry:  registry,
		entity:    entity,
		factory:   DefaultFactory{},
		parseDate: params.ParseDate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Factory() ExpressionFactory { return c.factory }

func (c *Context) Entity() *metadata.EntityMetadata { return c.entity }

func (c *Context) CreateSubQuery(entity *metadata.EntityMetadata) *SubQuery {
	return &SubQuery{Entity: entity}
}

func (c *Context) BeanTypeByName(name string) (*metadata.EntityMetadata, bool) {
	if c.registry == nil || name == "" {
		return nil, false
	}
	return c.registry.Lookup(name)
}

func (c *Context) BeanTypeAtPath(owner *metadata.EntityMetadata, path string) (*metadata.EntityMetadata, error) {
	if owner == nil {
		owner = c.entity
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: %s", metadata.ErrPropertyNotFound, path)
	}
	resolved, err := owner.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	if !resolved.Property.IsNavigationProp {
		return nil, fmt.Errorf("%w: %s", metadata.ErrNotNavigation, path)
	}
	return resolved.Property.Target, nil
}

// ValidateQuery rejects sub-queries referencing unknown properties.
func (c *Context) ValidateQuery(query *SubQuery) error {
	return validateSubQuery(query)
}

func (c *Context) ParseDate(value string) (time.Time, error) {
	return c.parseDate(value)
}
