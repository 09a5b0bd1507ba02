package metadata

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gorm.io/gorm/schema"
)

var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrNotNavigation    = errors.New("property is not a navigation property")
)

// EntityMetadata describes a queryable entity (a bean type)
type EntityMetadata struct {
	EntityType    reflect.Type
	EntityName    string
	EntitySetName string
	TableName     string
	Properties    []PropertyMetadata
	KeyProperties []PropertyMetadata
}

// JoinColumn pairs a column of the near side of a relationship with a column
// of the far side. When Value is set the far column is compared to that
// constant instead (polymorphic type columns).
type JoinColumn struct {
	Local  string
	Remote string
	Value  string
}

// PropertyMetadata holds metadata information about an entity property
type PropertyMetadata struct {
	Name     string
	JsonName string
	Column   string
	Type     reflect.Type
	IsKey    bool
	// Hidden properties exist on the model but may not be referenced by queries.
	Hidden bool

	IsNavigationProp  bool
	NavigationIsArray bool
	NavigationTarget  string
	Target            *EntityMetadata
	Relationship      schema.RelationshipType
	// JoinColumns links the owner (Local) to the target, or to JoinTable for
	// many-to-many relationships.
	JoinColumns []JoinColumn
	JoinTable   string
	// TargetColumns links the target (Local) to JoinTable (Remote).
	TargetColumns []JoinColumn
}

// Analyzer builds entity metadata from GORM schemas. Metadata of related
// entities is built on the way, so navigation targets are always populated.
type Analyzer struct {
	namer  schema.Namer
	cache  *sync.Map
	mu     sync.Mutex
	byType map[reflect.Type]*EntityMetadata
}

// NewAnalyzer creates an analyzer. A nil namer selects GORM's default naming strategy.
func NewAnalyzer(namer schema.Namer) *Analyzer {
	if namer == nil {
		namer = schema.NamingStrategy{}
	}
	return &Analyzer{
		namer:  namer,
		cache:  &sync.Map{},
		byType: make(map[reflect.Type]*EntityMetadata),
	}
}

var defaultAnalyzer = NewAnalyzer(nil)

// AnalyzeEntity extracts metadata from a GORM model with the default naming strategy
func AnalyzeEntity(entity interface{}) (*EntityMetadata, error) {
	return defaultAnalyzer.Analyze(entity)
}

// Analyze extracts metadata from a GORM model
func (a *Analyzer) Analyze(entity interface{}) (*EntityMetadata, error) {
	if entity == nil {
		return nil, fmt.Errorf("entity must be a struct, got nil")
	}
	s, err := schema.Parse(entity, a.cache, a.namer)
	if err != nil {
		return nil, fmt.Errorf("parse schema of %T: %w", entity, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	meta := a.fromSchema(s)
	if len(meta.KeyProperties) == 0 {
		return nil, fmt.Errorf("entity %s must have at least one primary key field", meta.EntityName)
	}
	return meta, nil
}

// fromSchema converts s, reusing metadata already built for its type.
// Callers hold a.mu.
func (a *Analyzer) fromSchema(s *schema.Schema) *EntityMetadata {
	if meta, ok := a.byType[s.ModelType]; ok {
		return meta
	}

	meta := &EntityMetadata{
		EntityType:    s.ModelType,
		EntityName:    s.Name,
		EntitySetName: pluralize(s.Name),
		TableName:     s.Table,
		Properties:    make([]PropertyMetadata, 0, len(s.Fields)),
	}
	// Registered before relationships are followed so that cycles terminate.
	a.byType[s.ModelType] = meta

	for _, field := range s.Fields {
		if rel, ok := s.Relationships.Relations[field.Name]; ok {
			if prop, ok := a.navigationProperty(field, rel); ok {
				meta.Properties = append(meta.Properties, prop)
			}
			continue
		}
		if field.DBName == "" || !field.Readable {
			continue
		}
		prop := PropertyMetadata{
			Name:     field.Name,
			JsonName: getJsonName(field.StructField),
			Column:   field.DBName,
			Type:     field.FieldType,
			IsKey:    field.PrimaryKey,
			Hidden:   isHidden(field.StructField),
		}
		meta.Properties = append(meta.Properties, prop)
		if prop.IsKey {
			meta.KeyProperties = append(meta.KeyProperties, prop)
		}
	}
	return meta
}

// navigationProperty describes a relationship field. Relationships whose join
// columns cannot be expressed are left out.
func (a *Analyzer) navigationProperty(field *schema.Field, rel *schema.Relationship) (PropertyMetadata, bool) {
	if rel.FieldSchema == nil {
		return PropertyMetadata{}, false
	}

	prop := PropertyMetadata{
		Name:              field.Name,
		JsonName:          getJsonName(field.StructField),
		Type:              field.FieldType,
		Hidden:            isHidden(field.StructField),
		IsNavigationProp:  true,
		NavigationIsArray: field.IndirectFieldType.Kind() == reflect.Slice,
		NavigationTarget:  rel.FieldSchema.Name,
		Relationship:      rel.Type,
	}

	for _, ref := range rel.References {
		switch {
		case rel.Type == schema.Many2Many && rel.JoinTable != nil:
			prop.JoinTable = rel.JoinTable.Table
			if ref.OwnPrimaryKey {
				prop.JoinColumns = append(prop.JoinColumns, JoinColumn{Local: ref.PrimaryKey.DBName, Remote: ref.ForeignKey.DBName})
			} else {
				prop.TargetColumns = append(prop.TargetColumns, JoinColumn{Local: ref.PrimaryKey.DBName, Remote: ref.ForeignKey.DBName})
			}
		case ref.PrimaryKey == nil:
			prop.JoinColumns = append(prop.JoinColumns, JoinColumn{Remote: ref.ForeignKey.DBName, Value: ref.PrimaryValue})
		case ref.OwnPrimaryKey:
			prop.JoinColumns = append(prop.JoinColumns, JoinColumn{Local: ref.PrimaryKey.DBName, Remote: ref.ForeignKey.DBName})
		default:
			prop.JoinColumns = append(prop.JoinColumns, JoinColumn{Local: ref.ForeignKey.DBName, Remote: ref.PrimaryKey.DBName})
		}
	}
	if len(prop.JoinColumns) == 0 {
		return PropertyMetadata{}, false
	}

	prop.Target = a.fromSchema(rel.FieldSchema)
	return prop, true
}

// FindProperty looks a property up by JSON name, Go field name or column,
// preferring exact matches over case-insensitive ones.
func (m *EntityMetadata) FindProperty(name string) (*PropertyMetadata, bool) {
	for i := range m.Properties {
		p := &m.Properties[i]
		if p.JsonName == name || p.Name == name || (p.Column != "" && p.Column == name) {
			return p, true
		}
	}
	for i := range m.Properties {
		p := &m.Properties[i]
		if strings.EqualFold(p.JsonName, name) || strings.EqualFold(p.Name, name) ||
			(p.Column != "" && strings.EqualFold(p.Column, name)) {
			return p, true
		}
	}
	return nil, false
}

// ResolvedPath is a dotted property path resolved against an entity.
type ResolvedPath struct {
	// Navigations are the navigation properties walked before Property, in order.
	Navigations []*PropertyMetadata
	// Property is the last segment. It may itself be a navigation property.
	Property *PropertyMetadata
	// Owner is the entity declaring Property.
	Owner *EntityMetadata
}

// ResolvePath resolves a dotted path such as "customer.address.city".
// Hidden properties are treated as missing.
func (m *EntityMetadata) ResolvePath(path string) (*ResolvedPath, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrPropertyNotFound)
	}

	segments := strings.Split(path, ".")
	resolved := &ResolvedPath{Owner: m}
	for i, segment := range segments {
		prop, ok := resolved.Owner.FindProperty(segment)
		if !ok || prop.Hidden {
			return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, path)
		}
		if i == len(segments)-1 {
			resolved.Property = prop
			break
		}
		if !prop.IsNavigationProp {
			return nil, fmt.Errorf("%w: %s", ErrNotNavigation, strings.Join(segments[:i+1], "."))
		}
		resolved.Navigations = append(resolved.Navigations, prop)
		resolved.Owner = prop.Target
	}
	return resolved, nil
}

// KeyColumns returns the columns of the primary key
func (m *EntityMetadata) KeyColumns() []string {
	cols := make([]string, len(m.KeyProperties))
	for i, k := range m.KeyProperties {
		cols[i] = k.Column
	}
	return cols
}

// isHidden reports whether a field is excluded from queries with
// `ameba:"-"` or `json:"-"`.
func isHidden(field reflect.StructField) bool {
	if tag := field.Tag.Get("ameba"); tag != "" {
		for _, part := range strings.Split(tag, ",") {
			if strings.TrimSpace(part) == "-" {
				return true
			}
		}
	}
	return field.Tag.Get("json") == "-"
}

// getJsonName extracts the JSON field name from struct tags
func getJsonName(field reflect.StructField) string {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" || jsonTag == "-" {
		return field.Name
	}

	// Handle json:",omitempty" or json:"fieldname,omitempty"
	parts := strings.Split(jsonTag, ",")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}

	return field.Name
}

// pluralize creates a simple pluralized form of the entity name
func pluralize(word string) string {
	if word == "" {
		return word
	}

	switch {
	case strings.HasSuffix(word, "y") && len(word) > 1 && !isVowel(rune(word[len(word)-2])):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(word, "s") || strings.HasSuffix(word, "x") || strings.HasSuffix(word, "z") ||
		strings.HasSuffix(word, "ch") || strings.HasSuffix(word, "sh"):
		return word + "es"
	default:
		return word + "s"
	}
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return true
	default:
		return false
	}
}
