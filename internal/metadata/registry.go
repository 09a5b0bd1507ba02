package metadata

import (
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm/schema"
)

// Registry indexes entities by entity name, entity set name and table name,
// all case-insensitive. Entities reachable through navigation properties of a
// registered entity are indexed too unless their names are already taken.
type Registry struct {
	analyzer *Analyzer

	mu       sync.RWMutex
	entities []*EntityMetadata
	byName   map[string]*EntityMetadata
}

// NewRegistry creates a registry whose analyzer uses namer.
func NewRegistry(namer schema.Namer) *Registry {
	return &Registry{
		analyzer: NewAnalyzer(namer),
		byName:   make(map[string]*EntityMetadata),
	}
}

// Register analyzes model and indexes it. Explicit registrations replace
// names previously taken by entities reached through navigation.
func (r *Registry) Register(model interface{}) (*EntityMetadata, error) {
	meta, err := r.analyzer.Analyze(model)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entities {
		if existing == meta {
			return nil, fmt.Errorf("entity %s is already registered", meta.EntityName)
		}
	}
	r.entities = append(r.entities, meta)
	r.index(meta, true)
	r.indexTargets(meta, map[*EntityMetadata]bool{meta: true})
	return meta, nil
}

func (r *Registry) index(meta *EntityMetadata, override bool) {
	for _, name := range []string{meta.EntityName, meta.EntitySetName, meta.TableName} {
		key := strings.ToLower(name)
		if key == "" {
			continue
		}
		if _, taken := r.byName[key]; taken && !override {
			continue
		}
		r.byName[key] = meta
	}
}

func (r *Registry) indexTargets(meta *EntityMetadata, seen map[*EntityMetadata]bool) {
	for i := range meta.Properties {
		target := meta.Properties[i].Target
		if target == nil || seen[target] {
			continue
		}
		seen[target] = true
		r.index(target, false)
		r.indexTargets(target, seen)
	}
}

// Lookup finds an entity by name. A qualified name such as "app.models.User"
// falls back to its last segment.
func (r *Registry) Lookup(name string) (*EntityMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if meta, ok := r.byName[key]; ok {
		return meta, true
	}
	if idx := strings.LastIndex(key, "."); idx >= 0 {
		meta, ok := r.byName[key[idx+1:]]
		return meta, ok
	}
	return nil, false
}

// Entities returns the explicitly registered entities in registration order.
func (r *Registry) Entities() []*EntityMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*EntityMetadata, len(r.entities))
	copy(out, r.entities)
	return out
}
