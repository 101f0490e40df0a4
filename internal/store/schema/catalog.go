package schema

import (
	"fmt"
	"sync"
)

// Catalog resolves table descriptors and relationship lookups for the
// DAO layer.
type Catalog interface {
	// Table returns the descriptor registered under the given table name.
	Table(name string) (*TableDescriptor, error)

	// RelationshipsBetween returns the child table's foreign keys that
	// reference the parent table. Callers needing the "exactly one
	// relationship" guarantee check the length themselves.
	RelationshipsBetween(child, parent string) ([]ForeignKey, error)
}

// Registry is an in-memory Catalog. Descriptors are registered at boot
// (or when a schema is created at runtime) and are immutable afterwards.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*TableDescriptor
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*TableDescriptor)}
}

func (r *Registry) Register(desc *TableDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[desc.Name]; ok {
		return fmt.Errorf("table %s already registered", desc.Name)
	}
	r.tables[desc.Name] = desc
	return nil
}

func (r *Registry) Table(name string) (*TableDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %s is not registered", name)
	}
	return desc, nil
}

func (r *Registry) RelationshipsBetween(child, parent string) ([]ForeignKey, error) {
	desc, err := r.Table(child)
	if err != nil {
		return nil, err
	}
	if _, err := r.Table(parent); err != nil {
		return nil, err
	}
	return desc.ForeignKeysTo(parent), nil
}

// Tables returns all registered descriptors.
func (r *Registry) Tables() []*TableDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TableDescriptor, 0, len(r.tables))
	for _, desc := range r.tables {
		out = append(out, desc)
	}
	return out
}
