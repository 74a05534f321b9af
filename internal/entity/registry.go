package entity

import (
	"fmt"
	"sync"
)

// Registry maps entity names to their declarations
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	order    []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Register validates and adds an entity
func (r *Registry) Register(e *Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entities[e.Name]; exists {
		return fmt.Errorf("entity %s already registered", e.Name)
	}
	r.entities[e.Name] = e
	r.order = append(r.order, e.Name)
	return nil
}

// Get returns the entity named name
func (r *Registry) Get(name string) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[name]
	return e, ok
}

// Names lists entities in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
