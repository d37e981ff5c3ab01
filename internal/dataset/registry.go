package dataset

import (
	"fmt"
	"sync"
)

// Info describes a registered dataset for listings.
type Info struct {
	Name   string `json:"name"`
	Driver string `json:"driver"`
}

// Registry holds the datasets the server can answer questions about. The
// first registered dataset is the default conversation target.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*DB
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*DB)}
}

// Register adds a dataset under its name. Re-registering a name is an error.
func (r *Registry) Register(db *DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[db.Name()]; exists {
		return fmt.Errorf("dataset %q already registered", db.Name())
	}
	r.items[db.Name()] = db
	r.order = append(r.order, db.Name())
	return nil
}

// Get looks up a dataset by name.
func (r *Registry) Get(name string) (*DB, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	db, ok := r.items[name]
	return db, ok
}

// Default returns the first registered dataset, or nil when empty.
func (r *Registry) Default() *DB {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil
	}
	return r.items[r.order[0]]
}

// List returns dataset descriptions in registration order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, Info{Name: name, Driver: r.items[name].Driver()})
	}
	return infos
}

// CloseAll closes every registered dataset, returning the first error.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for _, name := range r.order {
		if err := r.items[name].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
