package node

import (
	"sort"
	"sync"
)

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Registry maps node type ids to definitions. It is built once at startup
// and passed to the executor as a dependency; after that it only serves
// reads. The RWMutex exists so tests and future hot-reload admin paths stay
// safe without the executor caring.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]*Definition
	logger Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger Logger) *Registry {
	return &Registry{
		defs:   make(map[string]*Definition),
		logger: logger,
	}
}

// Register adds a definition. Re-registering an existing id overwrites the
// previous definition and logs a warning.
func (r *Registry) Register(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.ID]; exists && r.logger != nil {
		r.logger.Warn("node type re-registered, overwriting", "node_type", def.ID)
	}
	r.defs[def.ID] = def
}

// Get returns the definition for a node type id, or nil if unregistered.
func (r *Registry) Get(id string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defs[id]
}

// Has reports whether a node type id is registered. This satisfies
// dsl.TypeChecker so the registry can back workflow validation directly.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[id]
	return ok
}

// GetAll returns every definition sorted by id.
func (r *Registry) GetAll() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetByCategory returns definitions whose display category matches, sorted
// by id.
func (r *Registry) GetByCategory(category string) []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Definition
	for _, def := range r.defs {
		if def.Display.Category == category {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetByTag returns definitions carrying the given display tag, sorted by id.
func (r *Registry) GetByTag(tag string) []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Definition
	for _, def := range r.defs {
		for _, t := range def.Display.Tags {
			if t == tag {
				out = append(out, def)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Unregister removes a node type id. Removing an unknown id is a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, id)
}

// Clear removes every registered definition.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = make(map[string]*Definition)
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Catalog produces the editor projection of every definition, sorted by id.
func (r *Registry) Catalog() []CatalogEntry {
	defs := r.GetAll()
	out := make([]CatalogEntry, 0, len(defs))
	for _, def := range defs {
		out = append(out, CatalogEntry{
			ID:          def.ID,
			DisplayName: def.DisplayName,
			Description: def.Description,
			Category:    def.Display.Category,
			Icon:        def.Display.Icon,
			Color:       def.Display.Color,
			Tags:        def.Display.Tags,
			InputCount:  len(def.Inputs),
			OutputCount: len(def.Outputs),
		})
	}
	return out
}
