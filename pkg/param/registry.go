package param

import (
	"sync"
)

// Registry manages a processor's parameter space, indexed both by id and
// by name — the name index backs the control API's
// parameter_id_from_name / parameter_name_from_id round trip (§8).
type Registry struct {
	params  map[uint32]*Parameter
	byName  map[string]uint32
	order   []uint32 // Maintain order for indexed access
	mu      sync.RWMutex
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
		byName: make(map[string]uint32),
		order:  make([]uint32, 0),
	}
}

// Add registers a new parameter
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			continue // Skip duplicates
		}
		r.params[p.ID] = p
		r.byName[p.Name] = p.ID
		r.order = append(r.order, p.ID)
	}

	return nil
}

// GetByName retrieves a parameter by its (processor-unique) name.
func (r *Registry) GetByName(name string) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return nil
	}
	return r.params[id]
}

// IDFromName returns the id of the parameter named name, and whether it
// was found — the control API's parameter_id_from_name.
func (r *Registry) IDFromName(name string) (uint32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	return id, ok
}

// NameFromID returns the name of the parameter with the given id, and
// whether it was found — the control API's parameter_name_from_id.
func (r *Registry) NameFromID(id uint32) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.params[id]
	if !ok {
		return "", false
	}
	return p.Name, true
}

// Get retrieves a parameter by ID
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// GetByIndex retrieves a parameter by index
func (r *Registry) GetByIndex(index int32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= int32(len(r.order)) {
		return nil
	}

	id := r.order[index]
	return r.params[id]
}

// Count returns the number of parameters
func (r *Registry) Count() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int32(len(r.order))
}

// All returns all parameters in order
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}

	return result
}
