// Package speakers assigns stable integer ids to speaker names.
//
// Ids are handed out in order of first appearance, starting at 0. The final
// mapping is persisted into the voice config, so it must be reproducible:
// registration has to follow the single sequential corpus read order even
// when downstream preprocessing fans out to workers. Registry serializes all
// access; the corpus loader is the one caller that registers.
package speakers

import "sync"

// Registry maps speaker names to sequential integer ids.
// The zero value is not usable; call New.
type Registry struct {
	mu    sync.Mutex
	ids   map[string]int64
	order []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{ids: make(map[string]int64)}
}

// Register returns the id for name, assigning the next sequential id on
// first sight. Repeated calls with the same name return the same id.
func (r *Registry) Register(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[name]; ok {
		return id
	}
	id := int64(len(r.order))
	r.ids[name] = id
	r.order = append(r.order, name)
	return id
}

// Lookup returns the id for a previously registered name.
func (r *Registry) Lookup(name string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.ids[name]
	return id, ok
}

// Len returns the number of registered speakers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Map returns a snapshot of the name→id mapping.
func (r *Registry) Map() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := make(map[string]int64, len(r.ids))
	for name, id := range r.ids {
		m[name] = id
	}
	return m
}

// Names returns the registered names in id order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
