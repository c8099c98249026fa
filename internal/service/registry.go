package service

import (
	"sort"
	"sync"

	"thermal_printer/internal/device"
)

// Registry maps config entry IDs to their controllers. One instance is owned
// by the composition root and shared by the services.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]*device.Controller
}

func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*device.Controller)}
}

// Add registers c under its entry ID, replacing any previous controller.
func (r *Registry) Add(c *device.Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controllers[c.Entry().ID] = c
}

func (r *Registry) Get(entryID string) (*device.Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.controllers[entryID]
	return c, ok
}

// Remove drops the controller and reports whether it was registered.
func (r *Registry) Remove(entryID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.controllers[entryID]
	delete(r.controllers, entryID)
	return ok
}

// All returns the controllers ordered by entry creation time, then ID.
func (r *Registry) All() []*device.Controller {
	r.mu.RLock()
	out := make([]*device.Controller, 0, len(r.controllers))
	for _, c := range r.controllers {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Entry(), out[j].Entry()
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.controllers)
}
