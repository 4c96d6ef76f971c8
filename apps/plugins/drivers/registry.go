package drivers

import (
	"sync"

	"github.com/getevo/evo/v2/lib/log"
)

// Registry is the process-wide lookup table from driver id and platform to
// driver instances. Drivers are registered explicitly at startup (see the
// plugins app); registration order is preserved and is the webhook dispatch
// order.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]Driver
	ordered []Driver
}

// NewRegistry creates an empty driver registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Driver)}
}

// Register inserts a driver. A duplicate id silently replaces the previous
// registration but keeps its position in the dispatch order.
func (r *Registry) Register(driver Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[driver.ID()]; exists {
		log.Warning("driver %s already registered, replacing", driver.ID())
		for i, d := range r.ordered {
			if d.ID() == driver.ID() {
				r.ordered[i] = driver
				break
			}
		}
	} else {
		r.ordered = append(r.ordered, driver)
	}
	r.byID[driver.ID()] = driver
	log.Debug("registered driver %s (platform: %s)", driver.ID(), driver.Platform())
}

// Get returns a driver by id.
func (r *Registry) Get(id string) (Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	driver, ok := r.byID[id]
	return driver, ok
}

// All returns every registered driver in registration order.
func (r *Registry) All() []Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Driver, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ByPlatform returns the drivers claiming a platform, in registration order.
func (r *Registry) ByPlatform(platform string) []Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Driver
	for _, d := range r.ordered {
		if d.Platform() == platform {
			out = append(out, d)
		}
	}
	return out
}
