// Package health aggregates readiness checks for the subsystems a server
// depends on, such as storage and background workers.
package health

import (
	"context"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds a single checker. One stuck subsystem must not
// hang the whole probe.
const DefaultCheckTimeout = 3 * time.Second

// Status is the outcome of a single subsystem check.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker probes one subsystem. The context carries the per-check deadline.
type Checker func(ctx context.Context) Status

// Registry holds named checkers and runs them on demand.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	checks  map[string]Checker
	timeout time.Duration
}

// NewRegistry returns an empty registry with the default per-check timeout.
func NewRegistry() *Registry {
	return &Registry{
		checks:  make(map[string]Checker),
		timeout: DefaultCheckTimeout,
	}
}

// WithTimeout overrides the per-check timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.mu.Lock()
	r.timeout = d
	r.mu.Unlock()
	return r
}

// Register adds a checker under name. Registering the same name again
// replaces the checker but keeps its original position.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checks[name]; !ok {
		r.order = append(r.order, name)
	}
	r.checks[name] = check
}

// CheckAll runs every checker in registration order and reports whether all
// subsystems are healthy, along with the individual results.
func (r *Registry) CheckAll(ctx context.Context) (bool, []Status) {
	r.mu.RLock()
	names := append([]string(nil), r.order...)
	checks := make(map[string]Checker, len(r.checks))
	for name, check := range r.checks {
		checks[name] = check
	}
	timeout := r.timeout
	r.mu.RUnlock()

	healthy := true
	statuses := make([]Status, 0, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		st := checks[name](checkCtx)
		cancel()
		if st.Name == "" {
			st.Name = name
		}
		if !st.Healthy {
			healthy = false
		}
		statuses = append(statuses, st)
	}
	return healthy, statuses
}
