package server

import (
	"sort"
	"sync"

	"github.com/loykin/rdaemon/internal/daemon"
)

// Registry tracks the daemons running inside this process so the control
// server can route notify/terminate requests to them.
type Registry struct {
	mu      sync.RWMutex
	daemons map[string]daemon.Daemon
}

func NewRegistry() *Registry {
	return &Registry{daemons: make(map[string]daemon.Daemon)}
}

// Add registers d under name, replacing any previous registration.
func (r *Registry) Add(name string, d daemon.Daemon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.daemons[name] = d
}

func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.daemons, name)
}

func (r *Registry) Get(name string) (daemon.Daemon, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.daemons[name]
	return d, ok
}

// Names returns the registered daemon names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.daemons))
	for name := range r.daemons {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
