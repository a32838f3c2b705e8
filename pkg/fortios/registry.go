package fortios

import (
	"fmt"
	"sort"
	"sync"
)

// Registry indexes modules by name
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*Module
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Register adds a module. Names must be unique.
func (r *Registry) Register(m *Module) error {
	if m == nil || m.Name == "" {
		return fmt.Errorf("module must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[m.Name]; exists {
		return fmt.Errorf("module %s already registered", m.Name)
	}
	r.modules[m.Name] = m
	return nil
}

// Lookup returns the module registered under name
func (r *Registry) Lookup(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// Names returns the registered module names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Default returns the registry generated modules register into
func Default() *Registry {
	return defaultRegistry
}

// Register adds m to the default registry. It panics on duplicates, since it
// is called from generated init functions.
func Register(m *Module) {
	if err := defaultRegistry.Register(m); err != nil {
		panic(err)
	}
}

// Lookup finds a module in the default registry
func Lookup(name string) (*Module, bool) {
	return defaultRegistry.Lookup(name)
}

// Names lists the modules in the default registry
func Names() []string {
	return defaultRegistry.Names()
}
