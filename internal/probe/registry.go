package probe

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Capability is the result of looking up a declared service type.
type Capability int

const (
	// Available means a prober for the type is registered in this build.
	Available Capability = iota

	// Unsupported means the type is recognized but its prober was not built in.
	Unsupported

	// Unrecognized means nothing is known about the declared type.
	Unrecognized
)

// knownTypes maps every accepted spelling to its canonical service type. A type
// listed here without a registered prober is reported as SKIPPED, not UNKNOWN.
var knownTypes = map[string]string{
	"postgresql": "postgresql",
	"postgres":   "postgresql",
	"pg":         "postgresql",
	"mysql":      "mysql",
	"mariadb":    "mysql",
	"mongodb":    "mongodb",
	"mongo":      "mongodb",
	"redis":      "redis",
	"kubernetes": "kubernetes",
	"k8s":        "kubernetes",
	"tcp":        "tcp",
	"http":       "http",
	"https":      "http",
	"dns":        "dns",
	"prometheus": "prometheus",
	"promql":     "prometheus",
}

// Canonical normalizes a declared type. ok is false when the spelling is not a known alias.
func Canonical(declared string) (canonical string, ok bool) {
	key := strings.ToLower(strings.TrimSpace(declared))
	canonical, ok = knownTypes[key]
	if !ok {
		return key, false
	}
	return canonical, true
}

// Registry is the capability table of probers available to this process.
// It is populated once at startup and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	probers map[string]Prober
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{probers: make(map[string]Prober)}
}

// Register adds a Prober under its canonical type.
// It panics if a prober for the same type is already registered.
func (r *Registry) Register(p Prober) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, _ := Canonical(p.Type())
	if _, exists := r.probers[name]; exists {
		panic(fmt.Sprintf("prober already registered: %s", name))
	}
	r.probers[name] = p
}

// Lookup resolves a declared type to a Prober and reports its capability.
// Types outside the built-in alias table are still Available when a custom
// prober was registered for them.
func (r *Registry) Lookup(declared string) (Prober, Capability) {
	name, known := Canonical(declared)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.probers[name]; ok {
		return p, Available
	}
	if known {
		return nil, Unsupported
	}
	return nil, Unrecognized
}

// List returns the registered canonical types in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.probers))
	for name := range r.probers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
