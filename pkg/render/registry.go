package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownBackend is returned when no factory matches a backend name.
var ErrUnknownBackend = errors.New("render: unknown backend")

// Registry holds the page backends a job can target. Names are matched case
// insensitively; each output extension belongs to at most one backend.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]CanvasFactory
	byExt     map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]CanvasFactory),
		byExt:     make(map[string]string),
	}
}

// Register adds factory under its Name. Duplicate names or extensions are
// rejected.
func (r *Registry) Register(factory CanvasFactory) error {
	if factory == nil {
		return errors.New("render: canvas factory is required")
	}
	name := normalizeName(factory.Name())
	if name == "" {
		return errors.New("render: canvas factory name is required")
	}
	ext := normalizeExt(factory.Extension())

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("render: backend %q already registered", name)
	}
	if owner, taken := r.byExt[ext]; ext != "" && taken {
		return fmt.Errorf("render: extension %q already served by %q", ext, owner)
	}
	r.factories[name] = factory
	if ext != "" {
		r.byExt[ext] = name
	}
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(factory CanvasFactory) {
	if err := r.Register(factory); err != nil {
		panic(err)
	}
}

// Get retrieves a factory by name.
func (r *Registry) Get(name string) (CanvasFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownBackend, name, strings.Join(r.namesLocked(), ", "))
	}
	return factory, nil
}

// ForExtension finds the backend writing files with ext (".pdf" or "pdf").
func (r *Registry) ForExtension(ext string) (CanvasFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byExt[normalizeExt(ext)]
	if !ok {
		return nil, false
	}
	return r.factories[name], true
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// Has reports whether a backend is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalizeName(name)]
	return ok
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
