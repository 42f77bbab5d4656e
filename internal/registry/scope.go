package registry

import (
	"slices"
	"sync"
)

// Scope is a process-scoped directory of sealed registries, used by
// tooling that searches across several builds. Registries leave the scope
// when closed.
type Scope struct {
	mu   sync.RWMutex
	regs []*Registry
}

// NewScope creates an empty scope
func NewScope() *Scope {
	return &Scope{}
}

// Register adds r and returns a function removing it again. Calling the
// returned function more than once is harmless.
func (s *Scope) Register(r *Registry) func() {
	s.mu.Lock()
	if !slices.Contains(s.regs, r) {
		s.regs = append(s.regs, r)
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.regs = slices.DeleteFunc(s.regs, func(x *Registry) bool { return x == r })
			s.mu.Unlock()
		})
	}
}

// Registries returns the registered registries in registration order
func (s *Scope) Registries() []*Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.regs)
}

// Len returns the number of registered registries
func (s *Scope) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.regs)
}

// Find looks id up in every registry, oldest first
func (s *Scope) Find(id string) (Descriptor, bool) {
	for _, r := range s.Registries() {
		if d, ok := r.Lookup(id); ok {
			return d, true
		}
	}
	return nil, false
}

// FindIn is Find restricted to descriptors of type D
func FindIn[D Descriptor](s *Scope, id string) (D, bool) {
	for _, r := range s.Registries() {
		if d, ok := TryGetByID[D](r, id); ok {
			return d, true
		}
	}
	var zero D
	return zero, false
}
