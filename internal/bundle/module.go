package bundle

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/conduit-lang/typecache/internal/typeinfo"
)

var (
	// ErrModuleNotFound is returned when a required module is not loaded
	ErrModuleNotFound = errors.New("module not found")
	// ErrVersionMismatch is returned when a loaded module does not satisfy a
	// requirement's constraint
	ErrVersionMismatch = errors.New("module version does not satisfy constraint")
	// ErrRequirementCycle is returned when modules require each other
	ErrRequirementCycle = errors.New("circular module requirement")
)

// InclusionPolicy decides which required modules contribute types
type InclusionPolicy int

const (
	// IncludeReferenced includes every transitively required module
	IncludeReferenced InclusionPolicy = iota
	// IncludeOptedIn includes only required modules that declare they
	// provide types. Traversal still passes through the others.
	IncludeOptedIn
)

func (p InclusionPolicy) String() string {
	switch p {
	case IncludeReferenced:
		return "referenced"
	case IncludeOptedIn:
		return "opted-in"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses the textual form produced by InclusionPolicy.String
func ParsePolicy(s string) (InclusionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "referenced", "all":
		return IncludeReferenced, nil
	case "opted-in", "optedin", "opt-in":
		return IncludeOptedIn, nil
	}
	return 0, fmt.Errorf("unknown inclusion policy %q (expected referenced or opted-in)", s)
}

// Requirement is one module's dependency on another
type Requirement struct {
	Module     string
	Constraint *semver.Constraints // nil accepts any version
}

// Module is a named, versioned unit of types
type Module struct {
	Name          string
	Version       *semver.Version
	ProvidesTypes bool
	Requires      []Requirement
	Types         []*typeinfo.Type
	Source        string
}

// Bundle returns the module's types. Unexported types are left out unless
// includeInternal is set.
func (m *Module) Bundle(includeInternal bool) *Bundle {
	var types []*typeinfo.Type
	for _, t := range m.Types {
		if includeInternal || t.Exported {
			types = append(types, t)
		}
	}
	name := m.Name
	if m.Version != nil {
		name += " " + m.Version.String()
	}
	return Named(name+" ({Types} types)", types...)
}

// ModuleSet indexes loaded modules by name
type ModuleSet struct {
	modules map[string]*Module
}

// NewModuleSet creates a set. A later module with an already-used name
// is rejected.
func NewModuleSet(modules ...*Module) (*ModuleSet, error) {
	s := &ModuleSet{modules: make(map[string]*Module)}
	for _, m := range modules {
		if err := s.Add(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers a module
func (s *ModuleSet) Add(m *Module) error {
	if m == nil || m.Name == "" {
		return fmt.Errorf("module name is required")
	}
	if _, exists := s.modules[m.Name]; exists {
		return fmt.Errorf("module %s already loaded", m.Name)
	}
	s.modules[m.Name] = m
	return nil
}

// Get returns a module by name
func (s *ModuleSet) Get(name string) (*Module, bool) {
	m, ok := s.modules[name]
	return m, ok
}

// Names returns all module names sorted
func (s *ModuleSet) Names() []string {
	names := make([]string, 0, len(s.modules))
	for n := range s.modules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of modules
func (s *ModuleSet) Len() int {
	return len(s.modules)
}

// Graph returns the requirement graph of the set
func (s *ModuleSet) Graph() *RequirementGraph {
	return NewRequirementGraph(s.modules)
}

// Resolve returns the root module followed by the modules whose types the
// policy includes, in dependency order (dependencies first, root last).
// Every requirement on the way must be loaded and satisfy its constraint.
func (s *ModuleSet) Resolve(root string, policy InclusionPolicy) ([]*Module, error) {
	rm, ok := s.modules[root]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, root)
	}

	reached := map[string]bool{root: true}
	queue := []*Module{rm}
	var errs []error
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		for _, req := range m.Requires {
			dep, ok := s.modules[req.Module]
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s (required by %s)", ErrModuleNotFound, req.Module, m.Name))
				continue
			}
			if req.Constraint != nil {
				if dep.Version == nil {
					errs = append(errs, fmt.Errorf("%w: %s requires %s %s but it declares no version",
						ErrVersionMismatch, m.Name, dep.Name, req.Constraint))
				} else if okVer, reasons := req.Constraint.Validate(dep.Version); !okVer {
					errs = append(errs, fmt.Errorf("%w: %s requires %s %s, found %s: %v",
						ErrVersionMismatch, m.Name, dep.Name, req.Constraint, dep.Version, errors.Join(reasons...)))
				}
			}
			if !reached[dep.Name] {
				reached[dep.Name] = true
				queue = append(queue, dep)
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sub := make(map[string]*Module, len(reached))
	for name := range reached {
		sub[name] = s.modules[name]
	}
	order, err := NewRequirementGraph(sub).TopologicalSort()
	if err != nil {
		return nil, err
	}

	var out []*Module
	for _, name := range order {
		m := sub[name]
		if name != root && policy == IncludeOptedIn && !m.ProvidesTypes {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// FromModules resolves root under policy and bundles the result. The root
// module contributes all of its types, other modules only exported ones.
func FromModules(s *ModuleSet, root string, policy InclusionPolicy) (*Bundle, error) {
	mods, err := s.Resolve(root, policy)
	if err != nil {
		return nil, err
	}
	parts := make([]*Bundle, 0, len(mods))
	for _, m := range mods {
		parts = append(parts, m.Bundle(m.Name == root))
	}
	return CombineNamed(root+" and {Children} modules", parts...), nil
}

// FromAllModules bundles every module in the set, each contributing all
// of its types
func FromAllModules(s *ModuleSet) *Bundle {
	var parts []*Bundle
	for _, name := range s.Names() {
		parts = append(parts, s.modules[name].Bundle(true))
	}
	return CombineNamed("{Children} modules", parts...)
}
