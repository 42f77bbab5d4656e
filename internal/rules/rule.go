// Package rules classifies candidate types into categories.
//
// A category is described by a Set: "any" rules of which at least one must
// match (when there are any), and "must" rules that all have to match. The
// category with the highest priority among the matching ones wins; a tie is
// an ambiguity error rather than a silent pick.
package rules

import (
	"strings"

	"github.com/conduit-lang/typecache/internal/typeinfo"
)

// Rule is a named predicate over a candidate type
type Rule struct {
	Name  string
	Match func(*typeinfo.Type) bool

	// key and negated identify the underlying condition so contradictory
	// must rules can be spotted at setup time
	key      string
	negated  bool
	priority *int
}

// New creates a custom rule. Custom rules take part in contradiction
// checks only against their own negation.
func New(name string, match func(*typeinfo.Type) bool) Rule {
	return Rule{Name: name, Match: match, key: "func:" + name}
}

// WithPriority returns a copy of r carrying an explicit priority that
// overrides its category's priority when r matches
func (r Rule) WithPriority(p int) Rule {
	r.priority = &p
	return r
}

// Priority returns the explicit priority, if any
func (r Rule) Priority() (int, bool) {
	if r.priority == nil {
		return 0, false
	}
	return *r.priority, true
}

// Not negates r
func Not(r Rule) Rule {
	match := r.Match
	name := r.Name
	if strings.HasPrefix(name, "not ") {
		name = strings.TrimPrefix(name, "not ")
	} else {
		name = "not " + name
	}
	out := Rule{
		Name:     name,
		key:      r.key,
		negated:  !r.negated,
		priority: r.priority,
	}
	if match != nil {
		out.Match = func(t *typeinfo.Type) bool { return !match(t) }
	}
	return out
}

// contradicts reports whether r and o test the same condition with
// opposite outcomes
func (r Rule) contradicts(o Rule) bool {
	return r.key != "" && r.key == o.key && r.negated != o.negated
}

func keyed(key, name string, match func(*typeinfo.Type) bool) Rule {
	return Rule{Name: name, Match: match, key: key}
}

// DerivedFrom matches types with an ancestor named base, any type arguments
func DerivedFrom(base string) Rule {
	return keyed("derived:"+base, "derived from "+base, func(t *typeinfo.Type) bool {
		return t.DerivesFrom(base)
	})
}

// NotDerivedFrom is Not(DerivedFrom(base))
func NotDerivedFrom(base string) Rule {
	return Not(DerivedFrom(base))
}

// DerivedFromAny matches types with an ancestor named by any of bases
func DerivedFromAny(bases ...string) Rule {
	return keyed("derived-any:"+strings.Join(bases, ","), "derived from any of "+strings.Join(bases, ", "),
		func(t *typeinfo.Type) bool {
			for _, b := range bases {
				if t.DerivesFrom(b) {
					return true
				}
			}
			return false
		})
}

// Implements matches types implementing ref exactly
func Implements(ref typeinfo.Ref) Rule {
	return keyed("implements:"+ref.String(), "implements "+ref.String(), func(t *typeinfo.Type) bool {
		return t.Implements(ref)
	})
}

// ImplementsAny matches types implementing any instantiation of iface
func ImplementsAny(iface string) Rule {
	return keyed("implements-any:"+iface, "implements any "+iface, func(t *typeinfo.Type) bool {
		return t.ImplementsAny(iface)
	})
}

// NotImplementsAny is Not(ImplementsAny(iface))
func NotImplementsAny(iface string) Rule {
	return Not(ImplementsAny(iface))
}

// IsStruct matches concrete record types
func IsStruct() Rule {
	return keyed("kind:struct", "is struct", func(t *typeinfo.Type) bool {
		return t.Kind == typeinfo.KindStruct
	})
}

// IsInterface matches interface types
func IsInterface() Rule {
	return keyed("kind:interface", "is interface", func(t *typeinfo.Type) bool {
		return t.Kind == typeinfo.KindInterface
	})
}

// IsAbstract matches abstract types
func IsAbstract() Rule {
	return keyed("abstract", "is abstract", func(t *typeinfo.Type) bool {
		return t.Abstract
	})
}

// NotAbstract is Not(IsAbstract())
func NotAbstract() Rule {
	return Not(IsAbstract())
}

// IsGeneric matches types declaring type parameters
func IsGeneric() Rule {
	return keyed("generic", "is generic", func(t *typeinfo.Type) bool {
		return t.IsGeneric()
	})
}

// NotGeneric is Not(IsGeneric())
func NotGeneric() Rule {
	return Not(IsGeneric())
}

// HasTag matches types carrying tag
func HasTag(tag string) Rule {
	return keyed("tag:"+tag, "has tag "+tag, func(t *typeinfo.Type) bool {
		return t.HasTag(tag)
	})
}

// NotTag is Not(HasTag(tag))
func NotTag(tag string) Rule {
	return Not(HasTag(tag))
}

// NameSuffix matches types whose name ends with suffix
func NameSuffix(suffix string) Rule {
	return keyed("suffix:"+suffix, "name ends with "+suffix, func(t *typeinfo.Type) bool {
		return strings.HasSuffix(t.Name, suffix)
	})
}

// InPackage matches types declared in pkg
func InPackage(pkg string) Rule {
	return keyed("package:"+pkg, "in package "+pkg, func(t *typeinfo.Type) bool {
		return t.Package == pkg
	})
}

// Exported matches types visible outside their module
func Exported() Rule {
	return keyed("exported", "is exported", func(t *typeinfo.Type) bool {
		return t.Exported
	})
}
