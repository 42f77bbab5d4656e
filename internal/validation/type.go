package validation

import (
	"github.com/conduit-lang/typecache/internal/typeinfo"
)

// TypeContext validates a candidate type
type TypeContext struct {
	*Context
	typ *typeinfo.Type
}

// ForType creates a context for t. The subject is the type's ID.
func ForType(target string, t *typeinfo.Type) *TypeContext {
	return &TypeContext{Context: New(target, t.ID()), typ: t}
}

// Type returns the type under validation
func (v *TypeContext) Type() *typeinfo.Type {
	return v.typ
}

// ShouldImplement requires the exact interface ref
func (v *TypeContext) ShouldImplement(ref typeinfo.Ref, hint ...string) *TypeContext {
	if !v.typ.Implements(ref) {
		v.Violation("should implement "+ref.String(), hint...)
	}
	return v
}

// ShouldImplementAny requires some instantiation of iface
func (v *TypeContext) ShouldImplementAny(iface string, hint ...string) *TypeContext {
	if !v.typ.ImplementsAny(iface) {
		v.Violation("should implement any "+iface, hint...)
	}
	return v
}

// ShouldNotImplementAny forbids every instantiation of iface
func (v *TypeContext) ShouldNotImplementAny(iface string, hint ...string) *TypeContext {
	if v.typ.ImplementsAny(iface) {
		v.Violation("should not implement any "+iface, hint...)
	}
	return v
}

// ShouldBeGeneric requires type parameters
func (v *TypeContext) ShouldBeGeneric(hint ...string) *TypeContext {
	if !v.typ.IsGeneric() {
		v.Violation("should be generic", hint...)
	}
	return v
}

// ShouldNotBeGeneric forbids type parameters
func (v *TypeContext) ShouldNotBeGeneric(hint ...string) *TypeContext {
	if v.typ.IsGeneric() {
		v.Violation("should not be generic", hint...)
	}
	return v
}

// ShouldDeriveFrom requires an ancestor named base
func (v *TypeContext) ShouldDeriveFrom(base string, hint ...string) *TypeContext {
	if !v.typ.DerivesFrom(base) {
		v.Violation("should derive from "+base, hint...)
	}
	return v
}

// ShouldNotBeAbstract forbids abstract types
func (v *TypeContext) ShouldNotBeAbstract(hint ...string) *TypeContext {
	if v.typ.Abstract {
		v.Violation("should not be abstract", hint...)
	}
	return v
}

// ShouldHaveTag requires tag
func (v *TypeContext) ShouldHaveTag(tag string, hint ...string) *TypeContext {
	if !v.typ.HasTag(tag) {
		v.Violation("should be tagged "+tag, hint...)
	}
	return v
}

// ShouldNotHaveTag forbids tag
func (v *TypeContext) ShouldNotHaveTag(tag string, hint ...string) *TypeContext {
	if v.typ.HasTag(tag) {
		v.Violation("should not be tagged "+tag, hint...)
	}
	return v
}

// ShouldHaveProperty requires a property named name
func (v *TypeContext) ShouldHaveProperty(name string, hint ...string) *TypeContext {
	if _, ok := v.typ.Property(name); !ok {
		v.Violation("should have a property named "+name, hint...)
	}
	return v
}

// Property returns an attached context for the named property. A missing
// property is recorded on v and the returned context ignores all checks.
func (v *TypeContext) Property(name string) *PropertyContext {
	p, ok := v.typ.Property(name)
	if !ok {
		v.Violation("should have a property named " + name)
		return &PropertyContext{Context: New("Property", v.typ.ID()+"."+name), owner: v.typ, missing: true}
	}
	pc := newPropertyContext(v.typ, p)
	v.Attach(pc)
	return pc
}

// Properties returns attached contexts for every property accepted by
// filter, or all properties when filter is nil
func (v *TypeContext) Properties(filter func(typeinfo.Property) bool) []*PropertyContext {
	var out []*PropertyContext
	for _, p := range v.typ.Properties {
		if filter != nil && !filter(p) {
			continue
		}
		pc := newPropertyContext(v.typ, p)
		v.Attach(pc)
		out = append(out, pc)
	}
	return out
}
