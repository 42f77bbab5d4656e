package validation

import (
	"strings"

	"github.com/conduit-lang/typecache/internal/typeinfo"
)

// PropertyContext validates one property of a type
type PropertyContext struct {
	*Context
	owner   *typeinfo.Type
	prop    typeinfo.Property
	missing bool
}

func newPropertyContext(owner *typeinfo.Type, p typeinfo.Property) *PropertyContext {
	return &PropertyContext{
		Context: New("Property", owner.ID()+"."+p.Name),
		owner:   owner,
		prop:    p,
	}
}

// Property returns the property under validation
func (v *PropertyContext) Property() typeinfo.Property {
	return v.prop
}

func (v *PropertyContext) check(ok bool, message string, hint ...string) *PropertyContext {
	if !v.missing && !ok {
		v.Violation(message, hint...)
	}
	return v
}

// HaveName requires the exact name
func (v *PropertyContext) HaveName(name string) *PropertyContext {
	return v.check(v.prop.Name == name, "must have the name '"+name+"'")
}

// HaveNameSuffix requires the name to end with suffix
func (v *PropertyContext) HaveNameSuffix(suffix string) *PropertyContext {
	return v.check(strings.HasSuffix(v.prop.Name, suffix), "must have the name suffix '"+suffix+"'")
}

// HavePublicGet requires a public getter
func (v *PropertyContext) HavePublicGet() *PropertyContext {
	return v.check(v.prop.Get == typeinfo.AccessPublic, "must have a public get")
}

// HavePublicSet requires a public setter
func (v *PropertyContext) HavePublicSet() *PropertyContext {
	return v.check(v.prop.Set == typeinfo.AccessPublic, "must have a public set")
}

// HavePublicInit requires an init-only setter
func (v *PropertyContext) HavePublicInit() *PropertyContext {
	return v.check(v.prop.Set == typeinfo.AccessInit, "must have a public init")
}

// HaveSetAccess requires the setter to have exactly access a
func (v *PropertyContext) HaveSetAccess(a typeinfo.Access, hint ...string) *PropertyContext {
	return v.check(v.prop.Set == a, "must have a "+a.String()+" set", hint...)
}

// HaveNoSet forbids a setter
func (v *PropertyContext) HaveNoSet() *PropertyContext {
	return v.check(v.prop.Set == typeinfo.AccessNone, "must have no set")
}

// BeOfType requires the property type
func (v *PropertyContext) BeOfType(ref typeinfo.Ref) *PropertyContext {
	return v.check(v.prop.Type.Equal(ref), "must be of type "+ref.String())
}

// BeStatic requires a static property
func (v *PropertyContext) BeStatic() *PropertyContext {
	return v.check(v.prop.Static, "must be static")
}

// BeTheOnlyProperty requires the owner to declare no other property
func (v *PropertyContext) BeTheOnlyProperty() *PropertyContext {
	return v.check(len(v.owner.Properties) == 1, "must be the only property")
}

// HaveTag requires tag on the property
func (v *PropertyContext) HaveTag(tag string, hint ...string) *PropertyContext {
	return v.check(v.prop.HasTag(tag), "should be tagged "+tag, hint...)
}
