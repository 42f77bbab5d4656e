package typeinfo

import (
	"go/token"
	"reflect"
	"strings"
)

// MarkerTag is the struct tag key read from fields by FromReflect
const MarkerTag = "typecache"

// ReflectOption configures FromReflect
type ReflectOption func(*reflectConfig)

type reflectConfig struct {
	module     string
	interfaces []reflect.Type
	tags       []string
}

// WithInterfaces lists the interfaces checked against the type and its
// pointer. Go has no way to enumerate the interfaces a type satisfies, so
// the candidates must be supplied.
func WithInterfaces(ifaces ...reflect.Type) ReflectOption {
	return func(c *reflectConfig) {
		for _, i := range ifaces {
			if i != nil && i.Kind() == reflect.Interface {
				c.interfaces = append(c.interfaces, i)
			}
		}
	}
}

// WithModule sets the owning module name
func WithModule(name string) ReflectOption {
	return func(c *reflectConfig) { c.module = name }
}

// WithTags adds tags on top of those read from the marker field
func WithTags(tags ...string) ReflectOption {
	return func(c *reflectConfig) { c.tags = append(c.tags, tags...) }
}

// FromReflect builds a Type from a Go type.
//
// Embedded struct fields form the ancestor chain. A blank marker field
// carries tags, with "abstract" treated specially:
//
//	type Order struct {
//		_ struct{} `typecache:"abstract,unmapped"`
//		Base
//	}
func FromReflect(rt reflect.Type, opts ...ReflectOption) *Type {
	cfg := &reflectConfig{}
	for _, o := range opts {
		o(cfg)
	}

	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	ref := refFromReflect(rt)
	t := &Type{
		Name:     ref.Name,
		Package:  rt.PkgPath(),
		Module:   cfg.module,
		Args:     ref.Args,
		Exported: token.IsExported(ref.Name),
	}
	if t.Package != "" {
		t.Name = strings.TrimPrefix(ref.Name, t.Package+".")
		t.Exported = token.IsExported(t.Name)
	}

	switch rt.Kind() {
	case reflect.Struct:
		t.Kind = KindStruct
	case reflect.Interface:
		t.Kind = KindInterface
		t.Abstract = true
	default:
		t.Kind = KindNamed
	}

	if rt.Kind() == reflect.Struct {
		t.Bases = embeddedChain(rt)
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if f.Name == "_" {
				for _, tag := range splitTag(f.Tag.Get(MarkerTag)) {
					if tag == "abstract" {
						t.Abstract = true
						continue
					}
					t.Tags = append(t.Tags, tag)
				}
				continue
			}
			if f.Anonymous || !f.IsExported() {
				continue
			}
			t.Properties = append(t.Properties, Property{
				Name:      f.Name,
				Type:      refFromReflect(f.Type),
				Get:       AccessPublic,
				Set:       AccessPublic,
				Declaring: t.ID(),
				Tags:      splitTag(f.Tag.Get(MarkerTag)),
			})
		}
	}
	t.Tags = append(t.Tags, cfg.tags...)

	ptr := reflect.PointerTo(rt)
	for _, iface := range cfg.interfaces {
		if iface == rt {
			continue
		}
		if rt.Implements(iface) || (rt.Kind() != reflect.Interface && ptr.Implements(iface)) {
			t.Interfaces = append(t.Interfaces, refFromReflect(iface))
		}
	}
	return t
}

// embeddedChain follows the first embedded struct field of each level
func embeddedChain(rt reflect.Type) []Ref {
	var chain []Ref
	seen := map[reflect.Type]bool{rt: true}
	for {
		next := firstEmbedded(rt)
		if next == nil || seen[next] {
			return chain
		}
		seen[next] = true
		chain = append(chain, refFromReflect(next))
		rt = next
	}
}

func firstEmbedded(rt reflect.Type) reflect.Type {
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			return ft
		}
	}
	return nil
}

// refFromReflect names rt the way Type.ID does. Instantiated generic types
// report their arguments in the name, which ParseRef splits back out.
func refFromReflect(rt reflect.Type) Ref {
	if rt.Name() == "" {
		return Ref{Name: rt.String()}
	}
	name := rt.Name()
	if pkg := rt.PkgPath(); pkg != "" {
		name = pkg + "." + name
	}
	if r, err := ParseRef(name); err == nil {
		return r
	}
	return Ref{Name: name}
}

func splitTag(tag string) []string {
	if tag == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(tag, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
