// Package typeinfo describes candidate types: the metadata the registry
// classifies and validates. Types are plain values built by a loader
// (manifests, reflection) and treated as immutable once handed to a bundle.
package typeinfo

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the structural kind of a type
type Kind int

const (
	// KindStruct is a concrete record type
	KindStruct Kind = iota
	// KindInterface is a method set
	KindInterface
	// KindNamed is a named non-struct type such as `type ID string`
	KindNamed
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindNamed:
		return "named"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses the textual form produced by Kind.String
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "struct", "class":
		return KindStruct, nil
	case "interface":
		return KindInterface, nil
	case "named":
		return KindNamed, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// Access is the visibility of a property accessor
type Access int

const (
	AccessNone Access = iota
	AccessPrivate
	AccessProtected
	AccessInit
	AccessPublic
)

func (a Access) String() string {
	switch a {
	case AccessNone:
		return "none"
	case AccessPrivate:
		return "private"
	case AccessProtected:
		return "protected"
	case AccessInit:
		return "init"
	case AccessPublic:
		return "public"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// ParseAccess parses the textual form produced by Access.String
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return AccessNone, nil
	case "private":
		return AccessPrivate, nil
	case "protected":
		return AccessProtected, nil
	case "init":
		return AccessInit, nil
	case "public":
		return AccessPublic, nil
	}
	return 0, fmt.Errorf("unknown access %q", s)
}

// Property is a named member of a type
type Property struct {
	Name      string
	Type      Ref
	Get       Access
	Set       Access
	Static    bool
	Declaring string // ID of the declaring type
	Tags      []string
}

// HasTag reports whether the property carries tag
func (p Property) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

// Type is a candidate type
type Type struct {
	Name    string
	Package string
	Module  string

	Kind     Kind
	Abstract bool
	Exported bool

	// Params holds type parameter names; a type with params is generic
	Params []string
	// Args holds instantiation arguments of a generic type
	Args []Ref

	// Bases is the ancestor chain, nearest first
	Bases []Ref
	// Interfaces is the full interface set, inherited ones included
	Interfaces []Ref

	Properties []Property
	Nested     []*Type
	Tags       []string
}

// ID returns the package-qualified name identifying the type
func (t *Type) ID() string {
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

// Ref returns a reference to t including its instantiation arguments
func (t *Type) Ref() Ref {
	return Ref{Name: t.ID(), Args: slices.Clone(t.Args)}
}

func (t *Type) String() string {
	return t.Ref().String()
}

// IsGeneric reports whether t declares type parameters
func (t *Type) IsGeneric() bool {
	return len(t.Params) > 0
}

// Base returns the nearest ancestor, or nil
func (t *Type) Base() *Ref {
	if len(t.Bases) == 0 {
		return nil
	}
	b := t.Bases[0]
	return &b
}

// HasTag reports whether t carries tag
func (t *Type) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// AncestorRef returns the nearest ancestor named name, ignoring type
// arguments
func (t *Type) AncestorRef(name string) (Ref, bool) {
	for _, b := range t.Bases {
		if b.Name == name {
			return b, true
		}
	}
	return Ref{}, false
}

// DerivesFrom reports whether any ancestor is named name
func (t *Type) DerivesFrom(name string) bool {
	_, ok := t.AncestorRef(name)
	return ok
}

// Implements reports whether t implements ref exactly, arguments included
func (t *Type) Implements(ref Ref) bool {
	for _, i := range t.Interfaces {
		if i.Equal(ref) {
			return true
		}
	}
	return false
}

// InterfaceRef returns the first implemented interface named name,
// ignoring type arguments
func (t *Type) InterfaceRef(name string) (Ref, bool) {
	for _, i := range t.Interfaces {
		if i.Name == name {
			return i, true
		}
	}
	return Ref{}, false
}

// ImplementsAny reports whether t implements any instantiation of name
func (t *Type) ImplementsAny(name string) bool {
	_, ok := t.InterfaceRef(name)
	return ok
}

// Property returns the property named name
func (t *Type) Property(name string) (Property, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Ref names a type, optionally with type arguments
type Ref struct {
	Name string
	Args []Ref
}

// R builds a Ref
func R(name string, args ...Ref) Ref {
	return Ref{Name: name, Args: args}
}

// IsZero reports whether r names nothing
func (r Ref) IsZero() bool {
	return r.Name == "" && len(r.Args) == 0
}

// Equal compares refs structurally
func (r Ref) Equal(o Ref) bool {
	if r.Name != o.Name || len(r.Args) != len(o.Args) {
		return false
	}
	for i := range r.Args {
		if !r.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Arg returns the i-th type argument
func (r Ref) Arg(i int) (Ref, bool) {
	if i < 0 || i >= len(r.Args) {
		return Ref{}, false
	}
	return r.Args[i], true
}

func (r Ref) String() string {
	if len(r.Args) == 0 {
		return r.Name
	}
	parts := make([]string, len(r.Args))
	for i, a := range r.Args {
		parts[i] = a.String()
	}
	return r.Name + "[" + strings.Join(parts, ", ") + "]"
}

// ParseRef parses the form produced by Ref.String, e.g.
// "data.Reader[shop/orders.Order]"
func ParseRef(s string) (Ref, error) {
	p := refParser{src: s}
	r, err := p.parse()
	if err != nil {
		return Ref{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Ref{}, fmt.Errorf("invalid type reference %q: unexpected %q at %d", s, p.src[p.pos], p.pos)
	}
	return r, nil
}

// MustParseRef is ParseRef for literals known to be valid
func MustParseRef(s string) Ref {
	r, err := ParseRef(s)
	if err != nil {
		panic(err)
	}
	return r
}

type refParser struct {
	src string
	pos int
}

func (p *refParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *refParser) parse() (Ref, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("[], \t", rune(p.src[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return Ref{}, fmt.Errorf("invalid type reference %q: missing name at %d", p.src, start)
	}
	r := Ref{Name: p.src[start:p.pos]}
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '[' {
		return r, nil
	}
	p.pos++
	for {
		arg, err := p.parse()
		if err != nil {
			return Ref{}, err
		}
		r.Args = append(r.Args, arg)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return Ref{}, fmt.Errorf("invalid type reference %q: unclosed '['", p.src)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return r, nil
		default:
			return Ref{}, fmt.Errorf("invalid type reference %q: unexpected %q at %d", p.src, p.src[p.pos], p.pos)
		}
	}
}
