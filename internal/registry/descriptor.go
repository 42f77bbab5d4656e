package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/conduit-lang/typecache/internal/typeinfo"
	"github.com/conduit-lang/typecache/internal/validation"
)

// State is a descriptor's lifecycle position. States only move forward.
type State int32

const (
	Unclassified State = iota
	Classified
	BasicInitialized
	NavigationInitialized
	Validated
	Sealed
)

func (s State) String() string {
	switch s {
	case Unclassified:
		return "unclassified"
	case Classified:
		return "classified"
	case BasicInitialized:
		return "basic-initialized"
	case NavigationInitialized:
		return "navigation-initialized"
	case Validated:
		return "validated"
	case Sealed:
		return "sealed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Descriptor wraps one classified type. Implementations embed Base, which
// is the only way to satisfy the interface.
type Descriptor interface {
	Type() *typeinfo.Type
	Category() string
	State() State
	descriptorBase() *Base
}

// BasicInitializer computes fields derivable from the wrapped type alone.
// It runs once, concurrently with other descriptors, before any
// navigation.
type BasicInitializer interface {
	InitBasic(v *validation.TypeContext)
}

// NavigationInitializer computes fields that depend on other descriptors.
// It runs after every Nav of the descriptor has been resolved.
type NavigationInitializer interface {
	InitNavigation(ctx context.Context, v *validation.TypeContext)
}

// Validator checks the descriptor once everything is initialized. It runs
// concurrently with other descriptors and must not mutate shared state.
type Validator interface {
	Validate(ctx context.Context, v *validation.TypeContext)
}

// Base carries the state shared by every descriptor
type Base struct {
	typ      *typeinfo.Type
	category string
	reg      *Registry
	state    atomic.Int32
	vctx     *validation.TypeContext

	navMu sync.Mutex
	navs  []navField
}

// Type returns the wrapped type
func (b *Base) Type() *typeinfo.Type {
	return b.typ
}

// Category returns the category name
func (b *Base) Category() string {
	return b.category
}

// State returns the lifecycle state
func (b *Base) State() State {
	return State(b.state.Load())
}

// Registry returns the owning registry
func (b *Base) Registry() *Registry {
	return b.reg
}

// ID returns the wrapped type's ID
func (b *Base) ID() string {
	if b.typ == nil {
		return ""
	}
	return b.typ.ID()
}

func (b *Base) String() string {
	return b.category + "(" + b.ID() + ")"
}

func (b *Base) descriptorBase() *Base {
	return b
}

func (b *Base) bind(t *typeinfo.Type, category string, r *Registry) {
	b.typ = t
	b.category = category
	b.reg = r
	b.vctx = validation.ForType(category, t)
}

// advance moves the state from one value to the next. It fails when the
// descriptor is not in from, which keeps each step write-once.
func (b *Base) advance(from, to State) bool {
	return b.state.CompareAndSwap(int32(from), int32(to))
}

func (b *Base) addNav(n navField) {
	b.navMu.Lock()
	b.navs = append(b.navs, n)
	b.navMu.Unlock()
}

func (b *Base) navFields() []navField {
	b.navMu.Lock()
	defer b.navMu.Unlock()
	return append([]navField(nil), b.navs...)
}
