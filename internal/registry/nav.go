package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/conduit-lang/typecache/internal/navigation"
	"github.com/conduit-lang/typecache/internal/typeinfo"
)

type navField interface {
	label() string
	force(ctx context.Context) error
}

// NavResolver computes a navigation value using the owning registry
type NavResolver[T any] func(ctx context.Context, r *Registry) (T, error)

// Nav is a lazily resolved reference from a descriptor to data derived
// from other descriptors. Create navs in the descriptor constructor; the
// registry resolves all of them during the navigation phase.
type Nav[T any] struct {
	owner   *Base
	field   string
	resolve NavResolver[T]

	once sync.Once
	lazy *navigation.Lazy[T]
}

// NewNav declares a navigation field on owner
func NewNav[T any](owner *Base, field string, resolve NavResolver[T]) *Nav[T] {
	n := &Nav[T]{owner: owner, field: field, resolve: resolve}
	owner.addNav(n)
	return n
}

// Field returns the field name
func (n *Nav[T]) Field() string {
	return n.field
}

func (n *Nav[T]) label() string {
	return n.owner.ID() + "." + n.field
}

func (n *Nav[T]) init() {
	n.once.Do(func() {
		n.lazy = navigation.New(n.label(), func(ctx context.Context) (T, error) {
			return n.resolve(ctx, n.owner.reg)
		})
	})
}

// Get resolves the field. Access before the registry reaches its
// navigation phase fails with ErrNotReady. The navigation phase runs on one
// goroutine, so a field reached again while it is still resolving is a
// cycle even when the resolver dropped ctx.
func (n *Nav[T]) Get(ctx context.Context) (T, error) {
	r := n.owner.reg
	if r == nil || r.currentPhase() < phaseNavigation {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotReady, n.label())
	}
	n.init()
	if r.currentPhase() == phaseNavigation {
		return n.lazy.TryGet(ctx)
	}
	return n.lazy.Get(ctx)
}

// Value returns the resolved value, or the zero value when the field is
// unresolved or failed. It never resolves.
func (n *Nav[T]) Value() T {
	v, _ := n.Peek()
	return v
}

// Peek returns the cached value without resolving
func (n *Nav[T]) Peek() (T, bool) {
	if n.lazy == nil {
		var zero T
		return zero, false
	}
	return n.lazy.Peek()
}

// Err returns the cached failure, or nil
func (n *Nav[T]) Err() error {
	if n.lazy == nil {
		return nil
	}
	return n.lazy.Err()
}

func (n *Nav[T]) force(ctx context.Context) error {
	_, err := n.Get(ctx)
	return err
}

// UnresolvedError reports a navigation whose target is not in the registry
type UnresolvedError struct {
	From      string // owning type ID
	What      string // e.g. "entity type"
	Reference string
}

func (e *UnresolvedError) Error() string {
	if e.Reference == "" {
		return fmt.Sprintf("could not resolve %s: no reference declared", e.What)
	}
	return fmt.Sprintf("could not resolve %s '%s'", e.What, e.Reference)
}

func (e *UnresolvedError) Unwrap() error {
	return ErrUnresolved
}

// Unresolved builds an *UnresolvedError for owner
func Unresolved(owner Descriptor, what string, ref typeinfo.Ref) *UnresolvedError {
	return &UnresolvedError{From: owner.Type().ID(), What: what, Reference: ref.String()}
}
