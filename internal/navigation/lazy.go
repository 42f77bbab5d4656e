// Package navigation provides memoized, cycle-safe lazy references.
//
// A Lazy resolves its value on first access and caches the outcome for good,
// including failures. The chain of fields currently being resolved travels
// in the context, so a resolver that reaches back into a field already on
// its chain gets a *CycleError instead of recursing forever.
//
// Resolution is meant to run on one goroutine at a time. Two goroutines
// resolving mutually dependent fields from opposite ends would block on
// each other's locks.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/conduit-lang/typecache/internal/errtree"
)

// ErrCycle is matched by every CycleError
var ErrCycle = errors.New("navigation cycle")

// CycleError reports a resolution chain that re-entered one of its own
// fields. Path starts and ends with the re-entered field.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// Closed returns the field at which the cycle closed
func (e *CycleError) Closed() string {
	if len(e.Path) == 0 {
		return ""
	}
	return e.Path[0]
}

// Kind names the error class for structured output
func (e *CycleError) Kind() string {
	return "navigation-cycle"
}

// State is the resolution state of a Lazy
type State int32

const (
	Pending State = iota
	Resolving
	Resolved
	Failed
	CycleDetected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	case CycleDetected:
		return "cycle-detected"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Resolver computes a lazy value. The context carries the resolution chain
// and must be passed on to any Lazy the resolver reads.
type Resolver[T any] func(ctx context.Context) (T, error)

// Lazy is a memoized reference
type Lazy[T any] struct {
	label   string
	resolve Resolver[T]

	mu    sync.Mutex
	done  atomic.Bool
	state atomic.Int32
	cycle atomic.Pointer[CycleError]
	value T
	err   error
}

// New creates an unresolved Lazy. The label names the field in cycle paths.
func New[T any](label string, resolve Resolver[T]) *Lazy[T] {
	return &Lazy[T]{label: label, resolve: resolve}
}

// Ready creates a Lazy that already holds v
func Ready[T any](label string, v T) *Lazy[T] {
	l := &Lazy[T]{label: label, value: v}
	l.state.Store(int32(Resolved))
	l.done.Store(true)
	return l
}

// Label returns the field label
func (l *Lazy[T]) Label() string {
	return l.label
}

// State returns the current resolution state
func (l *Lazy[T]) State() State {
	return State(l.state.Load())
}

// Done reports whether the outcome is cached
func (l *Lazy[T]) Done() bool {
	return l.done.Load()
}

// Peek returns the cached value without resolving. ok is false when the
// field is unresolved or failed.
func (l *Lazy[T]) Peek() (v T, ok bool) {
	if !l.done.Load() || l.err != nil {
		return v, false
	}
	return l.value, true
}

// Err returns the cached failure, or nil
func (l *Lazy[T]) Err() error {
	if !l.done.Load() {
		return nil
	}
	return l.err
}

// Get returns the value, resolving it on first access. A resolver that
// reaches this field again through a context without the chain, such as
// context.Background(), blocks forever; use TryGet when resolution runs on
// a single goroutine.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	return l.get(ctx, false)
}

// TryGet is Get for callers that resolve on one goroutine. A field whose
// resolution is already in progress is treated as re-entered and yields a
// *CycleError instead of waiting, even when the chain was lost.
func (l *Lazy[T]) TryGet(ctx context.Context) (T, error) {
	return l.get(ctx, true)
}

func (l *Lazy[T]) get(ctx context.Context, exclusive bool) (T, error) {
	if l.done.Load() {
		return l.value, l.err
	}

	c := chainFrom(ctx)
	if c.contains(l) {
		return l.reentered(&CycleError{Path: c.pathTo(l)})
	}

	if exclusive {
		if !l.mu.TryLock() {
			return l.reentered(&CycleError{Path: []string{l.label, l.label}})
		}
	} else {
		l.mu.Lock()
	}
	defer l.mu.Unlock()
	if l.done.Load() {
		return l.value, l.err
	}
	l.state.Store(int32(Resolving))

	var v T
	err := errtree.Capture(func() error {
		var rerr error
		v, rerr = l.resolve(withChain(ctx, c, l))
		return rerr
	})

	var next State
	var cerr *CycleError
	switch {
	case l.cycle.Load() != nil:
		var zero T
		v, err = zero, l.cycle.Load()
		next = CycleDetected
	case errors.As(err, &cerr):
		next = CycleDetected
	case err != nil:
		next = Failed
	default:
		next = Resolved
	}
	if err != nil {
		var zero T
		v = zero
	}

	l.value, l.err = v, err
	l.state.Store(int32(next))
	l.done.Store(true)
	return v, err
}

// reentered records cerr for the resolution in progress and returns it
func (l *Lazy[T]) reentered(cerr *CycleError) (T, error) {
	l.cycle.CompareAndSwap(nil, cerr)
	var zero T
	return zero, cerr
}

type chainKey struct{}

// chain is an immutable linked list of fields being resolved, innermost
// first
type chain struct {
	field  any
	label  string
	parent *chain
}

func chainFrom(ctx context.Context) *chain {
	c, _ := ctx.Value(chainKey{}).(*chain)
	return c
}

func withChain[T any](ctx context.Context, parent *chain, l *Lazy[T]) context.Context {
	return context.WithValue(ctx, chainKey{}, &chain{field: l, label: l.label, parent: parent})
}

func (c *chain) contains(field any) bool {
	for n := c; n != nil; n = n.parent {
		if n.field == field {
			return true
		}
	}
	return false
}

// pathTo lists labels from field down to the innermost entry, then field
// again
func (c *chain) pathTo(field any) []string {
	var rev []string
	var label string
	for n := c; n != nil; n = n.parent {
		rev = append(rev, n.label)
		if n.field == field {
			label = n.label
			break
		}
	}
	path := make([]string, 0, len(rev)+1)
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return append(path, label)
}

// Chain returns the labels of the fields being resolved on ctx, outermost
// first
func Chain(ctx context.Context) []string {
	var rev []string
	for n := chainFrom(ctx); n != nil; n = n.parent {
		rev = append(rev, n.label)
	}
	out := make([]string, len(rev))
	for i, l := range rev {
		out[len(rev)-1-i] = l
	}
	return out
}
