// Package errtree collects errors from many independent sources into a
// labeled tree that can be flattened into a single error.
//
// A Node is safe for concurrent use. Errors and children are kept in
// insertion order, and flattening prunes every subtree that holds no errors.
package errtree

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Provider is anything that can report its accumulated errors as a single
// error value, or nil when it has none.
type Provider interface {
	Err() error
}

// Node is one level of an error tree
type Node struct {
	label string

	mu       sync.Mutex
	errs     []error
	children []Provider
}

// New creates an empty root node with the given label
func New(label string) *Node {
	return &Node{label: label}
}

// Label returns the node's label
func (n *Node) Label() string {
	return n.label
}

// Add records err on this node. A nil error is ignored.
func (n *Node) Add(err error) {
	if err == nil {
		return
	}
	n.mu.Lock()
	n.errs = append(n.errs, err)
	n.mu.Unlock()
}

// AddAll records every non-nil error in errs
func (n *Node) AddAll(errs ...error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, err := range errs {
		if err != nil {
			n.errs = append(n.errs, err)
		}
	}
}

// Child creates and attaches a new empty child node
func (n *Node) Child(label string) *Node {
	child := New(label)
	n.AddChild(child)
	return child
}

// ChildWith attaches a child holding errs. No child is created when errs
// contains no non-nil error; in that case nil is returned.
func (n *Node) ChildWith(label string, errs []error) *Node {
	var kept []error
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	child := &Node{label: label, errs: kept}
	n.AddChild(child)
	return child
}

// AddChild attaches an arbitrary provider whose errors are pulled in when
// the tree is flattened
func (n *Node) AddChild(p Provider) {
	if p == nil {
		return
	}
	n.mu.Lock()
	n.children = append(n.children, p)
	n.mu.Unlock()
}

// Try runs fn and records the error it returns. A panic inside fn is
// recovered and recorded as a *PanicError.
func (n *Node) Try(fn func() error) {
	n.Add(capture(fn))
}

// TryChild runs fn against a new child node. The child is attached whether
// or not fn fails, so anything fn records before failing is kept.
func (n *Node) TryChild(label string, fn func(child *Node) error) {
	child := n.Child(label)
	child.Try(func() error { return fn(child) })
}

// HasErrors reports whether the node or any descendant holds an error
func (n *Node) HasErrors() bool {
	n.mu.Lock()
	if len(n.errs) > 0 {
		n.mu.Unlock()
		return true
	}
	children := append([]Provider(nil), n.children...)
	n.mu.Unlock()

	for _, c := range children {
		if h, ok := c.(interface{ HasErrors() bool }); ok {
			if h.HasErrors() {
				return true
			}
			continue
		}
		if c.Err() != nil {
			return true
		}
	}
	return false
}

// Err flattens the tree. It returns nil when the node and all descendants
// are empty, otherwise an *AggregateError holding this node's errors
// followed by each non-empty child in insertion order.
func (n *Node) Err() error {
	n.mu.Lock()
	errs := append([]error(nil), n.errs...)
	children := append([]Provider(nil), n.children...)
	n.mu.Unlock()

	for _, c := range children {
		if err := c.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Label: n.label, Errors: errs}
}

// Check returns the flattened error when the tree is non-empty, calling
// onFail first when it is not nil
func (n *Node) Check(onFail func()) error {
	err := n.Err()
	if err == nil {
		return nil
	}
	if onFail != nil {
		onFail()
	}
	return err
}

// PanicError is recorded when a function run through Try panics
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Capture runs fn, converting a panic into a *PanicError
func Capture(fn func() error) error {
	return capture(fn)
}

func capture(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
