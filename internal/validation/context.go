// Package validation accumulates human-readable violations about one subject
// and flattens them into a single error.
//
// A Context never fails fast: every check records a violation and returns,
// so a single run reports everything that is wrong. Sub-validations (for
// example one per property of a type) attach to their parent and appear
// below it in the flattened error.
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/conduit-lang/typecache/internal/errtree"
)

// Violation is a single validation failure
type Violation struct {
	Subject string
	Target  string
	Message string
}

func (v *Violation) Error() string {
	return v.Message
}

// Kind names the error class for structured output
func (v *Violation) Kind() string {
	return "validation"
}

// Label returns the aggregate label used for subject and target
func Label(target, subject string) string {
	return fmt.Sprintf("%s validation failed: '%s' is not valid", target, subject)
}

type entry struct {
	message string
	format  string
	args    []any
	hint    string
}

func (e entry) text() string {
	msg := e.message
	if e.format != "" {
		msg = fmt.Sprintf(e.format, e.args...)
	}
	if e.hint != "" {
		msg += "\n  hint: " + e.hint
	}
	return msg
}

// Context collects violations about one subject
type Context struct {
	target  string
	subject string

	mu      sync.Mutex
	entries []entry
	subs    []errtree.Provider
}

// New creates a context validating subject for target
func New(target, subject string) *Context {
	return &Context{target: target, subject: subject}
}

// Target returns the target label
func (c *Context) Target() string {
	return c.target
}

// Subject returns the subject being validated
func (c *Context) Subject() string {
	return c.subject
}

// Label returns "<target> validation failed: '<subject>' is not valid"
func (c *Context) Label() string {
	return Label(c.target, c.subject)
}

// Violation records message. Non-empty hints are appended to it.
func (c *Context) Violation(message string, hint ...string) {
	c.add(entry{message: message, hint: joinHints(hint)})
}

// Violationf records a formatted message. Formatting is deferred until the
// context is flattened.
func (c *Context) Violationf(format string, args ...any) {
	if format == "" {
		return
	}
	c.add(entry{format: format, args: args})
}

func (c *Context) add(e entry) {
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
}

// Attach adds a sub-validation whose result is nested under this one
func (c *Context) Attach(p errtree.Provider) {
	if p == nil {
		return
	}
	c.mu.Lock()
	c.subs = append(c.subs, p)
	c.mu.Unlock()
}

// HasErrors reports whether anything was recorded here or in a
// sub-validation. Messages are not formatted.
func (c *Context) HasErrors() bool {
	c.mu.Lock()
	if len(c.entries) > 0 {
		c.mu.Unlock()
		return true
	}
	subs := append([]errtree.Provider(nil), c.subs...)
	c.mu.Unlock()

	for _, s := range subs {
		if h, ok := s.(interface{ HasErrors() bool }); ok {
			if h.HasErrors() {
				return true
			}
			continue
		}
		if s.Err() != nil {
			return true
		}
	}
	return false
}

// Messages returns this context's own messages, deduplicated, in the
// order they were first recorded
func (c *Context) Messages() []string {
	c.mu.Lock()
	entries := append([]entry(nil), c.entries...)
	c.mu.Unlock()

	seen := make(map[string]bool, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		msg := e.text()
		if !seen[msg] {
			seen[msg] = true
			out = append(out, msg)
		}
	}
	return out
}

// Err returns nil when nothing was recorded, otherwise an
// *errtree.AggregateError labeled with Label holding one *Violation per
// distinct message followed by each failing sub-validation
func (c *Context) Err() error {
	var errs []error
	for _, msg := range c.Messages() {
		errs = append(errs, &Violation{Subject: c.subject, Target: c.target, Message: msg})
	}

	c.mu.Lock()
	subs := append([]errtree.Provider(nil), c.subs...)
	c.mu.Unlock()
	for _, s := range subs {
		if err := s.Err(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &errtree.AggregateError{Label: c.Label(), Errors: errs}
}

func joinHints(hints []string) string {
	var kept []string
	for _, h := range hints {
		if h = strings.TrimSpace(h); h != "" {
			kept = append(kept, h)
		}
	}
	return strings.Join(kept, "\n  hint: ")
}
