package registry

import (
	"reflect"

	"github.com/conduit-lang/typecache/internal/rules"
)

// Category is a descriptor kind: the rules that select its types and the
// constructor that wraps them
type Category struct {
	rules.Set
	Description string

	construct func() Descriptor
	descType  reflect.Type
}

// CategoryOption configures a Category
type CategoryOption func(*Category)

// Any adds rules of which at least one must match
func Any(rs ...rules.Rule) CategoryOption {
	return func(c *Category) { c.Set.Any = append(c.Set.Any, rs...) }
}

// Must adds rules that all have to match
func Must(rs ...rules.Rule) CategoryOption {
	return func(c *Category) { c.Set.Must = append(c.Set.Must, rs...) }
}

// Priority sets the category priority used to settle overlaps
func Priority(p int) CategoryOption {
	return func(c *Category) { c.Set.Priority = p }
}

// Describe sets a one-line description shown by tooling
func Describe(text string) CategoryOption {
	return func(c *Category) { c.Description = text }
}

// Define creates a category whose descriptors are built by construct.
// construct returns a fresh descriptor with a zero Base; the registry
// binds the type afterwards.
func Define[D Descriptor](name string, construct func() D, opts ...CategoryOption) *Category {
	c := &Category{descType: reflect.TypeFor[D]()}
	c.Set.Category = name
	if construct != nil {
		c.construct = func() Descriptor { return construct() }
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name returns the category name
func (c *Category) Name() string {
	return c.Set.Category
}

// DescriptorType returns the Go type of the category's descriptors
func (c *Category) DescriptorType() reflect.Type {
	return c.descType
}

func (c *Category) validate() []error {
	errs := c.Set.Validate()
	if c.construct == nil {
		errs = append(errs, &rules.SetupError{Category: c.Name(), Message: "no descriptor constructor"})
	}
	return errs
}
