// Package bundle groups candidate types into immutable, combinable sets.
//
// A Bundle is a tree: its own types plus child bundles. Types returns the
// flattened, deduplicated view, computed once. Combining bundles is set
// union, so the order and grouping of Combine calls never changes the
// resulting type set.
package bundle

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/conduit-lang/typecache/internal/typeinfo"
)

// Name templates. {Types} expands to the number of a bundle's own types,
// {Children} to its number of child bundles.
const (
	TypesTemplate    = "{Types} types"
	ChildrenTemplate = "{Children} bundles"
	NestedTemplate   = "{Types} nested types"
)

// maxListedTypes is the largest own-type list String prints without being
// asked to
const maxListedTypes = 10

// Bundle is an immutable set of candidate types
type Bundle struct {
	name     string
	own      []*typeinfo.Type
	children []*Bundle

	once  sync.Once
	flat  []*typeinfo.Type
	index map[string]*typeinfo.Type
}

// Of creates a bundle from explicit types. Nil entries are skipped.
func Of(types ...*typeinfo.Type) *Bundle {
	return Named(TypesTemplate, types...)
}

// Named creates a bundle from explicit types with a name template
func Named(name string, types ...*typeinfo.Type) *Bundle {
	b := &Bundle{name: name}
	for _, t := range types {
		if t != nil {
			b.own = append(b.own, t)
		}
	}
	return b
}

// Nested creates a bundle holding the nested types of each given type, not
// the types themselves
func Nested(types ...*typeinfo.Type) *Bundle {
	b := &Bundle{name: NestedTemplate}
	for _, t := range types {
		if t == nil {
			continue
		}
		for _, n := range t.Nested {
			if n != nil {
				b.own = append(b.own, n)
			}
		}
	}
	return b
}

// Combine unions bundles. A single bundle is returned unchanged.
func Combine(bundles ...*Bundle) *Bundle {
	return CombineNamed(ChildrenTemplate, bundles...)
}

// CombineNamed is Combine with a name template
func CombineNamed(name string, bundles ...*Bundle) *Bundle {
	var kept []*Bundle
	for _, b := range bundles {
		if b != nil {
			kept = append(kept, b)
		}
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return &Bundle{name: name, children: kept}
}

// Combine unions b with others
func (b *Bundle) Combine(others ...*Bundle) *Bundle {
	return Combine(append([]*Bundle{b}, others...)...)
}

// Types returns the flattened, deduplicated types sorted by ID. When two
// distinct values share an ID, the first one reached depth first wins.
func (b *Bundle) Types() []*typeinfo.Type {
	b.flatten()
	return b.flat
}

// Len returns the number of distinct types
func (b *Bundle) Len() int {
	b.flatten()
	return len(b.flat)
}

// Lookup returns the type with the given ID
func (b *Bundle) Lookup(id string) (*typeinfo.Type, bool) {
	b.flatten()
	t, ok := b.index[id]
	return t, ok
}

// Contains reports whether a type with the given ID is in the bundle
func (b *Bundle) Contains(id string) bool {
	_, ok := b.Lookup(id)
	return ok
}

// IDs returns the sorted IDs of all distinct types
func (b *Bundle) IDs() []string {
	b.flatten()
	ids := make([]string, len(b.flat))
	for i, t := range b.flat {
		ids[i] = t.ID()
	}
	return ids
}

// Own returns the types declared directly on this node
func (b *Bundle) Own() []*typeinfo.Type {
	return b.own
}

// Children returns the child bundles
func (b *Bundle) Children() []*Bundle {
	return b.children
}

// Name returns the expanded name
func (b *Bundle) Name() string {
	r := strings.NewReplacer(
		"{Types}", strconv.Itoa(len(b.own)),
		"{Children}", strconv.Itoa(len(b.children)),
	)
	return r.Replace(b.name)
}

func (b *Bundle) flatten() {
	b.once.Do(func() {
		index := make(map[string]*typeinfo.Type)
		var walk func(*Bundle, map[*Bundle]bool)
		walk = func(n *Bundle, seen map[*Bundle]bool) {
			if seen[n] {
				return
			}
			seen[n] = true
			for _, t := range n.own {
				if _, ok := index[t.ID()]; !ok {
					index[t.ID()] = t
				}
			}
			for _, c := range n.children {
				walk(c, seen)
			}
		}
		walk(b, map[*Bundle]bool{})

		flat := make([]*typeinfo.Type, 0, len(index))
		for _, t := range index {
			flat = append(flat, t)
		}
		sort.Slice(flat, func(i, j int) bool { return flat[i].ID() < flat[j].ID() })
		b.flat = flat
		b.index = index
	})
}

func (b *Bundle) String() string {
	return b.Render(false)
}

// Render draws the bundle tree. Own types are listed when includeTypes is
// set or when a node has few of them.
func (b *Bundle) Render(includeTypes bool) string {
	var sb strings.Builder
	render(&sb, b, 0, includeTypes)
	return sb.String()
}

func render(sb *strings.Builder, b *Bundle, depth int, includeTypes bool) {
	indent := strings.Repeat("│ ", depth)
	fmt.Fprintf(sb, "%s┐%s\n", indent, b.Name())
	fmt.Fprintf(sb, "%s├ Types: %d\n", indent, len(b.own))
	if includeTypes || len(b.own) <= maxListedTypes {
		ids := make([]string, len(b.own))
		for i, t := range b.own {
			ids[i] = t.ID()
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(sb, "%s│   %s\n", indent, id)
		}
	}
	if len(b.children) > 0 {
		fmt.Fprintf(sb, "%s├ Children:\n", indent)
		for _, c := range b.children {
			render(sb, c, depth+1, includeTypes)
		}
	}
}
