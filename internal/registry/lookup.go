package registry

import (
	"iter"
	"reflect"

	"github.com/conduit-lang/typecache/internal/typeinfo"
)

// Get returns the descriptor of t when it was classified into the
// category whose descriptors are D
func Get[D Descriptor](r *Registry, t *typeinfo.Type) (D, error) {
	return GetByID[D](r, t.ID())
}

// GetRef is Get for a type reference. Instantiation arguments are ignored.
func GetRef[D Descriptor](r *Registry, ref typeinfo.Ref) (D, error) {
	return GetByID[D](r, ref.Name)
}

// GetByID is Get for a type ID
func GetByID[D Descriptor](r *Registry, id string) (D, error) {
	var zero D
	d, ok := r.Lookup(id)
	if !ok {
		return zero, &LookupError{ID: id, Want: wantName[D](r), Reason: ErrNotFound}
	}
	typed, ok := d.(D)
	if !ok {
		return zero, &LookupError{ID: id, Want: wantName[D](r), Got: d.Category(), Reason: ErrWrongCategory}
	}
	return typed, nil
}

// TryGet is Get reporting a miss with false
func TryGet[D Descriptor](r *Registry, t *typeinfo.Type) (D, bool) {
	d, err := Get[D](r, t)
	return d, err == nil
}

// TryGetRef is GetRef reporting a miss with false
func TryGetRef[D Descriptor](r *Registry, ref typeinfo.Ref) (D, bool) {
	d, err := GetRef[D](r, ref)
	return d, err == nil
}

// TryGetByID is GetByID reporting a miss with false
func TryGetByID[D Descriptor](r *Registry, id string) (D, bool) {
	d, err := GetByID[D](r, id)
	return d, err == nil
}

// All iterates, in type ID order, over the descriptors of type D accepted
// by pred. A nil pred accepts everything. The sequence can be ranged over
// any number of times.
//
// All is not restricted to sealed registries: it yields as soon as every
// descriptor is constructed, so a resolver or hook running during the build
// sees descriptors that have not finished initializing. Check Sealed when
// that matters.
func All[D Descriptor](r *Registry, pred func(D) bool) iter.Seq[D] {
	return func(yield func(D) bool) {
		if r == nil || r.currentPhase() < phaseBasic {
			return
		}
		for _, d := range r.ordered {
			typed, ok := d.(D)
			if !ok {
				continue
			}
			if pred != nil && !pred(typed) {
				continue
			}
			if !yield(typed) {
				return
			}
		}
	}
}

func wantName[D Descriptor](r *Registry) string {
	rt := reflect.TypeFor[D]()
	if r != nil {
		for _, c := range r.categories {
			if c.descType == rt {
				return c.Name()
			}
		}
	}
	return rt.String()
}
