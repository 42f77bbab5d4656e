package kinds

import (
	"github.com/conduit-lang/typecache/internal/registry"
)

// TypeView is the serializable summary of one descriptor
type TypeView struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	State    string   `json:"state"`
	Module   string   `json:"module,omitempty"`
	Details  []Detail `json:"details,omitempty"`
}

// View summarizes d
func View(d registry.Descriptor) TypeView {
	return TypeView{
		ID:       d.Type().ID(),
		Category: d.Category(),
		State:    d.State().String(),
		Module:   d.Type().Module,
		Details:  Details(d),
	}
}

// CategoryView is the serializable summary of one category
type CategoryView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority"`
	Count       int    `json:"count"`
}

// Categories summarizes every accepted category of r, sorted by name
func Categories(r *registry.Registry) []CategoryView {
	counts := r.CountByCategory()
	cats := r.Categories()
	out := make([]CategoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryView{
			Name:        c.Name(),
			Description: c.Description,
			Priority:    c.Priority,
			Count:       counts[c.Name()],
		})
	}
	return out
}
