package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/conduit-lang/typecache/internal/errtree"
	"github.com/conduit-lang/typecache/internal/kinds"
	"github.com/conduit-lang/typecache/internal/registry"
)

// Health is the body of /healthz
type Health struct {
	Status  string `json:"status"`
	BuildID string `json:"build_id"`
	Sealed  bool   `json:"sealed"`
	Types   int    `json:"types"`
}

// CategoryDetail is a category with its descriptors
type CategoryDetail struct {
	kinds.CategoryView
	Types []kinds.TypeView `json:"types"`
}

// BundleView describes the bundle a registry was built from
type BundleView struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
	Tree  string   `json:"tree"`
}

type api struct {
	reg *registry.Registry
	log *zap.Logger
}

// Handler returns the read-only API over reg. Every route except
// /healthz answers 503 until reg is sealed.
func Handler(reg *registry.Registry, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	a := &api{reg: reg, log: log}

	r := chi.NewRouter()
	r.Use(RequestID, Recovery(log), Logging(log))
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", a.health)
	r.Group(func(r chi.Router) {
		r.Use(a.requireSealed)
		r.Get("/categories", a.listCategories)
		r.Get("/categories/{name}", a.getCategory)
		r.Get("/types", a.listTypes)
		r.Get("/types/{id}", a.getType)
		r.Get("/bundle", a.getBundle)
	})
	return r
}

func (a *api) requireSealed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.reg.Sealed() {
			report := errtree.NewReport(a.reg.Err())
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
				Error: ErrorDetail{
					Code:    CodeNotSealed,
					Message: "The registry build failed; nothing is served until it is sealed",
					Report:  &report,
				},
				Status: http.StatusServiceUnavailable,
				Path:   r.URL.Path,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !a.reg.Sealed() {
		status = "failed"
	}
	writeJSON(w, http.StatusOK, Health{
		Status:  status,
		BuildID: a.reg.BuildID(),
		Sealed:  a.reg.Sealed(),
		Types:   a.reg.Count(),
	})
}

func (a *api) listCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, kinds.Categories(a.reg))
}

func (a *api) getCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, c := range kinds.Categories(a.reg) {
		if c.Name == name {
			writeJSON(w, http.StatusOK, CategoryDetail{CategoryView: c, Types: a.views(name)})
			return
		}
	}
	WriteError(w, r, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Unknown category '%s'", name))
}

func (a *api) listTypes(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" {
		if _, ok := a.reg.Category(category); !ok {
			WriteError(w, r, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Unknown category '%s'", category))
			return
		}
	}
	writeJSON(w, http.StatusOK, a.views(category))
}

func (a *api) getType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, ok := a.reg.Lookup(id)
	if !ok {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, fmt.Sprintf("No descriptor for type '%s'", id))
		return
	}
	writeJSON(w, http.StatusOK, kinds.View(d))
}

func (a *api) getBundle(w http.ResponseWriter, r *http.Request) {
	b := a.reg.Bundle()
	writeJSON(w, http.StatusOK, BundleView{
		Name:  b.Name(),
		Types: b.IDs(),
		Tree:  b.Render(true),
	})
}

// views summarizes the descriptors of one category, or of all when
// category is empty
func (a *api) views(category string) []kinds.TypeView {
	out := []kinds.TypeView{}
	if category != "" {
		for _, d := range a.reg.ByCategory(category) {
			out = append(out, kinds.View(d))
		}
		return out
	}
	for d := range a.reg.Descriptors() {
		out = append(out, kinds.View(d))
	}
	return out
}
