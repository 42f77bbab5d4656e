package benchmarks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/conduit-lang/typecache/internal/bundle"
	"github.com/conduit-lang/typecache/internal/kinds"
	"github.com/conduit-lang/typecache/internal/registry"
	"github.com/conduit-lang/typecache/internal/server"
	"github.com/conduit-lang/typecache/internal/typeinfo"
)

// shop returns n entities, each with a repository and a GraphQL object
func shop(n int) *bundle.Bundle {
	types := make([]*typeinfo.Type, 0, 3*n)
	for i := 0; i < n; i++ {
		entity := fmt.Sprintf("E%04d", i)
		types = append(types,
			&typeinfo.Type{
				Package: "shop", Name: entity, Kind: typeinfo.KindStruct, Exported: true,
				Interfaces: []typeinfo.Ref{typeinfo.R("data.Entity")},
			},
			&typeinfo.Type{
				Package: "shop", Name: entity + "View", Kind: typeinfo.KindStruct, Exported: true,
				Interfaces: []typeinfo.Ref{typeinfo.R("graphql.DataObject", typeinfo.R("shop."+entity))},
			},
			&typeinfo.Type{
				Package: "shop", Name: entity + "Repository", Kind: typeinfo.KindStruct, Exported: true,
				Interfaces: []typeinfo.Ref{typeinfo.R("data.Reader", typeinfo.R("shop."+entity+"View"))},
			},
		)
	}
	return bundle.Named("shop", types...)
}

func build(b *testing.B, bnd *bundle.Bundle, opts ...registry.Option) *registry.Registry {
	r := registry.Build(context.Background(), bnd, kinds.Catalog(), nil, opts...)
	if err := r.Err(); err != nil {
		b.Fatalf("build failed: %v", err)
	}
	return r
}

// BenchmarkBuild benchmarks a full registry build at several sizes
func BenchmarkBuild(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		bnd := shop(n)
		b.Run(fmt.Sprintf("types=%d", 3*n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				build(b, bnd)
			}
		})
	}
}

// BenchmarkBuildSingleWorker benchmarks a build without parallel phases
func BenchmarkBuildSingleWorker(b *testing.B) {
	bnd := shop(1000)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		build(b, bnd, registry.WithWorkers(1))
	}
}

// BenchmarkGetByID benchmarks typed lookup on a sealed registry
func BenchmarkGetByID(b *testing.B) {
	r := build(b, shop(1000))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := registry.GetByID[*kinds.Repository](r, "shop.E0500Repository"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkAll benchmarks a filtered scan over one category
func BenchmarkAll(b *testing.B) {
	r := build(b, shop(1000))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		n := 0
		for range kinds.Entities(r) {
			n++
		}
		if n != 1000 {
			b.Fatalf("expected 1000 entities, got %d", n)
		}
	}
}

// BenchmarkHandlerType benchmarks the single-type API route
func BenchmarkHandlerType(b *testing.B) {
	h := server.Handler(build(b, shop(100)), nil)
	req := httptest.NewRequest(http.MethodGet, "/types/shop.E0050Repository", nil)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}

// BenchmarkConcurrentRequests benchmarks concurrent reads of the type list
func BenchmarkConcurrentRequests(b *testing.B) {
	srv := httptest.NewServer(server.Handler(build(b, shop(100)), nil))
	defer srv.Close()

	client := &http.Client{}

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			resp, err := client.Get(srv.URL + "/types?category=Entity")
			if err != nil {
				b.Error(err)
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	})
}
