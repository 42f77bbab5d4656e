package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/typecache/internal/bundle"
	"github.com/conduit-lang/typecache/internal/errtree"
	"github.com/conduit-lang/typecache/internal/kinds"
	"github.com/conduit-lang/typecache/internal/registry"
	"github.com/conduit-lang/typecache/internal/typeinfo"
)

func shopType(name string, implements ...string) *typeinfo.Type {
	t := &typeinfo.Type{Package: "shop", Name: name, Kind: typeinfo.KindStruct, Exported: true}
	for _, ref := range implements {
		t.Interfaces = append(t.Interfaces, typeinfo.MustParseRef(ref))
	}
	return t
}

func sealedRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	b := bundle.Named("shop", shopType("Order", "data.Entity"), shopType("OrderRepository", "data.Reader[shop.Order]"))
	r := registry.Build(context.Background(), b, kinds.Catalog(), nil)
	require.NoError(t, r.Err())
	return r
}

func failedRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	b := bundle.Of(shopType("LostRepository"))
	r := registry.Build(context.Background(), b, kinds.Catalog(), errtree.New("test"))
	require.Error(t, r.Err())
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r := sealedRegistry(t)
	w := get(t, Handler(r, nil), "/healthz")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, Health{Status: "ok", BuildID: r.BuildID(), Sealed: true, Types: 2}, decode[Health](t, w))
}

func TestTypes(t *testing.T) {
	h := Handler(sealedRegistry(t), nil)

	t.Run("all", func(t *testing.T) {
		w := get(t, h, "/types")
		require.Equal(t, http.StatusOK, w.Code)
		views := decode[[]kinds.TypeView](t, w)
		require.Len(t, views, 2)
		assert.Equal(t, "shop.Order", views[0].ID)
		assert.Equal(t, "shop.OrderRepository", views[1].ID)
	})

	t.Run("by category", func(t *testing.T) {
		w := get(t, h, "/types?category=Repository")
		require.Equal(t, http.StatusOK, w.Code)
		views := decode[[]kinds.TypeView](t, w)
		require.Len(t, views, 1)
		assert.Equal(t, kinds.CategoryRepository, views[0].Category)
	})

	t.Run("empty category", func(t *testing.T) {
		w := get(t, h, "/types?category=DataPackage")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})

	t.Run("unknown category", func(t *testing.T) {
		w := get(t, h, "/types?category=Nope")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("one", func(t *testing.T) {
		w := get(t, h, "/types/shop.OrderRepository")
		require.Equal(t, http.StatusOK, w.Code)
		v := decode[kinds.TypeView](t, w)
		assert.Equal(t, "sealed", v.State)
		assert.Contains(t, v.Details, kinds.Detail{Name: "data object", Value: "Entity shop.Order"})
	})

	t.Run("missing", func(t *testing.T) {
		w := get(t, h, "/types/shop.Ordr")
		require.Equal(t, http.StatusNotFound, w.Code)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, CodeNotFound, resp.Error.Code)
		assert.Equal(t, "/types/shop.Ordr", resp.Path)
	})
}

func TestCategories(t *testing.T) {
	h := Handler(sealedRegistry(t), nil)

	w := get(t, h, "/categories")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]kinds.CategoryView](t, w), len(kinds.Catalog()))

	w = get(t, h, "/categories/Entity")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[CategoryDetail](t, w)
	assert.Equal(t, 1, detail.Count)
	require.Len(t, detail.Types, 1)
	assert.Equal(t, "shop.Order", detail.Types[0].ID)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/categories/Nope").Code)
}

func TestBundle(t *testing.T) {
	w := get(t, Handler(sealedRegistry(t), nil), "/bundle")
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[BundleView](t, w)
	assert.Equal(t, "shop", v.Name)
	assert.Equal(t, []string{"shop.Order", "shop.OrderRepository"}, v.Types)
	assert.Contains(t, v.Tree, "shop.OrderRepository")
}

func TestFailedRegistryIsNotServed(t *testing.T) {
	h := Handler(failedRegistry(t), nil)

	w := get(t, h, "/types")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Error struct {
			Code   string `json:"code"`
			Report struct {
				Status  string          `json:"status"`
				Summary errtree.Summary `json:"summary"`
			} `json:"report"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CodeNotSealed, body.Error.Code)
	assert.Equal(t, "error", body.Error.Report.Status)
	assert.Equal(t, 2, body.Error.Report.Summary.ErrorCount)

	w = get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[Health](t, w).Sealed)
}

func TestReadOnly(t *testing.T) {
	h := Handler(sealedRegistry(t), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/types/shop.Order", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, CodeMethodNotAllowed, decode[ErrorResponse](t, w).Error.Code)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/nowhere").Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := Handler(sealedRegistry(t), nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	h := RequestID(Recovery(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	w := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, decode[ErrorResponse](t, w).Error.Code)
}

func TestNewServer(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(DefaultConfig(":0", nil))
	assert.Error(t, err)

	cfg := DefaultConfig("127.0.0.1:8089", http.NotFoundHandler())
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	srv, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8089", srv.Addr())
}

func TestRun(t *testing.T) {
	srv, err := New(DefaultConfig("127.0.0.1:0", Handler(sealedRegistry(t), nil)))
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"sealed":true`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
