package router_test

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/collection"
	"github.com/xy-planning-network/switchback/dispatch"
	"github.com/xy-planning-network/switchback/http/router"
	"github.com/xy-planning-network/switchback/kernel"
	"github.com/xy-planning-network/switchback/pipeline"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/target"
)

func newRouter(t *testing.T, opts ...router.Option) *router.Router {
	reg := target.NewRegistry()
	in := target.NewIntrospector(reg)
	d, err := dispatch.NewDispatcher(in)
	require.Nil(t, err)

	require.Nil(t, reg.Func("hello", func(name string) string { return "hello " + name }, "name"))
	require.Nil(t, reg.Func("user", func(id int) map[string]int { return map[string]int{"id": id} }, "id"))
	require.Nil(t, reg.Func("vars", func(r *http.Request) string { return mux.Vars(r)["name"] }))
	require.Nil(t, reg.Func("bytes", func() *dispatch.Result {
		return dispatch.OK([]byte("raw")).WithHeader("Content-Type", "image/png")
	}))
	require.Nil(t, reg.Func("nothing", func() {}))

	b := collection.NewBuilder(in)
	for _, def := range []route.Definition{
		route.Get("/hello/{name}", target.Function("hello")),
		route.Get("/users/{id}", target.Function("user"), route.Params(route.Param("id", route.AsInt()))),
		route.Get("/vars/{name}", target.Function("vars")),
		route.Get("/bytes", target.Function("bytes")),
		route.Delete("/nothing", target.Function("nothing")),
		route.Get("/secure", target.Function("hello").With("name", "secret"), route.Secure()),
		route.Redirect("/old", "/hello/new", true),
	} {
		_, err := b.AddRoute(def)
		require.Nil(t, err)
	}

	k, err := kernel.New(b.Freeze(), d, kernel.WithMiddleware(pipeline.RouteMatched, router.Vars()))
	require.Nil(t, err)

	return router.New(k, opts...)
}

func TestServeHTTP(t *testing.T) {
	r := newRouter(t)

	tcs := []struct {
		name        string
		method      string
		path        string
		status      int
		body        string
		contentType string
	}{
		{"text", http.MethodGet, "/hello/ada", http.StatusOK, "hello ada", "text/plain; charset=UTF-8"},
		{"json", http.MethodGet, "/users/7", http.StatusOK, "{\"id\":7}\n", "application/json; charset=UTF-8"},
		{"vars", http.MethodGet, "/vars/grace", http.StatusOK, "grace", "text/plain; charset=UTF-8"},
		{"bytes", http.MethodGet, "/bytes", http.StatusOK, "raw", "image/png"},
		{"no-content", http.MethodDelete, "/nothing", http.StatusNoContent, "", ""},
		{"not-found", http.MethodGet, "/nowhere", http.StatusNotFound, "Not Found", "text/plain; charset=UTF-8"},
		{"insecure", http.MethodGet, "/secure", http.StatusNotFound, "Not Found", "text/plain; charset=UTF-8"},
		{"bad-int", http.MethodGet, "/users/abc", http.StatusNotFound, "Not Found", "text/plain; charset=UTF-8"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)

			// Act
			r.ServeHTTP(w, req)

			// Assert
			require.Equal(t, tc.status, w.Code)
			require.Equal(t, tc.body, w.Body.String())
			require.Equal(t, tc.contentType, w.Header().Get("Content-Type"))
		})
	}
}

func TestServeHTTPMethodNotAllowed(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()

	// Act
	newRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hello/ada", nil))

	// Assert
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, "GET", w.Header().Get("Allow"))
}

func TestServeHTTPRedirect(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()

	// Act
	newRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/old", nil))

	// Assert
	require.Equal(t, http.StatusMovedPermanently, w.Code)
	require.Equal(t, "/hello/new", w.Header().Get("Location"))
}

func TestServeHTTPSecure(t *testing.T) {
	tcs := []struct {
		name string
		req  func() *http.Request
	}{
		{"tls", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			req.TLS = &tls.ConnectionState{}
			return req
		}},
		{"proxy", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			req.Header.Set("X-Forwarded-Proto", "https")
			return req
		}},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()

			// Act
			newRouter(t).ServeHTTP(w, tc.req())

			// Assert
			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, "hello secret", w.Body.String())
		})
	}
}

func TestHandle(t *testing.T) {
	// Arrange
	r := newRouter(t)
	r.Handle("/hello/mounted", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), http.MethodGet)
	r.Handle("/panic", http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	// Act
	mounted := httptest.NewRecorder()
	r.ServeHTTP(mounted, httptest.NewRequest(http.MethodGet, "/hello/mounted", nil))
	panicked := httptest.NewRecorder()
	r.ServeHTTP(panicked, httptest.NewRequest(http.MethodGet, "/panic", nil))
	kernel := httptest.NewRecorder()
	r.ServeHTTP(kernel, httptest.NewRequest(http.MethodGet, "/hello/kernel", nil))

	// Assert
	require.Equal(t, http.StatusTeapot, mounted.Code)
	require.Equal(t, http.StatusInternalServerError, panicked.Code)
	require.Equal(t, "hello kernel", kernel.Body.String())
}

func TestCORS(t *testing.T) {
	// Arrange
	r := newRouter(t, router.WithCORS("https://example.com"), router.WithEnv(switchback.Testing))
	req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()

	// Act
	r.ServeHTTP(w, req)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]int
	require.Nil(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, map[string]int{"id": 1}, body)
}

func TestNewRequest(t *testing.T) {
	// Arrange
	req := httptest.NewRequest(http.MethodGet, "/search?q=go", nil)
	req.RemoteAddr = "203.0.113.9:1234"

	// Act
	actual := router.NewRequest(req)

	// Assert
	require.Equal(t, "/search", actual.Path)
	require.Equal(t, http.MethodGet, actual.Method)
	require.Equal(t, "203.0.113.9", actual.Attribute(kernel.AttrClientIP))
	require.Equal(t, req, actual.Raw)
	require.False(t, actual.Secure)
}
