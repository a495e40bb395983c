package collection_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/collection"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/target"
)

func newCollection(t *testing.T, defs ...route.Definition) *collection.Collection {
	b := collection.NewBuilder(nil)
	for _, def := range defs {
		_, err := b.AddRoute(def)
		require.Nil(t, err)
	}

	return b.Freeze()
}

func sampleRoutes() []route.Definition {
	return []route.Definition{
		route.Get("/{name?}", target.Function("greet"), route.Name("greet")),
		route.Get("/", target.Function("home"), route.Name("home")),
		route.Get("/parameters/{name:[a-zA-Z]+}", target.Function("param")),
		route.Get("/users/{id}", target.Function("users.show"), route.Name("users.show"),
			route.Params(route.Param("id", route.AsInt())),
		),
		route.Put("/users/{id}", target.Function("users.update")),
		route.Get("/users/new", target.Function("users.new")),
		route.Post("/users", target.Function("users.create")),
		route.Redirect("/old", "/new", true),
	}
}

func TestMatch(t *testing.T) {
	c := newCollection(t, sampleRoutes()...)

	tcs := []struct {
		name     string
		method   string
		path     string
		kind     collection.OutcomeKind
		target   string
		captures []string
		allowed  []string
	}{
		{"static-root-wins", "GET", "/", collection.Matched, "home", nil, nil},
		{"optional-present", "GET", "/value", collection.Matched, "greet", []string{"value"}, nil},
		{"alpha-constraint", "GET", "/parameters/abc", collection.Matched, "param", []string{"abc"}, nil},
		{"alpha-constraint-rejects", "GET", "/parameters/123", collection.NotFound, "", nil, nil},
		{"static-before-dynamic", "GET", "/users/new", collection.Matched, "users.new", nil, nil},
		{"dynamic", "GET", "/users/7", collection.Matched, "users.show", []string{"7"}, nil},
		{"dynamic-other-method", "PUT", "/users/7", collection.Matched, "users.update", []string{"7"}, nil},
		{"lowercase-method", "get", "/users/7/", collection.Matched, "users.show", []string{"7"}, nil},
		{"int-constraint", "GET", "/users/abc", collection.MethodNotAllowed, "", nil, []string{"PUT"}},
		{"method-not-allowed", "DELETE", "/users/7", collection.MethodNotAllowed, "", nil, []string{"GET", "PUT"}},
		{"static-method-not-allowed", "DELETE", "/users", collection.MethodNotAllowed, "", nil, []string{"GET", "POST"}},
		{"head-not-implied", "HEAD", "/", collection.MethodNotAllowed, "", nil, []string{"GET"}},
		{"not-found", "GET", "/a/b/c", collection.NotFound, "", nil, nil},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			actual := c.Match(tc.method, tc.path)

			// Assert
			require.Equal(t, tc.kind, actual.Kind, actual.Kind.String())
			require.Equal(t, tc.allowed, actual.Allowed)

			if tc.kind != collection.Matched {
				require.Nil(t, actual.Route)
				return
			}

			require.Equal(t, tc.target, actual.Route.Target.Func)

			var raw []string
			for _, capture := range actual.Captures {
				raw = append(raw, capture.Raw)
			}
			require.Equal(t, tc.captures, raw)
		})
	}
}

func TestMatchOptionalAbsent(t *testing.T) {
	// Arrange
	c := newCollection(t, route.Get("/{name?}", target.Function("greet")))

	// Act
	actual := c.Match("GET", "/")

	// Assert
	require.Equal(t, collection.Matched, actual.Kind)
	require.Len(t, actual.Captures, 1)
	require.False(t, actual.Captures[0].Present)
}

func TestMatchRegistrationOrder(t *testing.T) {
	// Arrange
	c := newCollection(t,
		route.Get("/posts/{slug}", target.Function("first")),
		route.Get("/posts/{id:\\d+}", target.Function("second")),
	)

	// Act
	actual := c.Match("GET", "/posts/12")

	// Assert
	require.Equal(t, "first", actual.Route.Target.Func)
}

func TestCollectionLookups(t *testing.T) {
	// Arrange
	c := newCollection(t, sampleRoutes()...)

	// Act
	d, ok := c.Route("users.show")
	_, missing := c.Route("nope")

	// Assert
	require.True(t, ok)
	require.Equal(t, "/users/{id}", d.Path)
	require.False(t, missing)
	require.Len(t, c.Routes(), len(sampleRoutes()))
	require.Equal(t, "/{name?}", c.Routes()[0].Path)
}

func TestCollectionURL(t *testing.T) {
	// Arrange
	c := newCollection(t, sampleRoutes()...)

	tcs := []struct {
		name     string
		route    string
		values   map[string]any
		expected string
		err      error
	}{
		{"dynamic", "users.show", map[string]any{"id": 7}, "/users/7", nil},
		{"optional-absent", "greet", nil, "/", nil},
		{"optional-present", "greet", map[string]any{"name": "ada"}, "/ada", nil},
		{"int-constraint", "users.show", map[string]any{"id": "x"}, "", switchback.ErrNotValid},
		{"unknown", "nope", nil, "", switchback.ErrNotExist},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			actual, err := c.URL(tc.route, tc.values)

			// Assert
			require.ErrorIs(t, err, tc.err)
			require.Equal(t, tc.expected, actual)
		})
	}
}

func TestMatchEscapedStatic(t *testing.T) {
	tcs := []struct {
		name string
		path string
		kind collection.OutcomeKind
	}{
		{"literal-braces", "/a{b}", collection.Matched},
		{"backslashes-not-requested", `/a\{b\}`, collection.NotFound},
	}

	// Arrange
	c := newCollection(t, route.Get(`/a\{b\}`, target.Function("braces")))
	snap, err := c.Snapshot()
	require.Nil(t, err)
	restored, err := collection.Load(snap)
	require.Nil(t, err)

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			for _, col := range []*collection.Collection{c, restored} {
				// Act
				actual := col.Match("GET", tc.path)

				// Assert
				require.Equal(t, tc.kind, actual.Kind, actual.Kind.String())
			}
		})
	}
}
