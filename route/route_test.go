package route_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/pipeline"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/target"
)

type stubIntrospector struct {
	deps []target.TypeID
	err  error
}

func (s stubIntrospector) DependenciesFor(target.Target) ([]target.TypeID, error) {
	return s.deps, s.err
}

func TestBuild(t *testing.T) {
	// Arrange
	def := route.New("users/{id}/", target.Function("show"),
		route.Methods("post", "GET", "get"),
		route.Name("users.show"),
		route.Use(pipeline.RouteMatched, "auth"),
	)

	// Act
	actual, err := route.Build(def, nil)

	// Assert
	require.Nil(t, err)
	require.Equal(t, "/users/{id}", actual.Path)
	require.Equal(t, []string{"GET", "POST"}, actual.Methods)
	require.True(t, actual.Dynamic)
	require.Equal(t, `^/users/(?P<id>[^/]+)$`, actual.Pattern)
	require.Len(t, actual.ID, 16)
	require.Nil(t, actual.Dependencies)
	require.True(t, actual.Allows("GET"))
	require.False(t, actual.Allows("PUT"))
}

func TestBuildStatic(t *testing.T) {
	// Act
	actual, err := route.Build(route.Get("/", target.Function("home")), nil)

	// Assert
	require.Nil(t, err)
	require.False(t, actual.Dynamic)
	require.Empty(t, actual.Pattern)

	captures, ok := actual.Match("/")
	require.True(t, ok)
	require.Nil(t, captures)

	_, ok = actual.Match("/other")
	require.False(t, ok)
}

func TestBuildErrors(t *testing.T) {
	errIntrospect := errors.New("introspect")

	tcs := []struct {
		name string
		def  route.Definition
		in   route.Introspector
		err  error
	}{
		{"no-methods", route.New("/", target.Function("home")), nil, route.ErrNoMethods},
		{"blank-methods", route.New("/", target.Function("home"), route.Methods(" ")), nil, route.ErrNoMethods},
		{"invalid-target", route.Get("/", target.Function("")), nil, switchback.ErrMissingData},
		{"bad-stage", route.Get("/", target.Function("home"), route.Use(pipeline.StageUnknown, "x")), nil, switchback.ErrNotValid},
		{"pattern", route.Get("/{a}/{a}", target.Function("home")), nil, route.ErrDuplicateParameter},
		{"introspection", route.Get("/", target.Function("home")), stubIntrospector{err: errIntrospect}, errIntrospect},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			_, err := route.Build(tc.def, tc.in)

			// Assert
			require.ErrorIs(t, err, tc.err)
			var ce *route.CompileError
			require.ErrorAs(t, err, &ce)
		})
	}
}

func TestBuildDependencies(t *testing.T) {
	// Arrange
	user := target.TypeID("*app.User")
	repo := target.TypeID("*app.Repo")
	in := stubIntrospector{deps: []target.TypeID{repo, user}}
	def := route.Get("/users/{user}", target.Function("show"),
		route.Params(route.Param("user", route.AsEntity(user, "id"))),
	)

	// Act
	actual, err := route.Build(def, in)

	// Assert
	require.Nil(t, err)
	require.Equal(t, []target.TypeID{repo}, actual.Dependencies)
}

func TestBuildID(t *testing.T) {
	// Arrange
	a := route.Get("/users/{id}", target.Function("show").With("x", 1), route.Methods("POST"))
	b := route.New("/users/{id}/", target.Function("show").With("x", 1), route.Methods("post", "get"))
	c := route.Get("/users/{id}", target.Function("show").With("x", 2), route.Methods("POST"))
	d := route.Get("/users/{id}", target.Function("show").With("x", 1), route.Methods("POST"),
		route.Params(route.Param("id", route.AsInt())),
	)

	// Act
	ba, errA := route.Build(a, nil)
	bb, errB := route.Build(b, nil)
	bc, errC := route.Build(c, nil)
	bd, errD := route.Build(d, nil)
	again, errAgain := route.Build(a, nil)

	// Assert
	require.Nil(t, errA)
	require.Nil(t, errB)
	require.Nil(t, errC)
	require.Nil(t, errD)
	require.Nil(t, errAgain)
	require.Equal(t, ba.ID, bb.ID)
	require.Equal(t, ba.ID, again.ID)
	require.NotEqual(t, ba.ID, bc.ID)
	require.NotEqual(t, ba.ID, bd.ID)
}

func TestMatch(t *testing.T) {
	tcs := []struct {
		name     string
		def      route.Definition
		path     string
		ok       bool
		captures []route.Capture
	}{
		{
			"alpha-constraint-matches",
			route.Get("/parameters/{name:[a-zA-Z]+}", target.Function("f")),
			"/parameters/abc",
			true,
			[]route.Capture{{Param: route.Param("name", route.Constraint("[a-zA-Z]+")), Raw: "abc", Present: true}},
		},
		{
			"alpha-constraint-rejects",
			route.Get("/parameters/{name:[a-zA-Z]+}", target.Function("f")),
			"/parameters/123",
			false,
			nil,
		},
		{
			"optional-absent",
			route.Get("/{name?}", target.Function("f")),
			"/",
			true,
			[]route.Capture{{Param: route.Param("name", route.Optional())}},
		},
		{
			"optional-present",
			route.Get("/{name?}", target.Function("f")),
			"/value",
			true,
			[]route.Capture{{Param: route.Param("name", route.Optional()), Raw: "value", Present: true}},
		},
		{
			"uncaptured-skipped",
			route.Get("/{lang}/{id}", target.Function("f"), route.Params(route.Param("lang", route.Uncaptured()))),
			"/en/7",
			true,
			[]route.Capture{{Param: route.Param("id"), Raw: "7", Present: true}},
		},
		{
			"anchored",
			route.Get("/users/{id}", target.Function("f")),
			"/users/7/edit",
			false,
			nil,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			def, err := route.Build(tc.def, nil)
			require.Nil(t, err)

			// Act
			captures, ok := def.Match(tc.path)

			// Assert
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.captures, captures)
		})
	}
}

func TestRestore(t *testing.T) {
	// Arrange
	built, err := route.Build(route.Get("/users/{id}", target.Function("f")), nil)
	require.Nil(t, err)
	plain := *built

	// Act
	restored, err := route.Restore(plain)

	// Assert
	require.Nil(t, err)
	captures, ok := restored.Match("/users/9")
	require.True(t, ok)
	require.Equal(t, "9", captures[0].Raw)

	// Arrange
	plain.Pattern = "("

	// Act
	_, err = route.Restore(plain)

	// Assert
	require.ErrorIs(t, err, route.ErrInvalidRegex)
}

func TestRedirect(t *testing.T) {
	// Act
	def := route.Redirect("/old", "/new", true, route.Name("old"))

	// Assert
	require.Equal(t, []string{"GET"}, def.Methods)
	require.Equal(t, "old", def.Name)
	require.Equal(t, target.InlineCallable, def.Target.Kind)
	require.Equal(t, route.RedirectRef, def.Target.Ref)
	require.Equal(t, map[string]any{"to": "/new", "permanent": true}, def.Target.Args)
}

func TestURL(t *testing.T) {
	tcs := []struct {
		name     string
		path     string
		values   map[string]any
		expected string
		err      error
	}{
		{"static", "/about", nil, "/about", nil},
		{"required", "/users/{id:\\d+}", map[string]any{"id": 7}, "/users/7", nil},
		{"optional-present", "/posts/{slug?}", map[string]any{"slug": "hello world"}, "/posts/hello%20world", nil},
		{"optional-absent", "/posts/{slug?}", nil, "/posts", nil},
		{"root-optional-absent", "/{name?}", nil, "/", nil},
		{"missing", "/users/{id}", nil, "", switchback.ErrMissingData},
		{"constraint", "/users/{id:\\d+}", map[string]any{"id": "abc"}, "", switchback.ErrNotValid},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			def, err := route.Build(route.Get(tc.path, target.Function("f")), nil)
			require.Nil(t, err)

			// Act
			actual, err := def.URL(tc.values)

			// Assert
			require.ErrorIs(t, err, tc.err)
			require.Equal(t, tc.expected, actual)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	for in, expected := range map[string]string{
		"":        "/",
		"/":       "/",
		"//":      "/",
		"users":   "/users",
		"/users/": "/users",
	} {
		require.Equal(t, expected, route.NormalizePath(in))
	}
}
