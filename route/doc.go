/*
Package route describes endpoints and compiles their paths into matchers.

A path holds literal text and placeholders:

	/users/{id}            required, captured
	/posts/{slug?}         optional; the separator before it is optional too
	/years/{year:\d{4}}    constrained by an inline regular expression

What a placeholder cannot say inline, such as casting its value to an int
or hydrating it into an entity, is declared with [Param].

	def := route.Get("/users/{user}", target.Method("users", "Show"),
		route.Name("users.show"),
		route.Params(route.Param("user", route.AsEntity(target.TypeOf[*User](), "id"))),
	)

	compiled, err := route.Build(def, introspector)
*/
package route
