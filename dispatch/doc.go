/*
Package dispatch invokes route targets.

A [Dispatcher] binds a route's target, fills its parameters from explicit arguments,
route values and a [Resolver], calls it, and normalizes what it returns into a [*Result].
A [Container] is the Resolver the rest of switchback uses.

	c := dispatch.NewContainer()
	c.Set(repo)
	dispatch.Bind[Mailer](c, smtp)
	c.Defer(target.TypeOf[*Search](), func(ctx context.Context, r dispatch.Resolver) (any, error) {
		return search.Connect(ctx)
	})
*/
package dispatch
