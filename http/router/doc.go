/*
Package router serves a kernel.Kernel over HTTP.

A [*Router] converts each *http.Request into a kernel.Request,
lets the kernel run it through every stage,
and writes the resulting dispatch.Result back out:
its headers, its Location, its status and its body,
as plain text for strings and bytes or as JSON for anything else.

Endpoints living outside the route collection, such as a metrics endpoint,
can be mounted with Handle. They are matched before the kernel sees a request.

A [*Router] recovers panics with gorilla/handlers and,
outside development, reports them to Sentry first.
Targets can read path values through mux.Vars
when the Vars middleware runs at the RouteMatched stage.
*/
package router
