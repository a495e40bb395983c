/*
Package kernel runs a request through the lifecycle of a switchback application.

	RequestReceived
	  └─ match
	       ├─ RouteNotMatched ── 404 / 405
	       └─ RouteMatched
	            └─ dispatch
	                 └─ RouteDispatched
	SendingResult
	Terminated

An error raised at any Stage aborts it and runs ThrowableCaught instead,
whose default renders a 500.
Every Stage shares one *Exchange describing the request.
*/
package kernel
