/*
Package manifest declares routes in YAML or TOML files instead of Go.

A manifest lists routes, redirects and the dependencies to construct lazily:

	deferred:
	  - "*github.com/acme/app/mail.Mailer"

	redirects:
	  - path: /old
	    to: /new
	    permanent: true

	routes:
	  - name: users.show
	    path: /users/{id}
	    methods: [GET]
	    target: method:users.Controller.Show
	    params:
	      - name: id
	        cast: int
	    middleware:
	      route_matched: [auth]

A target is either a key, as returned by target.Target.Key, or a table
with kind, func, type, member, ref and args fields.
*/
package manifest
