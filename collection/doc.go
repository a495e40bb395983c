/*
Package collection indexes compiled routes and matches requests against them.

Routes are added to a [Builder], which is frozen into a [Collection].
A Collection holds a table of static routes keyed by method and path,
an ordered list of dynamic routes, routes by name, and the services marked deferred.
It can be encoded with [Collection.Snapshot] and restored with [Load]
so a process need not recompile its routes on boot.
*/
package collection
