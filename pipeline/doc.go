/*
Package pipeline provides the ordered, short-circuiting middleware chain
run at each Stage of a request's lifecycle.

A Pipeline is generic over its context C and result R
so the same machinery serves every Stage.
*/
package pipeline
