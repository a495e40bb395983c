/*
Package postgres connects to a PostgreSQL database through GORM
and hydrates entity-cast route parameters from it.

A Hydrator only reads. Tables, and the migrations creating them, belong to the application.
*/
package postgres
