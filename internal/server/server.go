// package server contains the router, middleware and handler contracts for the local web front end
package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Route binds a method and path pattern to a handler function.
//
// Path uses gorilla/mux syntax, so "/workouts/{id}" captures id.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Handler is a group of routes registered together, such as every page of the web front end.
type Handler interface {
	Routes() []Route
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers every route of a Handler
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}
