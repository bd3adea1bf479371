// Package server provides HTTP routing and middleware for the local web front end.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses gorilla/mux internally, so paths may capture variables
// (read them with [Vars]) and each route is bound to a single method.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface and return their [Route] list,
// allowing a handler to register every page it serves in one call.
//
// # Serving
//
// [Serve] listens until its context is cancelled and then drains in-flight requests
// for up to [ShutdownTimeout].
package server
