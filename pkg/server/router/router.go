// Package router defines the HTTP routing contract handlers and middleware
// are written against. The gin subpackage implements it.
package router

import "net/http"

// Router registers handlers and middleware.
type Router interface {
	GET(path string, handler HandlerFunc, middleware ...MiddlewareFunc)
	POST(path string, handler HandlerFunc, middleware ...MiddlewareFunc)
	PUT(path string, handler HandlerFunc, middleware ...MiddlewareFunc)
	DELETE(path string, handler HandlerFunc, middleware ...MiddlewareFunc)
	PATCH(path string, handler HandlerFunc, middleware ...MiddlewareFunc)

	// Group creates a route group with common prefix and middleware
	Group(prefix string, middleware ...MiddlewareFunc) Router

	// Use applies middleware to routes registered afterwards.
	Use(middleware ...MiddlewareFunc)

	// NotFound handles requests that match no route. MethodNotAllowed
	// handles a known path requested with an unregistered method. Both run
	// behind the middleware registered before the call.
	NotFound(handler HandlerFunc)
	MethodNotAllowed(handler HandlerFunc)

	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// HandlerFunc handles a request. A returned error that has not been written
// to the response becomes a 500.
type HandlerFunc func(Context) error

// MiddlewareFunc wraps a HandlerFunc.
type MiddlewareFunc func(HandlerFunc) HandlerFunc

// Context provides access to request and response in a router-agnostic way.
type Context interface {
	Request() *http.Request
	// SetRequest replaces the request, e.g. to attach values to its context.
	SetRequest(r *http.Request)

	Response() ResponseWriter
	SetResponse(w ResponseWriter)

	// Route returns the matched route pattern, e.g. "/books/:id".
	Route() string

	// Param returns a URL parameter by name (e.g., /books/:id)
	Param(name string) string

	// Query returns a query parameter by name (e.g., /books?limit=2)
	Query(name string) string

	// Bind decodes a JSON request body into v.
	Bind(v interface{}) error

	JSON(code int, v interface{}) error
	String(code int, s string) error

	Get(key string) interface{}
	Set(key string, value interface{})
}

// ResponseWriter wraps http.ResponseWriter to track response status.
type ResponseWriter interface {
	http.ResponseWriter

	// Status returns the written status code, 200 if nothing was written yet.
	Status() int

	Written() bool
}
