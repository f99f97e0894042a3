package testutil

import "github.com/gorilla/mux"

type serverOpts struct {
	middleware []mux.MiddlewareFunc
}

// ServerOption configures the settings when creating a test server.
type ServerOption func(o *serverOpts)

// WithMiddleware adds a middleware to the test server's router.
func WithMiddleware(m mux.MiddlewareFunc) ServerOption {
	return func(o *serverOpts) {
		o.middleware = append(o.middleware, m)
	}
}
