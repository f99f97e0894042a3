package app

import (
	"io"

	"github.com/gorilla/mux"
)

// Option configures the environment run by Run().
type Option func(o *opts)

type opts struct {
	middleware []mux.MiddlewareFunc
	accessLog  io.Writer
}

// WithMiddleware configures the app's HTTP router to use the provided middleware.
//
// Middleware is evaluated in addition order, before the app's handlers.
func WithMiddleware(m mux.MiddlewareFunc) Option {
	return func(o *opts) {
		o.middleware = append(o.middleware, m)
	}
}

// WithAccessLog configures the app's HTTP server to write an access log, in
// the Apache Combined Log Format, to w.
func WithAccessLog(w io.Writer) Option {
	return func(o *opts) {
		o.accessLog = w
	}
}
