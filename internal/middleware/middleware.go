// Package middleware wraps the regions API handlers with request
// identification, client address resolution, access logging, panic recovery
// and Prometheus instrumentation.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

type contextKey string

// Context keys set by RequestID and ClientIP.
const (
	RequestIDKey contextKey = "request_id"
	ClientIPKey  contextKey = "client_ip"
)

// GetRequestID returns the id assigned by RequestID, or "" outside of it.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// ErrorID returns the id reported in an error body: the request id when
// one was assigned, otherwise a fresh UUID so the body is never anonymous.
func ErrorID(ctx context.Context) string {
	if id := GetRequestID(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

// GetClientIP returns the address resolved by ClientIP.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ClientIPKey).(string); ok {
		return ip
	}
	return ""
}

// Chain is an ordered middleware stack. The first middleware sees the
// request first.
type Chain struct {
	middlewares []Middleware
}

// New returns a chain of middlewares.
func New(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: append([]Middleware(nil), middlewares...)}
}

// Then wraps h. A nil h answers 404.
func (c *Chain) Then(h http.Handler) http.Handler {
	if h == nil {
		h = http.NotFoundHandler()
	}
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		h = c.middlewares[i](h)
	}
	return h
}

// ThenFunc is Then for a handler function.
func (c *Chain) ThenFunc(fn http.HandlerFunc) http.Handler {
	return c.Then(fn)
}
