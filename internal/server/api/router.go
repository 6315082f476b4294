package api

import (
	"context"
	"log/slog"
	"net"
	"strings"
)

// Request contains route parameters and the payload that followed the path.
type Request struct {
	Ctx     context.Context
	Params  map[string]string
	Payload string
}

// Response holds the JSON string to return to the client.
type Response struct {
	JSON string
}

// HandlerFunc processes a request and populates the response.
// The logger is scoped to the connection.
type HandlerFunc func(req *Request, res *Response, logger *slog.Logger) error

// StreamHandlerFunc takes ownership of a long-lived connection. It returns
// once the stream is over; the server closes conn afterwards. An error is
// written to the client as a problem line, so handlers only return one
// before they have written anything themselves.
type StreamHandlerFunc func(conn net.Conn, req *Request, logger *slog.Logger) error

// Router implements simple path pattern matching with placeholders in {name}.
type Router struct {
	routes       []route[HandlerFunc]
	streamRoutes []route[StreamHandlerFunc]
}

type route[H any] struct {
	pattern string
	parts   []string
	names   []string
	handler H
}

func newRoute[H any](pattern string, h H) route[H] {
	orig := strings.Split(pattern, "/")
	rt := route[H]{
		pattern: strings.ToLower(pattern),
		parts:   make([]string, len(orig)),
		names:   make([]string, len(orig)),
		handler: h,
	}
	for i, p := range orig {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			rt.names[i] = p[1 : len(p)-1]
			continue
		}
		rt.parts[i] = strings.ToLower(p)
	}
	return rt
}

func (rt route[H]) match(parts []string) (map[string]string, bool) {
	if len(rt.parts) != len(parts) {
		return nil, false
	}
	params := map[string]string{}
	for i, p := range parts {
		if rt.names[i] != "" {
			params[rt.names[i]] = p
			continue
		}
		if rt.parts[i] != p {
			return nil, false
		}
	}
	return params, true
}

func match[H any](routes []route[H], path string) (H, map[string]string) {
	parts := strings.Split(strings.ToLower(path), "/")
	for _, rt := range routes {
		if params, ok := rt.match(parts); ok {
			return rt.handler, params
		}
	}
	var zero H
	return zero, nil
}

// NewRouter returns a new Router instance.
func NewRouter() *Router { return &Router{} }

// Register registers a handler for a path pattern like "pad/{id}/filter".
func (r *Router) Register(pattern string, handler HandlerFunc) {
	r.routes = append(r.routes, newRoute(pattern, handler))
}

// RegisterStream registers a handler for long-lived connections.
func (r *Router) RegisterStream(pattern string, handler StreamHandlerFunc) {
	r.streamRoutes = append(r.streamRoutes, newRoute(pattern, handler))
}

// Match returns the handler and params for path, or nil.
func (r *Router) Match(path string) (HandlerFunc, map[string]string) {
	return match(r.routes, path)
}

// MatchStream returns the stream handler and params for path, or nil.
func (r *Router) MatchStream(path string) (StreamHandlerFunc, map[string]string) {
	return match(r.streamRoutes, path)
}

// Patterns lists every registered pattern, plain routes first.
func (r *Router) Patterns() []string {
	out := make([]string, 0, len(r.routes)+len(r.streamRoutes))
	for _, rt := range r.routes {
		out = append(out, rt.pattern)
	}
	for _, rt := range r.streamRoutes {
		out = append(out, rt.pattern)
	}
	return out
}
