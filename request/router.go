package request

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gorilla/mux"
)

// Route is a named entry of a Router.
type Route struct {
	Name     string
	Method   Method
	Template string
}

// Router is a declarative routing table of named request templates.
//
// Templates use gorilla/mux syntax: "/users/{id}" or "/users/{id:[0-9]+}".
// Variables with a pattern are checked when a request is expanded.
type Router struct {
	mu     sync.RWMutex
	mux    *mux.Router
	routes map[string]Route
}

// NewRouter creates an empty routing table.
func NewRouter() *Router {
	return &Router{
		mux:    mux.NewRouter(),
		routes: make(map[string]Route),
	}
}

// Handle registers a named route. Names must be unique.
func (r *Router) Handle(name string, method Method, template string) error {
	if name == "" {
		return fmt.Errorf("request: route name is required")
	}
	if method == "" {
		return fmt.Errorf("request: route %q: method is required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.routes[name]; exists {
		return fmt.Errorf("request: route %q already registered", name)
	}

	route := r.mux.NewRoute().Name(name).Path(template)
	if err := route.GetError(); err != nil {
		return fmt.Errorf("request: route %q: %w", name, err)
	}

	r.routes[name] = Route{Name: name, Method: method, Template: template}
	return nil
}

// MustHandle is like Handle but panics on error. Intended for package-level
// route tables.
func (r *Router) MustHandle(name string, method Method, template string) *Router {
	if err := r.Handle(name, method, template); err != nil {
		panic(err)
	}
	return r
}

// Request expands the named route with params and returns a Request. Param
// values are path-escaped.
func (r *Router) Request(name string, params map[string]string, opts ...Option) (Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routes[name]
	if !ok {
		return Request{}, fmt.Errorf("request: unknown route %q", name)
	}

	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, k, v)
	}

	u, err := r.mux.Get(name).URLPath(pairs...)
	if err != nil {
		return Request{}, fmt.Errorf("request: route %q: %w", name, err)
	}

	// Variable values are raw; escape them so "?", "#" or "%" stay in the path.
	return New(route.Method, u.EscapedPath(), opts...), nil
}

// Routes returns the registered routes sorted by name.
func (r *Router) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
