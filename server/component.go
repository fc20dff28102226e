package server

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/spindle/component"
)

const componentName = "admin-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component adapts Server to the component lifecycle.
type Component struct {
	server *Server
}

// NewComponent returns a component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the component name used for registration.
func (sc *Component) Name() string { return componentName }

// Start starts the underlying HTTP server.
func (sc *Component) Start(ctx context.Context) error {
	return sc.server.Start(ctx)
}

// Stop gracefully shuts down the underlying HTTP server.
func (sc *Component) Stop(ctx context.Context) error {
	return sc.server.Stop(ctx)
}

// Health reports unhealthy until the listener is bound.
func (sc *Component) Health(context.Context) component.Health {
	if !sc.server.started() {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

// Describe returns the startup summary entry.
func (sc *Component) Describe() component.Description {
	cfg := sc.server.config
	return component.Description{
		Name:    "Admin server",
		Type:    "server",
		Details: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Port:    cfg.Port,
	}
}

// Routes lists the registered routes sorted by path, then method.
func (sc *Component) Routes() []component.Route {
	ginRoutes := sc.server.engine.Routes()
	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: handlerName(r.Handler),
		})
	}
	slices.SortFunc(routes, func(a, b component.Route) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Method, b.Method))
	})
	return routes
}

// handlerName shortens gin's handler path to the package and the innermost
// named function. Closures inlined into their caller keep the caller path:
// "github.com/kbukum/spindle/server/endpoint.Health.func1" -> "endpoint.Health",
// "github.com/kbukum/spindle/server.(*Server).RegisterDAG.DAGHandler.func1" -> "server.DAGHandler".
func handlerName(full string) string {
	name := strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	parts := strings.Split(name, ".")
	for len(parts) > 2 && anonymous(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 2 {
		parts = []string{parts[0], parts[len(parts)-1]}
	}
	return strings.Join(parts, ".")
}

// anonymous reports whether a name segment belongs to a closure: "func1"
// or the numeric suffix of a nested closure.
func anonymous(segment string) bool {
	if strings.HasPrefix(segment, "func") {
		return true
	}
	return segment != "" && strings.Trim(segment, "0123456789") == ""
}
