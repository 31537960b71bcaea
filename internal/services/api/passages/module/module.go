// Package module wires passages into the API using modkit
package module

import (
	"net/http"

	modkit "leveler/internal/modkit"
	"leveler/internal/modkit/httpkit"
	str "leveler/internal/platform/strings"

	phttpmod "leveler/internal/services/api/passages/http"
	psvc "leveler/internal/services/api/passages/service"
	tdom "leveler/internal/services/transform/domain"
	unitdom "leveler/internal/services/units/domain"
)

// Ports declares the injected worker ports this API module requires
type Ports struct {
	Ingest    unitdom.IngestPort
	Chunks    unitdom.ChunkPort
	Transform tdom.TransformPort
}

// Module implements the passages API module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc psvc.Service
}

// New constructs the passages module from injected unit and transform ports
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("passages"),
		modkit.WithPrefix("/passages"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Ingest == nil || injected.Chunks == nil {
		panic("passages API module requires unit ports (from services/units)")
	}
	if injected.Transform == nil {
		panic("passages API module requires the transform port (from services/transform)")
	}

	svc := psvc.New(injected.Ingest, injected.Chunks, injected.Transform)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = injected

	external := b.Register
	m.register = func(r httpkit.Router) {
		phttpmod.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "passages") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
