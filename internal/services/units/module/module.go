// Package module implements the units service module
package module

import (
	"leveler/internal/modkit"
	"leveler/internal/modkit/httpkit"
	"leveler/internal/services/units/domain"
	"leveler/internal/services/units/repo"
	"leveler/internal/services/units/service"
)

// Ports exposed by the units module
type Ports struct {
	Ingest domain.IngestPort
	Chunks domain.ChunkPort
}

// Module implements the units service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new units module
func New(deps modkit.Deps) *Module {
	svc, err := service.New(deps.PG, repo.NewPG())
	if err != nil {
		panic(err)
	}

	m := &Module{deps: deps}
	m.ports = Ports{
		Ingest: svc,
		Chunks: svc,
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "units" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
