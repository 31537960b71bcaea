// Package module implements the cache service module
package module

import (
	"leveler/internal/core/levels"
	"leveler/internal/modkit"
	"leveler/internal/modkit/httpkit"
	"leveler/internal/services/cache/domain"
	"leveler/internal/services/cache/repo"
	"leveler/internal/services/cache/service"
)

// Ports exposed by the cache module
type Ports struct {
	Read  domain.ReadPort
	Sweep domain.SweepPort

	// Svc is the concrete service for transform-port wiring
	Svc *service.Service
}

// Module implements the cache service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new cache module bound to the active table versions
func New(deps modkit.Deps) *Module {
	svc := service.New(deps.PG, repo.NewPG(), service.Config{
		PromptVersion:    levels.DefaultParams().Version(),
		ThresholdVersion: levels.DefaultThresholds().Version(),
		Thresholds:       levels.DefaultThresholds(),
	})

	m := &Module{deps: deps}
	m.ports = Ports{
		Read:  svc,
		Sweep: svc,
		Svc:   svc,
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "cache" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
