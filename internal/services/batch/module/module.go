// Package module provides the batch module implementation
package module

import (
	"context"
	"fmt"

	"leveler/internal/modkit"
	"leveler/internal/modkit/httpkit"
	"leveler/internal/modkit/repokit"
	"leveler/internal/services/batch/domain"
	"leveler/internal/services/batch/guardrails"
	"leveler/internal/services/batch/repo"
	"leveler/internal/services/batch/service"
	tdom "leveler/internal/services/transform/domain"
	unitdom "leveler/internal/services/units/domain"
)

// Ports defines the batch module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Wiring carries the cross-module ports the batch runner consumes
type Wiring struct {
	Transform tdom.TransformPort
	Chunks    unitdom.ChunkPort
}

// Module implements the batch module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the batch module wiring repo, lease and service from
// config in deps.Cfg. It does not mount any routes
func New(deps modkit.Deps, w Wiring) *Module {
	if w.Transform == nil || w.Chunks == nil {
		panic("batch module: Wiring missing Transform or Chunks")
	}
	opts := FromConfig(deps.Cfg)

	leaseFn := guardrails.MakeJobLease(deps, opts.LeaseTTL)

	// cap statement time inside claim transactions so a wedged lock
	// never stalls the whole worker pool
	db := repokit.TxRunner(deps.PG)
	if opts.DBTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", opts.DBTimeout.Milliseconds())
		db = repokit.WithBeginHooks(db, func(ctx context.Context, q repokit.Queryer) error {
			_, err := q.Exec(ctx, stmt)
			return err
		})
	}

	svc := service.New(
		db, repo.NewPG(),
		w.Transform, w.Chunks,
		service.Config{
			Workers:      opts.Workers,
			RatePerSec:   opts.RatePerSec,
			RateBurst:    opts.RateBurst,
			ItemRetries:  opts.ItemRetries,
			RetryBase:    opts.RetryBase,
			ItemTimeout:  opts.ItemTimeout,
			DBTimeout:    opts.DBTimeout,
			EnableLeases: opts.EnableLeases,
		},
		leaseFn,
	)

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "batch" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module prefix (none)
func (m *Module) Prefix() string { return "" }

// MountRoutes is a no-op as batch has no routes of its own
func (m *Module) MountRoutes(_ httpkit.Router) {}
