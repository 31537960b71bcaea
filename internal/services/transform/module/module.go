// Package module implements the transform service module
package module

import (
	"leveler/internal/adapters/genai"
	"leveler/internal/adapters/scoring"
	"leveler/internal/core/levels"
	"leveler/internal/modkit"
	"leveler/internal/modkit/httpkit"
	"leveler/internal/services/transform/domain"
	"leveler/internal/services/transform/service"
	unitdom "leveler/internal/services/units/domain"
	valsvc "leveler/internal/services/validate/service"
)

// Ports exposed by the transform module
type Ports struct {
	Transform domain.TransformPort
}

// Wiring carries the cross-module ports the orchestrator consumes
type Wiring struct {
	Units     unitdom.ChunkPort
	Ingest    unitdom.IngestPort
	Cache     domain.CachePort     // may be nil
	Telemetry domain.TelemetryPort // may be nil
}

// Module implements the transform service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new transform module with its generation and scoring
// clients built from config
func New(deps modkit.Deps, w Wiring) *Module {
	if w.Units == nil || w.Ingest == nil {
		panic("transform module: Wiring missing Units or Ingest")
	}
	opts := FromConfig(deps.Cfg)

	gen := genai.NewOpenAI(genai.Options{
		APIKey:        opts.GenAPIKey,
		BaseURL:       opts.GenBaseURL,
		Timeout:       opts.GenTimeout,
		ModelStandard: opts.ModelStandard,
		ModelStrong:   opts.ModelStrong,
	})

	scoreKey := opts.ScoreAPIKey
	if scoreKey == "" {
		scoreKey = opts.GenAPIKey
	}
	scorer := scoring.NewEmbeddings(scoring.Options{
		APIKey:  scoreKey,
		BaseURL: opts.ScoreBaseURL,
		Model:   opts.ScoreModel,
		Timeout: opts.ScoreTimeout,
	})

	validator := valsvc.New(scorer, levels.DefaultThresholds(), valsvc.Config{
		ScoreTimeout: opts.ScoreTimeout,
	})

	svc := service.New(
		w.Units,
		w.Ingest,
		gen,
		validator,
		w.Cache,
		w.Telemetry,
		levels.DefaultParams(),
		levels.DefaultThresholds(),
		service.Config{
			TransientCap:     opts.TransientCap,
			TransientBackoff: opts.TransientBackoff,
		},
	)

	m := &Module{deps: deps}
	m.ports = Ports{Transform: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "transform" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
