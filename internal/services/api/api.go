// Package api provides the HTTP API for the application
package api

import (
	"leveler/internal/platform/config"
	"leveler/internal/platform/logger"
	phttp "leveler/internal/platform/net/http"
	"leveler/internal/platform/store"

	"leveler/internal/modkit"
	"leveler/internal/modkit/httpkit"
	"leveler/internal/modkit/module"

	batchesmod "leveler/internal/services/api/batches/module"
	metamod "leveler/internal/services/api/meta/module"
	passagesmod "leveler/internal/services/api/passages/module"

	// worker modules that own the ports the API modules consume
	batchmod "leveler/internal/services/batch/module"
	cachemod "leveler/internal/services/cache/module"
	telemetrymod "leveler/internal/services/telemetry/module"
	tdom "leveler/internal/services/transform/domain"
	transformmod "leveler/internal/services/transform/module"
	unitsmod "leveler/internal/services/units/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
		Log: *opt.Logger,
	}

	// worker modules first so their ports exist for cross wiring
	units := unitsmod.New(deps)
	uports := units.Ports().(unitsmod.Ports)

	cache := cachemod.New(deps)
	cports := cache.Ports().(cachemod.Ports)

	// telemetry only runs when ClickHouse is configured
	var telemetry *telemetrymod.Module
	var recorder tdom.TelemetryPort
	if deps.CH != nil {
		telemetry = telemetrymod.New(deps)
		recorder = telemetry.Ports().(telemetrymod.Ports).Recorder
	}

	transform := transformmod.New(deps, transformmod.Wiring{
		Units:     uports.Chunks,
		Ingest:    uports.Ingest,
		Cache:     cports.Svc,
		Telemetry: recorder,
	})
	tports := transform.Ports().(transformmod.Ports)

	batch := batchmod.New(deps, batchmod.Wiring{
		Transform: tports.Transform,
		Chunks:    uports.Chunks,
	})
	bports := batch.Ports().(batchmod.Ports)

	mods := []module.Module{
		units,
		cache,
		transform,
		batch,
		metamod.New(deps),
		passagesmod.New(deps, modkit.WithPorts(passagesmod.Ports{
			Ingest:    uports.Ingest,
			Chunks:    uports.Chunks,
			Transform: tports.Transform,
		})),
		batchesmod.New(deps, modkit.WithPorts(batchesmod.Ports{
			Runner: bports.Runner,
		})),
	}
	if telemetry != nil {
		mods = append(mods, telemetry)
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		phttp.MountSwagger(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes; worker modules mount nothing
			m.MountRoutes(api)
		}
	})
}
