// Package module implements the telemetry service module
package module

import (
	"time"

	"leveler/internal/modkit"
	"leveler/internal/modkit/httpkit"
	"leveler/internal/services/telemetry/repo"
	"leveler/internal/services/telemetry/service"
	tdom "leveler/internal/services/transform/domain"
)

// Ports exposed by the telemetry module
type Ports struct {
	Recorder tdom.TelemetryPort
	Writer   *service.Writer
}

// Module implements the telemetry service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a telemetry module. It requires the ClickHouse seam
func New(deps modkit.Deps) *Module {
	if deps.CH == nil {
		panic("telemetry module: ClickHouse not configured")
	}
	tf := deps.Cfg.Prefix("CORE_TELEMETRY_")
	w := service.New(repo.New(deps.CH), service.Config{
		BatchSize:     tf.MayInt("BATCH_SIZE", 256),
		FlushInterval: tf.MayDuration("FLUSH_INTERVAL", 2*time.Second),
		BufferCap:     tf.MayInt("BUFFER_CAP", 4096),
		FlushTimeout:  tf.MayDuration("FLUSH_TIMEOUT", 10*time.Second),
	})

	m := &Module{deps: deps}
	m.ports = Ports{Recorder: w, Writer: w}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "telemetry" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
