// Package http provides http transport for passages
package http

import (
	stdhttp "net/http"

	"leveler/internal/modkit/httpkit"
	"leveler/internal/services/api/passages/domain"
	svc "leveler/internal/services/api/passages/service"
)

// Register mounts passages endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.IngestInput](r, "/ingest", h.ingest)
	httpkit.PostJSON[domain.UnitInput](r, "/unit", h.unit)
	httpkit.PostJSON[domain.ChunksInput](r, "/chunks", h.chunks)
	httpkit.PostJSON[domain.RenderInput](r, "/render", h.render)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /passages/ingest Passages passagesIngest
// @Summary Register a source text as a content unit
// @Tags Passages
// @Accept json
// @Produce json
// @Param payload body domain.IngestInput true "Source text"
// @Success 200 {object} domain.Unit "ok"
// @Router /passages/ingest [post]
func (h *handlers) ingest(r *stdhttp.Request, in domain.IngestInput) (any, error) {
	return h.svc.Ingest(r.Context(), in)
}

// swagger:route POST /passages/unit Passages passagesUnit
// @Summary Fetch a content unit by id
// @Tags Passages
// @Accept json
// @Produce json
// @Param payload body domain.UnitInput true "Unit id"
// @Success 200 {object} domain.Unit "ok"
// @Router /passages/unit [post]
func (h *handlers) unit(r *stdhttp.Request, in domain.UnitInput) (any, error) {
	return h.svc.Unit(r.Context(), in)
}

// swagger:route POST /passages/chunks Passages passagesChunks
// @Summary List a unit's chunks for a reading level
// @Tags Passages
// @Accept json
// @Produce json
// @Param payload body domain.ChunksInput true "Unit and level"
// @Success 200 {object} domain.ChunkList "ok"
// @Router /passages/chunks [post]
func (h *handlers) chunks(r *stdhttp.Request, in domain.ChunksInput) (any, error) {
	return h.svc.Chunks(r.Context(), in)
}

// swagger:route POST /passages/render Passages passagesRender
// @Summary Render one chunk at a reading level
// @Tags Passages
// @Accept json
// @Produce json
// @Param payload body domain.RenderInput true "Chunk and level"
// @Success 200 {object} domain.Passage "ok"
// @Router /passages/render [post]
func (h *handlers) render(r *stdhttp.Request, in domain.RenderInput) (any, error) {
	return h.svc.Render(r.Context(), in)
}
