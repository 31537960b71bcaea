// Package http provides http transport for batches
package http

import (
	stdhttp "net/http"

	"leveler/internal/modkit/httpkit"
	"leveler/internal/services/api/batches/domain"
	svc "leveler/internal/services/api/batches/service"
)

// Register mounts batches endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.SubmitInput](r, "/submit", h.submit)
	httpkit.PostJSON[domain.JobInput](r, "/progress", h.progress)
	httpkit.PostJSON[domain.JobInput](r, "/cancel", h.cancel)
	httpkit.PostJSON[domain.JobInput](r, "/replay", h.replay)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /batches/submit Batches batchesSubmit
// @Summary Plan and start a bulk transformation job
// @Tags Batches
// @Accept json
// @Produce json
// @Param payload body domain.SubmitInput true "Units and levels"
// @Success 200 {object} domain.JobView "ok"
// @Router /batches/submit [post]
func (h *handlers) submit(r *stdhttp.Request, in domain.SubmitInput) (any, error) {
	return h.svc.Submit(r.Context(), in)
}

// swagger:route POST /batches/progress Batches batchesProgress
// @Summary Report job counters and status
// @Tags Batches
// @Accept json
// @Produce json
// @Param payload body domain.JobInput true "Job id"
// @Success 200 {object} domain.JobView "ok"
// @Router /batches/progress [post]
func (h *handlers) progress(r *stdhttp.Request, in domain.JobInput) (any, error) {
	return h.svc.Progress(r.Context(), in)
}

// swagger:route POST /batches/cancel Batches batchesCancel
// @Summary Request a cooperative stop of a running job
// @Tags Batches
// @Accept json
// @Produce json
// @Param payload body domain.JobInput true "Job id"
// @Success 200 {object} domain.JobView "ok"
// @Router /batches/cancel [post]
func (h *handlers) cancel(r *stdhttp.Request, in domain.JobInput) (any, error) {
	return h.svc.Cancel(r.Context(), in)
}

// swagger:route POST /batches/replay Batches batchesReplay
// @Summary Queue a job's failed items again
// @Tags Batches
// @Accept json
// @Produce json
// @Param payload body domain.JobInput true "Job id"
// @Success 200 {object} domain.ReplayResult "ok"
// @Router /batches/replay [post]
func (h *handlers) replay(r *stdhttp.Request, in domain.JobInput) (any, error) {
	return h.svc.Replay(r.Context(), in)
}
