// Package service contains batches workflows
package service

import (
	"context"
	"time"

	"leveler/internal/core/levels"
	perr "leveler/internal/platform/errors"
	"leveler/internal/platform/logger"
	"leveler/internal/services/api/batches/domain"
	bdom "leveler/internal/services/batch/domain"
)

// Service defines the service contract for batches
type Service interface{ domain.ServicePort }

// Svc implements the Service interface over the batch runner port
type Svc struct {
	runner bdom.RunnerPort
	log    logger.Logger

	// start launches a detached drain, injectable for tests
	start func(jobID string)
}

// New creates a new batches service
func New(runner bdom.RunnerPort) *Svc {
	if runner == nil {
		panic("batches.Service requires a runner port")
	}
	s := &Svc{runner: runner, log: *logger.Named("batches")}
	s.start = s.drain
	return s
}

// Submit plans the job and starts it on a background context so the
// drain outlives the request
func (s *Svc) Submit(ctx context.Context, in domain.SubmitInput) (domain.JobView, error) {
	lvls, err := parseLevels(in.Levels)
	if err != nil {
		return domain.JobView{}, err
	}

	job, err := s.runner.Plan(ctx, in.UnitIDs, lvls)
	if err != nil {
		return domain.JobView{}, err
	}

	go s.start(job.JobID)
	return toView(job), nil
}

// Progress reports the job's counters and status
func (s *Svc) Progress(ctx context.Context, in domain.JobInput) (domain.JobView, error) {
	job, err := s.runner.Progress(ctx, in.JobID)
	if err != nil {
		return domain.JobView{}, err
	}
	return toView(job), nil
}

// Cancel requests a cooperative stop and returns the job as it stands
func (s *Svc) Cancel(ctx context.Context, in domain.JobInput) (domain.JobView, error) {
	if err := s.runner.Cancel(ctx, in.JobID); err != nil {
		return domain.JobView{}, err
	}
	job, err := s.runner.Progress(ctx, in.JobID)
	if err != nil {
		return domain.JobView{}, err
	}
	return toView(job), nil
}

// Replay queues failed items again and starts a new background drain
// when anything was reset
func (s *Svc) Replay(ctx context.Context, in domain.JobInput) (domain.ReplayResult, error) {
	n, err := s.runner.ReplayFailed(ctx, in.JobID)
	if err != nil {
		return domain.ReplayResult{}, err
	}
	if n > 0 {
		go s.start(in.JobID)
	}
	return domain.ReplayResult{JobID: in.JobID, Reset: n}, nil
}

func (s *Svc) drain(jobID string) {
	if err := s.runner.Run(context.Background(), jobID); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("background drain failed")
	}
}

func parseLevels(in []string) ([]levels.Level, error) {
	out := make([]levels.Level, 0, len(in))
	for _, v := range in {
		lvl, err := levels.ParseLevel(v)
		if err != nil {
			return nil, perr.InvalidArgf("levels: %v", err)
		}
		out = append(out, lvl)
	}
	return out, nil
}

func toView(j bdom.Job) domain.JobView {
	v := domain.JobView{
		JobID:      j.JobID,
		Status:     string(j.Status),
		TotalItems: j.TotalItems,
		Attempted:  j.Attempted,
		Succeeded:  j.Succeeded,
		Failed:     j.Failed,
		Cursor:     j.Cursor,
		CreatedAt:  j.CreatedAt.UTC().Format(time.RFC3339),
	}
	if j.StartedAt != nil {
		v.StartedAt = j.StartedAt.UTC().Format(time.RFC3339)
	}
	if j.FinishedAt != nil {
		v.FinishedAt = j.FinishedAt.UTC().Format(time.RFC3339)
	}
	return v
}
