// Package service provides the bulk orchestrator implementation
package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/google/uuid"

	"leveler/internal/core/levels"
	"leveler/internal/modkit/repokit"
	perr "leveler/internal/platform/errors"
	"leveler/internal/platform/logger"
	"leveler/internal/services/batch/domain"
	"leveler/internal/services/batch/guardrails"
	tdom "leveler/internal/services/transform/domain"
	unitdom "leveler/internal/services/units/domain"
)

// Config holds configuration options for the batch service
type Config struct {
	// Workers is the global concurrency cap; <=0 -> 1
	Workers int

	// RatePerSec throttles aggregate transform calls; <=0 -> no limit
	RatePerSec float64
	RateBurst  int

	// ItemRetries caps transient retries per item; <=0 -> 2
	ItemRetries int
	// RetryBase is the backoff base for item retries; <=0 -> 500ms
	RetryBase time.Duration

	// Timeouts applied via guardrails
	ItemTimeout time.Duration
	DBTimeout   time.Duration

	// Distributed lease on the job (optional)
	EnableLeases bool
}

// Service implements the batch runner
type Service struct {
	DB        repokit.TxRunner
	Binder    repokit.Binder[domain.StorageRepo]
	Transform tdom.TransformPort
	Chunks    unitdom.ChunkPort
	Cfg       Config

	// Lease(ctx, jobID, do) should take a job scoped lease and run do()
	Lease guardrails.LeaseFunc

	limiter *rate.Limiter
	units   *unitLocks
	log     logger.Logger
	sleep   func(context.Context, time.Duration) error
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the batch service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	transform tdom.TransformPort,
	chunks unitdom.ChunkPort,
	cfg Config,
	lease guardrails.LeaseFunc,
) *Service {
	if db == nil {
		panic("batch.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("batch.Service requires a non nil Repo binder")
	}
	if transform == nil {
		panic("batch.Service requires a transform port")
	}

	var lim *rate.Limiter
	if cfg.RatePerSec > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}

	return &Service{
		DB: db, Binder: binder,
		Transform: transform,
		Chunks:    chunks,
		Cfg:       cfg,
		Lease:     lease,
		limiter:   lim,
		units:     newUnitLocks(),
		log:       *logger.Named("batch"),
		sleep:     sleepCtx,
	}
}

// Plan expands unit ids x levels into a durable job without running it
func (s *Service) Plan(ctx context.Context, unitIDs []string, lvls []levels.Level) (domain.Job, error) {
	if len(unitIDs) == 0 || len(lvls) == 0 {
		return domain.Job{}, perr.InvalidArgf("batch plan needs at least one unit and one level")
	}
	for _, l := range lvls {
		if !l.Valid() {
			return domain.Job{}, perr.InvalidArgf("invalid level %d", int(l))
		}
	}

	job := domain.Job{
		JobID:     uuid.NewString(),
		Status:    domain.JobPending,
		CreatedAt: time.Now().UTC(),
	}

	var items []domain.Item
	seq := 0
	for _, uid := range unitIDs {
		for _, lvl := range lvls {
			chunks, err := s.Chunks.EnsureChunks(ctx, uid, lvl)
			if err != nil {
				return domain.Job{}, perr.Wrapf(err, perr.CodeOf(err), "plan unit %s level %s", uid, lvl)
			}
			for _, c := range chunks {
				items = append(items, domain.Item{
					JobID:      job.JobID,
					Seq:        seq,
					UnitID:     uid,
					ChunkIndex: c.ChunkIndex,
					Level:      lvl,
				})
				seq++
			}
		}
	}
	if len(items) == 0 {
		return domain.Job{}, perr.InvalidArgf("batch plan produced no work items")
	}
	job.TotalItems = len(items)

	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).CreateJob(ctx, job, items)
	})
	if err != nil {
		return domain.Job{}, err
	}
	s.log.Info().Str("job", job.JobID).Int("items", job.TotalItems).Msg("batch planned")
	return job, nil
}

// Run drains the job's pending items. It is safe to call again after a
// crash; claimed-but-unfinished items from a dead runner stay running
// until replayed, and cached results make re-processing cheap
func (s *Service) Run(ctx context.Context, jobID string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	switch job.Status {
	case domain.JobCancelled:
		return perr.InvalidArgf("batch job %s is cancelled", jobID)
	case domain.JobCompleted:
		// rerun only makes sense after a replay reset
	case domain.JobPending, domain.JobRunning:
	}

	if s.Lease != nil && s.Cfg.EnableLeases {
		err := s.Lease(ctx, jobID, func(ctx context.Context) error { return s.drain(ctx, jobID) })
		if errors.Is(err, guardrails.ErrLeaseHeld) {
			s.log.Warn().Str("job", jobID).Msg("job lease held elsewhere, skipping")
			return nil
		}
		return err
	}
	return s.drain(ctx, jobID)
}

func (s *Service) drain(ctx context.Context, jobID string) error {
	if err := s.setStatus(ctx, jobID, domain.JobRunning); err != nil {
		return err
	}

	w := max(s.Cfg.Workers, 1)
	var fails int64

	g, gctx := errgroup.WithContext(ctx)
	for range w {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				it, ok, err := s.claimNext(gctx, jobID)
				if err != nil {
					s.log.Error().Err(err).Str("job", jobID).Msg("claim failed")
					atomic.AddInt64(&fails, 1)
					if se := s.sleep(gctx, 500*time.Millisecond); se != nil {
						return se
					}
					continue
				}
				if !ok {
					return nil // nothing claimable: drained or cancelled
				}
				if err := s.runItem(gctx, it); err != nil {
					// only cancellation escapes runItem
					return err
				}
			}
		})
	}
	runErr := g.Wait()

	// Completion check with a fresh context so a cancelled run can
	// still record its own status
	finCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	open, err := s.countOpen(finCtx, jobID)
	if err == nil && open == 0 {
		if job, gerr := s.getJob(finCtx, jobID); gerr == nil && job.Status == domain.JobRunning {
			_ = s.setStatus(finCtx, jobID, domain.JobCompleted)
		}
	}

	if runErr != nil {
		return runErr
	}
	if fails > 0 {
		s.log.Warn().Str("job", jobID).Int64("coordinator_errors", fails).Msg("batch drained with coordinator errors")
	}
	return nil
}

// runItem processes one claimed item to a terminal outcome. Item level
// errors are absorbed into the job counters; only cancellation escapes
func (s *Service) runItem(ctx context.Context, it domain.Item) error {
	itemCtx, cancel := guardrails.ForItem(ctx, guardrails.Timeouts{Item: s.Cfg.ItemTimeout})
	defer cancel()

	res, err := s.transformWithRetry(itemCtx, it)

	switch {
	case err != nil && ctx.Err() != nil:
		// the surrounding job is shutting down; leave the item running
		// for the next resume
		return ctx.Err()

	case err != nil:
		s.finishItem(ctx, it, domain.ItemFinish{
			Status: domain.ItemFailed, Attempts: it.Attempts, Error: err.Error(),
		}, domain.Progress{Attempted: 1, Failed: 1})
		s.appendRecovery(ctx, it, err.Error())

	case res.Kind == tdom.ResultVerified || res.Kind == tdom.ResultAcceptable:
		s.finishItem(ctx, it, domain.ItemFinish{
			Status: domain.ItemDone, Disposition: string(res.Kind), Attempts: it.Attempts,
		}, domain.Progress{Attempted: 1, Succeeded: 1})

	default:
		// Rejected and FallbackOriginal are terminal failures for a
		// bulk run; the recovery log queues them for replay
		reason := res.Reason
		if reason == "" {
			reason = string(res.Kind)
		}
		s.finishItem(ctx, it, domain.ItemFinish{
			Status: domain.ItemFailed, Disposition: string(res.Kind), Attempts: it.Attempts, Error: reason,
		}, domain.Progress{Attempted: 1, Failed: 1})
		s.appendRecovery(ctx, it, reason)
	}
	return nil
}

// transformWithRetry runs the orchestrator under the rate limiter and
// the per unit lock, with bounded jittered backoff on retryable errors.
// Rate pressure shows up here as TooManyRequests, distinct from quality
// failures which the orchestrator resolves internally
func (s *Service) transformWithRetry(ctx context.Context, it domain.Item) (tdom.TerminalResult, error) {
	attempts := max(s.Cfg.ItemRetries, 2)
	base := s.Cfg.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	req := tdom.Request{UnitID: it.UnitID, ChunkIndex: it.ChunkIndex, Level: it.Level}

	var last error
	for i := range attempts {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return tdom.TerminalResult{}, err
			}
		}

		unlock := s.units.lock(it.UnitID)
		res, err := s.Transform.Transform(ctx, req)
		unlock()

		if err == nil {
			return res, nil
		}
		last = err
		if !perr.IsRetryable(err) || i == attempts-1 {
			break
		}

		// exponential backoff with jitter, cap at 30s
		d := min(base<<i, 30*time.Second)
		j := d/2 + time.Duration(rand.Int63n(int64(d/2)))
		if se := s.sleep(ctx, j); se != nil {
			return tdom.TerminalResult{}, se
		}
	}
	return tdom.TerminalResult{}, last
}

// Cancel requests a cooperative stop checked between items
func (s *Service) Cancel(ctx context.Context, jobID string) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == domain.JobCompleted || job.Status == domain.JobCancelled {
		return perr.InvalidArgf("batch job %s already %s", jobID, job.Status)
	}
	return s.setStatus(ctx, jobID, domain.JobCancelled)
}

// Progress reports the job counters
func (s *Service) Progress(ctx context.Context, jobID string) (domain.Job, error) {
	return s.getJob(ctx, jobID)
}

// ReplayFailed flips failed items back to pending for the next Run
func (s *Service) ReplayFailed(ctx context.Context, jobID string) (int, error) {
	var n int
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		reset, err := r.ResetFailed(ctx, jobID)
		if err != nil {
			return err
		}
		n = reset
		if n > 0 {
			// counters keep their history; the rerun bumps them again
			return r.SetJobStatus(ctx, jobID, domain.JobPending)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("job", jobID).Int("reset", n).Msg("failed items queued for replay")
	return n, nil
}

// coordination helpers, each its own short transaction

func (s *Service) claimNext(ctx context.Context, jobID string) (domain.Item, bool, error) {
	dbCtx, cancel := guardrails.ForDB(ctx, guardrails.Timeouts{DB: s.Cfg.DBTimeout})
	defer cancel()

	var it domain.Item
	var ok bool
	err := s.DB.Tx(dbCtx, func(q repokit.Queryer) error {
		i, claimed, e := s.Binder.Bind(q).ClaimNextItem(dbCtx, jobID)
		if e != nil {
			return e
		}
		it, ok = i, claimed
		return nil
	})
	return it, ok, err
}

func (s *Service) finishItem(ctx context.Context, it domain.Item, fin domain.ItemFinish, p domain.Progress) {
	dbCtx, cancel := guardrails.ForDB(context.WithoutCancel(ctx), guardrails.Timeouts{DB: s.Cfg.DBTimeout})
	defer cancel()

	err := s.DB.Tx(dbCtx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		if e := r.FinishItem(dbCtx, it.JobID, it.Seq, fin); e != nil {
			return e
		}
		return r.BumpProgress(dbCtx, it.JobID, p)
	})
	if err != nil {
		s.log.Error().Err(err).Str("job", it.JobID).Int("seq", it.Seq).Msg("finish item failed")
	}
}

func (s *Service) appendRecovery(ctx context.Context, it domain.Item, reason string) {
	dbCtx, cancel := guardrails.ForDB(context.WithoutCancel(ctx), guardrails.Timeouts{DB: s.Cfg.DBTimeout})
	defer cancel()

	err := s.DB.Tx(dbCtx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).AppendRecovery(dbCtx, domain.RecoveryEntry{
			JobID: it.JobID, Seq: it.Seq,
			UnitID: it.UnitID, ChunkIndex: it.ChunkIndex, Level: it.Level,
			Reason: reason, At: time.Now().UTC(),
		})
	})
	if err != nil {
		s.log.Error().Err(err).Str("job", it.JobID).Int("seq", it.Seq).Msg("recovery append failed")
	}
}

func (s *Service) getJob(ctx context.Context, jobID string) (domain.Job, error) {
	var j domain.Job
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		job, e := s.Binder.Bind(q).GetJob(ctx, jobID)
		if e != nil {
			return e
		}
		j = job
		return nil
	})
	return j, err
}

func (s *Service) setStatus(ctx context.Context, jobID string, st domain.JobStatus) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).SetJobStatus(ctx, jobID, st)
	})
}

func (s *Service) countOpen(ctx context.Context, jobID string) (int, error) {
	var n int
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		open, e := s.Binder.Bind(q).CountOpenItems(ctx, jobID)
		if e != nil {
			return e
		}
		n = open
		return nil
	})
	return n, err
}

// unitLocks serializes work per content unit so one unit never sees two
// concurrent transforms
type unitLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newUnitLocks() *unitLocks {
	return &unitLocks{m: make(map[string]*sync.Mutex)}
}

func (u *unitLocks) lock(unitID string) (unlock func()) {
	u.mu.Lock()
	l, ok := u.m[unitID]
	if !ok {
		l = &sync.Mutex{}
		u.m[unitID] = l
	}
	u.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
