// Package guardrails holds cross cutting safety helpers for batch runs
package guardrails

import (
	"context"
	"errors"
	"time"

	"leveler/internal/modkit"
	"leveler/internal/platform/store"
)

// ErrLeaseHeld signals another process owns the job already.
var ErrLeaseHeld = errors.New("batch: job lease already held")

// LeaseFunc takes a job scoped lease and runs do while holding it
type LeaseFunc func(ctx context.Context, jobID string, do func(context.Context) error) error

// MakeJobLease returns a LeaseFunc backed by the batch_job_leases table.
// The lease carries an expiry so a crashed runner does not wedge the job;
// a live runner releases it when done. If the job is already leased and
// the lease has not expired, it returns ErrLeaseHeld without running do
func MakeJobLease(deps modkit.Deps, ttl time.Duration) LeaseFunc {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return func(ctx context.Context, jobID string, do func(context.Context) error) error {
		var claimed bool
		err := deps.PG.Tx(ctx, func(q store.RowQuerier) error {
			rows, err := q.Query(ctx, `
				INSERT INTO batch_job_leases (job_id, held_until)
				VALUES ($1, now() + make_interval(secs => $2))
				ON CONFLICT (job_id) DO UPDATE
				SET held_until = now() + make_interval(secs => $2)
				WHERE batch_job_leases.held_until < now()
				RETURNING true
			`, jobID, ttl.Seconds())
			if err != nil {
				return err
			}
			defer rows.Close()
			if rows.Next() {
				claimed = true
			}
			return rows.Err()
		})
		if err != nil {
			return err
		}
		if !claimed {
			return ErrLeaseHeld
		}

		runErr := do(ctx)

		// Release with a fresh context so a cancelled run still unlocks
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = deps.PG.Tx(relCtx, func(q store.RowQuerier) error {
			_, e := q.Exec(relCtx, `DELETE FROM batch_job_leases WHERE job_id = $1`, jobID)
			return e
		})
		return runErr
	}
}
