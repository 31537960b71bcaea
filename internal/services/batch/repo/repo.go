// Package repo provides postgres access for batch jobs and items
package repo

import (
	"context"
	stdsql "database/sql"
	"errors"
	"time"

	"leveler/internal/core/levels"
	"leveler/internal/modkit/repokit"
	perr "leveler/internal/platform/errors"
	"leveler/internal/services/batch/domain"
)

func isNoRows(err error) bool { return errors.Is(err, stdsql.ErrNoRows) }

type (
	// PG is a Postgres binder for domain.StorageRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.StorageRepo
func NewPG() repokit.Binder[domain.StorageRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.StorageRepo { return &queries{q: q} }

// CreateJob inserts the job row and all of its work items
func (r *queries) CreateJob(ctx context.Context, job domain.Job, items []domain.Item) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO batch_jobs (job_id, status, total_items, attempted, succeeded, failed, cursor, created_at)
		VALUES ($1, $2, $3, 0, 0, 0, 0, $4)
	`, job.JobID, string(job.Status), job.TotalItems, job.CreatedAt)
	if err != nil {
		if perr.IsDuplicateKey(err) {
			return perr.InvalidArgf("batch job %s already exists", job.JobID)
		}
		return err
	}
	for _, it := range items {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO batch_items (job_id, seq, unit_id, chunk_index, level, status, attempts, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 0, now())
		`, it.JobID, it.Seq, it.UnitID, it.ChunkIndex, int(it.Level), string(domain.ItemPending)); err != nil {
			return err
		}
	}
	return nil
}

// GetJob loads one job row
func (r *queries) GetJob(ctx context.Context, jobID string) (domain.Job, error) {
	row := r.q.QueryRow(ctx, `
		SELECT job_id, status, total_items, attempted, succeeded, failed, cursor,
		       created_at, started_at, finished_at
		FROM batch_jobs
		WHERE job_id = $1
	`, jobID)

	var j domain.Job
	var status string
	var started, finished *time.Time
	if err := row.Scan(
		&j.JobID, &status, &j.TotalItems, &j.Attempted, &j.Succeeded, &j.Failed,
		&j.Cursor, &j.CreatedAt, &started, &finished,
	); err != nil {
		if isNoRows(err) {
			return domain.Job{}, perr.NotFoundf("batch job %s not found", jobID)
		}
		return domain.Job{}, err
	}
	j.Status = domain.JobStatus(status)
	j.StartedAt = started
	j.FinishedAt = finished
	return j, nil
}

// SetJobStatus transitions the job, stamping started/finished edges
func (r *queries) SetJobStatus(ctx context.Context, jobID string, status domain.JobStatus) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE batch_jobs
		SET status = $2,
		    started_at = CASE WHEN $2 = 'running' THEN COALESCE(started_at, now()) ELSE started_at END,
		    finished_at = CASE WHEN $2 IN ('completed','cancelled') THEN now() ELSE finished_at END
		WHERE job_id = $1
	`, jobID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("batch job %s not found", jobID)
	}
	return nil
}

// ClaimNextItem claims the lowest pending seq of a running job.
// SKIP LOCKED keeps concurrent claimers from colliding
func (r *queries) ClaimNextItem(ctx context.Context, jobID string) (domain.Item, bool, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE batch_items bi
		SET status = 'running', attempts = bi.attempts + 1, updated_at = now()
		WHERE (bi.job_id, bi.seq) = (
			SELECT i.job_id, i.seq
			FROM batch_items i
			JOIN batch_jobs j ON j.job_id = i.job_id
			WHERE i.job_id = $1 AND i.status = 'pending' AND j.status = 'running'
			ORDER BY i.seq
			FOR UPDATE OF i SKIP LOCKED
			LIMIT 1
		)
		RETURNING bi.seq, bi.unit_id, bi.chunk_index, bi.level, bi.attempts
	`, jobID)

	var it domain.Item
	var lvl int
	if err := row.Scan(&it.Seq, &it.UnitID, &it.ChunkIndex, &lvl, &it.Attempts); err != nil {
		if isNoRows(err) {
			return domain.Item{}, false, nil
		}
		return domain.Item{}, false, err
	}
	it.JobID = jobID
	it.Level = levels.Level(lvl)
	it.Status = domain.ItemRunning

	// Cursor tracks the highest claimed seq for observability
	if _, err := r.q.Exec(ctx, `
		UPDATE batch_jobs SET cursor = GREATEST(cursor, $2) WHERE job_id = $1
	`, jobID, it.Seq); err != nil {
		return domain.Item{}, false, err
	}
	return it, true, nil
}

// FinishItem records the terminal outcome of one item
func (r *queries) FinishItem(ctx context.Context, jobID string, seq int, fin domain.ItemFinish) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE batch_items
		SET status = $3, disposition = $4, attempts = $5, error = NULLIF($6, ''), updated_at = now()
		WHERE job_id = $1 AND seq = $2
	`, jobID, seq, string(fin.Status), fin.Disposition, fin.Attempts, fin.Error)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("batch item %s/%d not found", jobID, seq)
	}
	return nil
}

// BumpProgress applies counter deltas atomically
func (r *queries) BumpProgress(ctx context.Context, jobID string, p domain.Progress) error {
	_, err := r.q.Exec(ctx, `
		UPDATE batch_jobs
		SET attempted = attempted + $2, succeeded = succeeded + $3, failed = failed + $4
		WHERE job_id = $1
	`, jobID, p.Attempted, p.Succeeded, p.Failed)
	return err
}

// CountOpenItems reports how many items are still pending or running
func (r *queries) CountOpenItems(ctx context.Context, jobID string) (int, error) {
	row := r.q.QueryRow(ctx, `
		SELECT count(*) FROM batch_items
		WHERE job_id = $1 AND status IN ('pending','running')
	`, jobID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// AppendRecovery logs a terminally failed item for replay
func (r *queries) AppendRecovery(ctx context.Context, e domain.RecoveryEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO batch_recovery_log (job_id, seq, unit_id, chunk_index, level, reason, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (job_id, seq) DO UPDATE SET reason = EXCLUDED.reason, at = EXCLUDED.at
	`, e.JobID, e.Seq, e.UnitID, e.ChunkIndex, int(e.Level), e.Reason, e.At)
	return err
}

// ResetFailed flips failed items back to pending and clears their
// recovery entries
func (r *queries) ResetFailed(ctx context.Context, jobID string) (int, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE batch_items
		SET status = 'pending', disposition = '', error = NULL, updated_at = now()
		WHERE job_id = $1 AND status = 'failed'
	`, jobID)
	if err != nil {
		return 0, err
	}
	n := int(tag.RowsAffected())
	if n == 0 {
		return 0, nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM batch_recovery_log WHERE job_id = $1`, jobID); err != nil {
		return n, err
	}
	return n, nil
}
