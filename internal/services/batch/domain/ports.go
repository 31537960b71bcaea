package domain

import (
	"context"

	"leveler/internal/core/levels"
)

// RunnerPort is the public port exposed by the batch module
type RunnerPort interface {
	// Plan expands unit ids x levels into durable work items and
	// returns the created job without running it
	Plan(ctx context.Context, unitIDs []string, lvls []levels.Level) (Job, error)

	// Run drains a job's pending items with the worker pool. It
	// returns once the job has no claimable items left
	Run(ctx context.Context, jobID string) error

	// Cancel requests a cooperative stop; in flight items finish
	Cancel(ctx context.Context, jobID string) error

	// Progress reports the job's counters and status
	Progress(ctx context.Context, jobID string) (Job, error)

	// ReplayFailed moves recovery log items back to pending so the
	// next Run picks them up again
	ReplayFailed(ctx context.Context, jobID string) (int, error)
}

// StorageRepo is the storage repository interface for jobs and items
type StorageRepo interface {
	CreateJob(ctx context.Context, job Job, items []Item) error
	GetJob(ctx context.Context, jobID string) (Job, error)
	SetJobStatus(ctx context.Context, jobID string, status JobStatus) error

	// ClaimNextItem atomically claims the lowest pending seq of a
	// running job. ok is false when nothing is claimable
	ClaimNextItem(ctx context.Context, jobID string) (Item, bool, error)

	// FinishItem records the item outcome and advances the cursor
	FinishItem(ctx context.Context, jobID string, seq int, fin ItemFinish) error

	// BumpProgress applies counter deltas atomically
	BumpProgress(ctx context.Context, jobID string, p Progress) error

	// CountOpenItems reports how many items are still pending or running
	CountOpenItems(ctx context.Context, jobID string) (int, error)

	// AppendRecovery logs a terminally failed item for replay
	AppendRecovery(ctx context.Context, e RecoveryEntry) error

	// ResetFailed flips failed items back to pending and clears their
	// recovery entries, returning how many were reset
	ResetFailed(ctx context.Context, jobID string) (int, error)
}
