package domain

import "context"

// ServicePort defines the service contract for batches
type ServicePort interface {
	// Submit plans the job and starts draining it in the background
	Submit(ctx context.Context, in SubmitInput) (JobView, error)
	Progress(ctx context.Context, in JobInput) (JobView, error)
	Cancel(ctx context.Context, in JobInput) (JobView, error)
	// Replay queues the job's failed items again and starts a new drain
	Replay(ctx context.Context, in JobInput) (ReplayResult, error)
}
