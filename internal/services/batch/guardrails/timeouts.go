package guardrails

import (
	"context"
	"time"
)

// Timeouts is an optional budget bundle for batch work.
// Zero values mean no extra timeout at that level
type Timeouts struct {
	// Item caps one work item end to end, all attempts included
	Item time.Duration

	// DB caps one coordination query (claim, finish, counters)
	DB time.Duration
}

// ForItem returns a sub context for one work item bounded by Item and
// any remaining parent budget
func ForItem(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Item)
}

// ForDB returns a sub context for a coordination query bounded by DB
// and any remaining parent budget
func ForDB(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.DB)
}

// Remaining returns the time until the deadline on ctx or zero when
// none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of the requested duration and any
// parent remainder. Never extends the parent deadline.
// When d is zero it returns a simple cancelable child inheriting the
// parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
