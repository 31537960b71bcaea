// Package domain defines the types and interfaces for the cache service
package domain

import (
	"context"
	"time"

	"leveler/internal/core/levels"
)

// Key is the full versioned cache key. Every field participates in the
// lookup, so bumping a version makes old entries unreachable without any
// migration
type Key struct {
	UnitID           string
	ChunkIndex       int
	Level            levels.Level
	ContentHash      string
	PromptVersion    int
	ThresholdVersion int
}

// Tier is the quality tier of a stored entry
type Tier string

// Entry tiers; only these two are ever written
const (
	TierVerified   Tier = "verified"
	TierAcceptable Tier = "acceptable"
)

// Entry is the durable record of an accepted transformation. Immutable
// once written except the access counters and the stale flag
type Entry struct {
	Key   Key
	Text  string
	Score float64
	Tier  Tier
	Style levels.Style
	Model string
	// ThresholdPass and ThresholdBand snapshot the threshold cell active
	// when the entry was written, so the poison scan can judge old
	// entries under the rules they were admitted by
	ThresholdPass float64
	ThresholdBand float64
	Stale         bool
	CreatedAt     time.Time
	LastAccessed  time.Time
	HitCount      int64
}

// ReadPort serves and admits entries
type ReadPort interface {
	// Get returns the entry for the key. A stored entry whose content
	// hash differs from key.ContentHash is flagged stale and reported as
	// a miss
	Get(ctx context.Context, key Key) (Entry, bool, error)
	// Put admits an entry. First writer wins: a concurrent duplicate is
	// silently discarded and no error is returned
	Put(ctx context.Context, e Entry) error
}

// SweepReport summarizes one maintenance pass
type SweepReport struct {
	OldVersionDeleted int64
	PoisonPurged      int64
	StaleDeleted      int64
}

// SweepPort runs cache maintenance
type SweepPort interface {
	// Sweep deletes entries with versions strictly older than the active
	// ones, purges poisoned entries, and drops stale-flagged rows.
	// Entries matching the active versions are never deleted by the
	// version rule regardless of age
	Sweep(ctx context.Context, activePromptVersion, activeThresholdVersion int) (SweepReport, error)
}
