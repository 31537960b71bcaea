// Package domain holds the core types for bulk transformation jobs
package domain

import (
	"time"

	"leveler/internal/core/levels"
)

// JobStatus is the lifecycle state of a batch job
type JobStatus string

// Job lifecycle states
const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
)

// Job describes one bulk run over chunk x level work items
type Job struct {
	JobID      string
	Status     JobStatus
	TotalItems int
	Attempted  int
	Succeeded  int
	Failed     int
	Cursor     int // seq of the last claimed item
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// ItemStatus is the lifecycle state of one work item
type ItemStatus string

// Item lifecycle states
const (
	ItemPending ItemStatus = "pending"
	ItemRunning ItemStatus = "running"
	ItemDone    ItemStatus = "done"
	ItemFailed  ItemStatus = "failed"
)

// Item is one (unit, chunk, level) work item within a job. Seq orders
// items and doubles as the resume cursor
type Item struct {
	JobID       string
	Seq         int
	UnitID      string
	ChunkIndex  int
	Level       levels.Level
	Status      ItemStatus
	Disposition string // terminal result kind once processed
	Attempts    int
	Error       string
	UpdatedAt   time.Time
}

// ItemFinish records the terminal outcome of one item
type ItemFinish struct {
	Status      ItemStatus
	Disposition string
	Attempts    int
	Error       string
}

// RecoveryEntry is one terminally failed item kept for replay
type RecoveryEntry struct {
	JobID      string
	Seq        int
	UnitID     string
	ChunkIndex int
	Level      levels.Level
	Reason     string
	At         time.Time
}

// Progress is the counter delta applied after one item
type Progress struct {
	Attempted int
	Succeeded int
	Failed    int
}
