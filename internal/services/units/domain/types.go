// Package domain defines the types and interfaces for the units service
package domain

import (
	"time"

	"leveler/internal/core/levels"
	"leveler/internal/core/stylist"
)

// ContentUnit is an immutable source text with identity and metadata.
// The hash covers the canonical form of the text; a re-ingested unit
// with different text gets a new hash, which orphans derived chunks and
// cache entries
type ContentUnit struct {
	UnitID       string // uuid
	Title        string
	AuthorPeriod string
	Language     string
	Text         string
	ContentHash  string // hex sha-256 of canonical text
	CreatedAt    time.Time
}

// Chunk is one slice of a unit's text for a target level. Boundaries
// depend on the level's target size, so chunks are keyed per level
type Chunk struct {
	UnitID          string
	Level           levels.Level
	ChunkIndex      int
	Text            string
	Words           int
	ChunkingVersion int

	// Style label, computed lazily on first use. Nil until labeled
	Label *StyleLabel
}

// StyleLabel is a persisted classification result for a chunk
type StyleLabel struct {
	Style          levels.Style
	Confidence     float64
	Evidence       []stylist.Evidence
	SignalsVersion int
	LabeledAt      time.Time
}
