package domain

import (
	"context"

	"leveler/internal/core/levels"
)

// IngestPort creates and reads content units
type IngestPort interface {
	Ingest(ctx context.Context, title, authorPeriod, language, text string) (ContentUnit, error)
	GetUnit(ctx context.Context, unitID string) (ContentUnit, error)
}

// ChunkPort derives and serves level-specific chunks
type ChunkPort interface {
	// EnsureChunks splits the unit for the level if no current chunks
	// exist and returns them in index order
	EnsureChunks(ctx context.Context, unitID string, lvl levels.Level) ([]Chunk, error)
	GetChunk(ctx context.Context, unitID string, lvl levels.Level, idx int) (Chunk, error)
	// Label returns the chunk's style label, classifying and persisting
	// it on first use or when the signal pack version moved
	Label(ctx context.Context, unitID string, lvl levels.Level, idx int) (StyleLabel, error)
}
