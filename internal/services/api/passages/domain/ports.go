package domain

import "context"

// ServicePort defines the service contract for passages
type ServicePort interface {
	Ingest(ctx context.Context, in IngestInput) (Unit, error)
	Unit(ctx context.Context, in UnitInput) (Unit, error)
	Chunks(ctx context.Context, in ChunksInput) (ChunkList, error)
	Render(ctx context.Context, in RenderInput) (Passage, error)
}
