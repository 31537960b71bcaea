// Package service contains passages workflows
package service

import (
	"context"
	"strings"
	"time"

	"leveler/internal/core/levels"
	perr "leveler/internal/platform/errors"
	"leveler/internal/services/api/passages/domain"
	tdom "leveler/internal/services/transform/domain"
	unitdom "leveler/internal/services/units/domain"
)

// Service defines the service contract for passages
type Service interface{ domain.ServicePort }

// Svc implements the Service interface over the units and transform ports
type Svc struct {
	ingest    unitdom.IngestPort
	chunks    unitdom.ChunkPort
	transform tdom.TransformPort
}

// New creates a new passages service
func New(ingest unitdom.IngestPort, chunks unitdom.ChunkPort, transform tdom.TransformPort) *Svc {
	if ingest == nil || chunks == nil {
		panic("passages.Service requires units ports")
	}
	if transform == nil {
		panic("passages.Service requires a transform port")
	}
	return &Svc{ingest: ingest, chunks: chunks, transform: transform}
}

// Ingest registers a new content unit and returns its identity
func (s *Svc) Ingest(ctx context.Context, in domain.IngestInput) (domain.Unit, error) {
	u, err := s.ingest.Ingest(ctx, in.Title, in.AuthorPeriod, in.Language, in.Text)
	if err != nil {
		return domain.Unit{}, err
	}
	return toUnit(u), nil
}

// Unit returns a registered content unit by id
func (s *Svc) Unit(ctx context.Context, in domain.UnitInput) (domain.Unit, error) {
	u, err := s.ingest.GetUnit(ctx, in.UnitID)
	if err != nil {
		return domain.Unit{}, err
	}
	return toUnit(u), nil
}

// Chunks lists the unit's chunks for a level, deriving them on first use
func (s *Svc) Chunks(ctx context.Context, in domain.ChunksInput) (domain.ChunkList, error) {
	lvl, err := levels.ParseLevel(in.Level)
	if err != nil {
		return domain.ChunkList{}, perr.InvalidArgf("level: %v", err)
	}
	cs, err := s.chunks.EnsureChunks(ctx, in.UnitID, lvl)
	if err != nil {
		return domain.ChunkList{}, err
	}
	out := domain.ChunkList{UnitID: in.UnitID, Level: lvl.String(), Chunks: make([]domain.ChunkInfo, 0, len(cs))}
	for _, c := range cs {
		info := domain.ChunkInfo{ChunkIndex: c.ChunkIndex, Words: c.Words}
		if c.Label != nil {
			info.Style = string(c.Label.Style)
		}
		out.Chunks = append(out.Chunks, info)
	}
	return out, nil
}

// Render runs the transformation pipeline for one chunk. When the
// pipeline rejects or falls back, the response carries the original
// chunk text with simplified false
func (s *Svc) Render(ctx context.Context, in domain.RenderInput) (domain.Passage, error) {
	lvl, err := levels.ParseLevel(in.Level)
	if err != nil {
		return domain.Passage{}, perr.InvalidArgf("level: %v", err)
	}

	res, err := s.transform.Transform(ctx, tdom.Request{
		UnitID:     in.UnitID,
		ChunkIndex: in.ChunkIndex,
		Level:      lvl,
	})
	if err != nil {
		return domain.Passage{}, err
	}

	p := domain.Passage{
		UnitID:     in.UnitID,
		ChunkIndex: in.ChunkIndex,
		Level:      lvl.String(),
		Style:      string(res.Style),
		Kind:       string(res.Kind),
		Text:       res.Text,
		Simplified: true,
		Score:      res.Score,
		Model:      res.Model,
		Attempts:   res.Attempts,
		CacheHit:   res.CacheHit,
		Reason:     res.Reason,
	}

	if res.Kind == tdom.ResultRejected || res.Kind == tdom.ResultFallbackOriginal {
		c, err := s.chunks.GetChunk(ctx, in.UnitID, lvl, in.ChunkIndex)
		if err != nil {
			return domain.Passage{}, err
		}
		p.Text = c.Text
		p.Simplified = false
	}
	return p, nil
}

func toUnit(u unitdom.ContentUnit) domain.Unit {
	return domain.Unit{
		UnitID:       u.UnitID,
		Title:        u.Title,
		AuthorPeriod: u.AuthorPeriod,
		Language:     u.Language,
		ContentHash:  u.ContentHash,
		Words:        len(strings.Fields(u.Text)),
		CreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
