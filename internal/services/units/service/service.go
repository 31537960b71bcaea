// Package service provides the units service implementation
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"leveler/internal/core/chunker"
	"leveler/internal/core/levels"
	"leveler/internal/core/signalpack"
	"leveler/internal/core/stylist"
	"leveler/internal/modkit/repokit"
	perr "leveler/internal/platform/errors"
	dom "leveler/internal/services/units/domain"
	"leveler/internal/services/units/repo"
)

// Service implements domain.IngestPort and domain.ChunkPort
type Service struct {
	tx      repokit.TxRunner
	binder  repokit.Binder[repo.Storage]
	stylist *stylist.Stylist
	now     func() time.Time
}

// New constructs a units service. The signal pack is loaded once here so
// classification stays pure downstream
func New(tx repokit.TxRunner, binder repokit.Binder[repo.Storage]) (*Service, error) {
	pack, err := signalpack.Load()
	if err != nil {
		return nil, err
	}
	return &Service{
		tx:      tx,
		binder:  binder,
		stylist: stylist.New(pack),
		now:     time.Now,
	}, nil
}

// HashText returns the content hash of the canonical form of text
func HashText(text string) string {
	sum := sha256.Sum256([]byte(chunker.Canonicalize(text)))
	return hex.EncodeToString(sum[:])
}

// Ingest implements domain.IngestPort
func (s *Service) Ingest(ctx context.Context, title, authorPeriod, language, text string) (dom.ContentUnit, error) {
	if chunker.Canonicalize(text) == "" {
		return dom.ContentUnit{}, perr.InvalidArgf("unit text is empty")
	}
	u := dom.ContentUnit{
		UnitID:       uuid.NewString(),
		Title:        title,
		AuthorPeriod: authorPeriod,
		Language:     language,
		Text:         text,
		ContentHash:  HashText(text),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.binder.Bind(s.tx).InsertUnit(ctx, u); err != nil {
		return dom.ContentUnit{}, err
	}
	return u, nil
}

// GetUnit implements domain.IngestPort
func (s *Service) GetUnit(ctx context.Context, unitID string) (dom.ContentUnit, error) {
	return s.binder.Bind(s.tx).GetUnit(ctx, unitID)
}

// EnsureChunks implements domain.ChunkPort. Splitting is deterministic,
// so a racing double-split produces identical rows and the conflict
// clause makes the second writer a no-op
func (s *Service) EnsureChunks(ctx context.Context, unitID string, lvl levels.Level) ([]dom.Chunk, error) {
	if !lvl.Valid() {
		return nil, perr.InvalidArgf("invalid level %d", lvl)
	}

	st := s.binder.Bind(s.tx)
	existing, err := st.ListChunks(ctx, unitID, lvl, chunker.Version)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	u, err := st.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}

	parts := chunker.Split(u.Text, lvl)
	xs := make([]dom.Chunk, 0, len(parts))
	for _, p := range parts {
		xs = append(xs, dom.Chunk{
			UnitID:          unitID,
			Level:           lvl,
			ChunkIndex:      p.Index,
			Text:            p.Text,
			Words:           p.Words,
			ChunkingVersion: chunker.Version,
		})
	}

	err = repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		return s.binder.Bind(q).ReplaceChunks(ctx, unitID, lvl, chunker.Version, xs)
	})
	if err != nil {
		return nil, err
	}
	return st.ListChunks(ctx, unitID, lvl, chunker.Version)
}

// GetChunk implements domain.ChunkPort
func (s *Service) GetChunk(ctx context.Context, unitID string, lvl levels.Level, idx int) (dom.Chunk, error) {
	return s.binder.Bind(s.tx).GetChunk(ctx, unitID, lvl, idx, chunker.Version)
}

// Label implements domain.ChunkPort
func (s *Service) Label(ctx context.Context, unitID string, lvl levels.Level, idx int) (dom.StyleLabel, error) {
	st := s.binder.Bind(s.tx)
	c, err := st.GetChunk(ctx, unitID, lvl, idx, chunker.Version)
	if err != nil {
		return dom.StyleLabel{}, err
	}
	if c.Label != nil && c.Label.SignalsVersion == s.stylist.SignalsVersion() {
		return *c.Label, nil
	}

	res := s.stylist.Classify(c.Text)
	lb := dom.StyleLabel{
		Style:          res.Style,
		Confidence:     res.Confidence,
		Evidence:       res.Evidence,
		SignalsVersion: res.SignalsVersion,
		LabeledAt:      s.now().UTC(),
	}
	if err := st.SetLabel(ctx, unitID, lvl, idx, lb); err != nil {
		return dom.StyleLabel{}, err
	}
	return lb, nil
}
