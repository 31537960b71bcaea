// Package repo provides the units repository implementation
package repo

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"

	"leveler/internal/core/levels"
	"leveler/internal/core/stylist"
	"leveler/internal/modkit/repokit"
	perr "leveler/internal/platform/errors"
	"leveler/internal/services/units/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the units repository
type Storage interface {
	InsertUnit(ctx context.Context, u domain.ContentUnit) error
	GetUnit(ctx context.Context, unitID string) (domain.ContentUnit, error)

	ReplaceChunks(ctx context.Context, unitID string, lvl levels.Level, chunkingVersion int, xs []domain.Chunk) error
	ListChunks(ctx context.Context, unitID string, lvl levels.Level, chunkingVersion int) ([]domain.Chunk, error)
	GetChunk(ctx context.Context, unitID string, lvl levels.Level, idx, chunkingVersion int) (domain.Chunk, error)

	SetLabel(ctx context.Context, unitID string, lvl levels.Level, idx int, lb domain.StyleLabel) error
}

// InsertUnit implements Storage
func (s *pg) InsertUnit(ctx context.Context, u domain.ContentUnit) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO content_units (unit_id, title, author_period, language, body, content_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.UnitID, u.Title, u.AuthorPeriod, u.Language, u.Text, u.ContentHash, u.CreatedAt,
	)
	if perr.IsDuplicateKey(err) {
		return perr.Newf(perr.ErrorCodeDuplicateKey, "unit %s already exists", u.UnitID)
	}
	return err
}

// GetUnit implements Storage
func (s *pg) GetUnit(ctx context.Context, unitID string) (domain.ContentUnit, error) {
	var u domain.ContentUnit
	err := s.q.QueryRow(ctx, `
		SELECT unit_id::text, title, author_period, language, body, content_hash, created_at
		FROM content_units WHERE unit_id = $1`, unitID,
	).Scan(&u.UnitID, &u.Title, &u.AuthorPeriod, &u.Language, &u.Text, &u.ContentHash, &u.CreatedAt)
	if errors.Is(err, stdsql.ErrNoRows) {
		return domain.ContentUnit{}, perr.NotFoundf("unit %s", unitID)
	}
	return u, err
}

// ReplaceChunks deletes chunks from older chunking versions and inserts
// the current set in one transaction-scoped call
func (s *pg) ReplaceChunks(
	ctx context.Context,
	unitID string,
	lvl levels.Level,
	chunkingVersion int,
	xs []domain.Chunk,
) error {
	if _, err := s.q.Exec(ctx, `
		DELETE FROM chunks WHERE unit_id = $1 AND level = $2 AND chunking_version <> $3`,
		unitID, int(lvl), chunkingVersion,
	); err != nil {
		return err
	}
	for _, c := range xs {
		if _, err := s.q.Exec(ctx, `
			INSERT INTO chunks (unit_id, level, chunk_index, body, words, chunking_version)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (unit_id, level, chunk_index, chunking_version) DO NOTHING`,
			c.UnitID, int(c.Level), c.ChunkIndex, c.Text, c.Words, c.ChunkingVersion,
		); err != nil {
			return err
		}
	}
	return nil
}

const chunkCols = `
	unit_id::text, level, chunk_index, body, words, chunking_version,
	style, style_confidence, style_evidence, signals_version, labeled_at`

// ListChunks implements Storage
func (s *pg) ListChunks(
	ctx context.Context,
	unitID string,
	lvl levels.Level,
	chunkingVersion int,
) ([]domain.Chunk, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+chunkCols+`
		FROM chunks
		WHERE unit_id = $1 AND level = $2 AND chunking_version = $3
		ORDER BY chunk_index`, unitID, int(lvl), chunkingVersion,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetChunk implements Storage
func (s *pg) GetChunk(
	ctx context.Context,
	unitID string,
	lvl levels.Level,
	idx, chunkingVersion int,
) (domain.Chunk, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+chunkCols+`
		FROM chunks
		WHERE unit_id = $1 AND level = $2 AND chunk_index = $3 AND chunking_version = $4`,
		unitID, int(lvl), idx, chunkingVersion,
	)
	c, err := scanChunk(row)
	if errors.Is(err, stdsql.ErrNoRows) {
		return domain.Chunk{}, perr.NotFoundf("chunk %s/%d level %s", unitID, idx, lvl)
	}
	return c, err
}

// SetLabel implements Storage
func (s *pg) SetLabel(
	ctx context.Context,
	unitID string,
	lvl levels.Level,
	idx int,
	lb domain.StyleLabel,
) error {
	ev, err := json.Marshal(lb.Evidence)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "marshal evidence")
	}
	tag, err := s.q.Exec(ctx, `
		UPDATE chunks
		SET style = $4, style_confidence = $5, style_evidence = $6, signals_version = $7, labeled_at = $8
		WHERE unit_id = $1 AND level = $2 AND chunk_index = $3`,
		unitID, int(lvl), idx,
		string(lb.Style), lb.Confidence, ev, lb.SignalsVersion, lb.LabeledAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("chunk %s/%d level %s", unitID, idx, lvl)
	}
	return nil
}

type scanner interface{ Scan(dest ...any) error }

func scanChunk(r scanner) (domain.Chunk, error) {
	var (
		c        domain.Chunk
		lvl      int
		style    stdsql.NullString
		conf     stdsql.NullFloat64
		evidence []byte
		sigVer   stdsql.NullInt64
		at       stdsql.NullTime
	)
	err := r.Scan(
		&c.UnitID, &lvl, &c.ChunkIndex, &c.Text, &c.Words, &c.ChunkingVersion,
		&style, &conf, &evidence, &sigVer, &at,
	)
	if err != nil {
		return domain.Chunk{}, err
	}
	c.Level = levels.Level(lvl)

	if style.Valid {
		lb := &domain.StyleLabel{
			Style:          levels.Style(style.String),
			Confidence:     conf.Float64,
			SignalsVersion: int(sigVer.Int64),
			LabeledAt:      at.Time,
		}
		if len(evidence) > 0 {
			var evs []stylist.Evidence
			if err := json.Unmarshal(evidence, &evs); err == nil {
				lb.Evidence = evs
			}
		}
		c.Label = lb
	}
	return c, nil
}
