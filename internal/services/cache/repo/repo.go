// Package repo provides the cache repository implementation
package repo

import (
	"context"
	stdsql "database/sql"
	"errors"

	"leveler/internal/core/levels"
	"leveler/internal/modkit/repokit"
	"leveler/internal/services/cache/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the cache repository
type Storage interface {
	// GetCurrent fetches the entry for the key's logical subject under
	// the key's versions, whatever content hash it was written with
	GetCurrent(ctx context.Context, key domain.Key) (domain.Entry, bool, error)
	Insert(ctx context.Context, e domain.Entry) error
	Touch(ctx context.Context, key domain.Key) error
	MarkStale(ctx context.Context, key domain.Key) error

	DeleteOlderVersions(ctx context.Context, activePromptVersion, activeThresholdVersion int) (int64, error)
	DeleteStale(ctx context.Context) (int64, error)
	PurgePoisoned(ctx context.Context) (int64, error)
}

const entryCols = `
	unit_id::text, chunk_index, level, content_hash, prompt_version, threshold_version,
	body, score, tier, style, model, threshold_pass, threshold_band, stale, created_at, last_accessed, hit_count`

// GetCurrent implements Storage. The content hash is deliberately not in
// the WHERE clause: the caller compares it to detect stale entries
func (s *pg) GetCurrent(ctx context.Context, key domain.Key) (domain.Entry, bool, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+entryCols+`
		FROM cache_entries
		WHERE unit_id = $1 AND chunk_index = $2 AND level = $3
		  AND prompt_version = $4 AND threshold_version = $5`,
		key.UnitID, key.ChunkIndex, int(key.Level), key.PromptVersion, key.ThresholdVersion,
	)
	var (
		e     domain.Entry
		lvl   int
		tier  string
		style string
	)
	err := row.Scan(
		&e.Key.UnitID, &e.Key.ChunkIndex, &lvl, &e.Key.ContentHash,
		&e.Key.PromptVersion, &e.Key.ThresholdVersion,
		&e.Text, &e.Score, &tier, &style, &e.Model, &e.ThresholdPass, &e.ThresholdBand, &e.Stale,
		&e.CreatedAt, &e.LastAccessed, &e.HitCount,
	)
	if errors.Is(err, stdsql.ErrNoRows) {
		return domain.Entry{}, false, nil
	}
	if err != nil {
		return domain.Entry{}, false, err
	}
	e.Key.Level = levels.Level(lvl)
	e.Tier = domain.Tier(tier)
	e.Style = levels.Style(style)
	return e, true, nil
}

// Insert implements Storage. ON CONFLICT DO NOTHING gives first-writer-
// wins semantics for racing workers on the same key
func (s *pg) Insert(ctx context.Context, e domain.Entry) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO cache_entries
			(unit_id, chunk_index, level, content_hash, prompt_version, threshold_version,
			 body, score, tier, style, model, threshold_pass, threshold_band, created_at, last_accessed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		ON CONFLICT (unit_id, chunk_index, level, content_hash, prompt_version, threshold_version)
		DO NOTHING`,
		e.Key.UnitID, e.Key.ChunkIndex, int(e.Key.Level), e.Key.ContentHash,
		e.Key.PromptVersion, e.Key.ThresholdVersion,
		e.Text, e.Score, string(e.Tier), string(e.Style), e.Model,
		e.ThresholdPass, e.ThresholdBand, e.CreatedAt,
	)
	return err
}

// Touch implements Storage
func (s *pg) Touch(ctx context.Context, key domain.Key) error {
	_, err := s.q.Exec(ctx, `
		UPDATE cache_entries
		SET hit_count = hit_count + 1, last_accessed = now()
		WHERE unit_id = $1 AND chunk_index = $2 AND level = $3
		  AND content_hash = $4 AND prompt_version = $5 AND threshold_version = $6`,
		key.UnitID, key.ChunkIndex, int(key.Level), key.ContentHash,
		key.PromptVersion, key.ThresholdVersion,
	)
	return err
}

// MarkStale implements Storage
func (s *pg) MarkStale(ctx context.Context, key domain.Key) error {
	_, err := s.q.Exec(ctx, `
		UPDATE cache_entries
		SET stale = TRUE
		WHERE unit_id = $1 AND chunk_index = $2 AND level = $3
		  AND prompt_version = $4 AND threshold_version = $5`,
		key.UnitID, key.ChunkIndex, int(key.Level), key.PromptVersion, key.ThresholdVersion,
	)
	return err
}

// DeleteOlderVersions implements Storage. Strictly-older only; rows at
// the active versions survive no matter what
func (s *pg) DeleteOlderVersions(
	ctx context.Context,
	activePromptVersion, activeThresholdVersion int,
) (int64, error) {
	tag, err := s.q.Exec(ctx, `
		DELETE FROM cache_entries
		WHERE (prompt_version < $1 OR threshold_version < $2)
		  AND NOT (prompt_version = $1 AND threshold_version = $2)`,
		activePromptVersion, activeThresholdVersion,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteStale implements Storage
func (s *pg) DeleteStale(ctx context.Context) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM cache_entries WHERE stale`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PurgePoisoned implements Storage. An entry is poisoned when its text
// equals the chunk's original text, or its stored score falls below the
// pass threshold it was admitted under. Both indicate a writer bug, not
// a version mismatch, so they are purged at any version
func (s *pg) PurgePoisoned(ctx context.Context) (int64, error) {
	tag, err := s.q.Exec(ctx, `
		DELETE FROM cache_entries ce
		USING chunks c
		WHERE ce.unit_id = c.unit_id
		  AND ce.level = c.level
		  AND ce.chunk_index = c.chunk_index
		  AND (
			ce.body = c.body
			OR (ce.tier = 'verified' AND ce.threshold_pass > 0 AND ce.score < ce.threshold_pass)
			OR (ce.tier = 'acceptable' AND ce.threshold_pass > 0
				AND ce.score < ce.threshold_pass - ce.threshold_band)
		  )`,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
