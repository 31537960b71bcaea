// Package service provides the cache service implementation
package service

import (
	"context"
	"time"

	"leveler/internal/core/levels"
	"leveler/internal/modkit/repokit"
	perr "leveler/internal/platform/errors"
	"leveler/internal/platform/logger"
	dom "leveler/internal/services/cache/domain"
	"leveler/internal/services/cache/repo"
	tdom "leveler/internal/services/transform/domain"
)

// Config for the cache service
type Config struct {
	PromptVersion    int
	ThresholdVersion int
	Thresholds       levels.ThresholdTable
}

// Service implements domain.ReadPort, domain.SweepPort and the transform
// orchestrator's cache port
type Service struct {
	tx     repokit.TxRunner
	binder repokit.Binder[repo.Storage]
	cfg    Config
	log    logger.Logger
	now    func() time.Time
}

// New constructs a cache service
func New(tx repokit.TxRunner, binder repokit.Binder[repo.Storage], cfg Config) *Service {
	return &Service{
		tx:     tx,
		binder: binder,
		cfg:    cfg,
		log:    *logger.Named("cache"),
		now:    time.Now,
	}
}

// Get implements domain.ReadPort. A stored entry under the right
// versions but the wrong content hash means the unit text moved under
// the cache; the entry is flagged stale and the lookup misses
func (s *Service) Get(ctx context.Context, key dom.Key) (dom.Entry, bool, error) {
	st := s.binder.Bind(s.tx)
	e, ok, err := st.GetCurrent(ctx, key)
	if err != nil || !ok {
		return dom.Entry{}, false, err
	}
	if e.Stale {
		return dom.Entry{}, false, nil
	}
	if e.Key.ContentHash != key.ContentHash {
		if err := st.MarkStale(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("unit", key.UnitID).Msg("mark stale failed")
		}
		return dom.Entry{}, false, nil
	}
	if err := st.Touch(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("unit", key.UnitID).Msg("hit count bump failed")
	}
	return e, true, nil
}

// Put implements domain.ReadPort
func (s *Service) Put(ctx context.Context, e dom.Entry) error {
	if e.Tier != dom.TierVerified && e.Tier != dom.TierAcceptable {
		return perr.InvalidArgf("cache only admits verified or acceptable entries, got %q", e.Tier)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	return s.binder.Bind(s.tx).Insert(ctx, e)
}

// Sweep implements domain.SweepPort
func (s *Service) Sweep(ctx context.Context, activePV, activeTV int) (dom.SweepReport, error) {
	st := s.binder.Bind(s.tx)
	var rep dom.SweepReport
	var err error

	if rep.OldVersionDeleted, err = st.DeleteOlderVersions(ctx, activePV, activeTV); err != nil {
		return rep, err
	}
	if rep.PoisonPurged, err = st.PurgePoisoned(ctx); err != nil {
		return rep, err
	}
	if rep.StaleDeleted, err = st.DeleteStale(ctx); err != nil {
		return rep, err
	}
	s.log.Info().
		Int64("old_version_deleted", rep.OldVersionDeleted).
		Int64("poison_purged", rep.PoisonPurged).
		Int64("stale_deleted", rep.StaleDeleted).
		Msg("cache sweep complete")
	return rep, nil
}

// key builds the full versioned key for a transform request
func (s *Service) key(req tdom.Request, contentHash string) dom.Key {
	return dom.Key{
		UnitID:           req.UnitID,
		ChunkIndex:       req.ChunkIndex,
		Level:            req.Level,
		ContentHash:      contentHash,
		PromptVersion:    s.cfg.PromptVersion,
		ThresholdVersion: s.cfg.ThresholdVersion,
	}
}

// Lookup implements the transform orchestrator's cache port
func (s *Service) Lookup(ctx context.Context, req tdom.Request, contentHash string) (tdom.TerminalResult, bool, error) {
	e, ok, err := s.Get(ctx, s.key(req, contentHash))
	if err != nil || !ok {
		return tdom.TerminalResult{}, false, err
	}
	kind := tdom.ResultVerified
	if e.Tier == dom.TierAcceptable {
		kind = tdom.ResultAcceptable
	}
	return tdom.TerminalResult{
		Kind:  kind,
		Text:  e.Text,
		Score: e.Score,
		Style: e.Style,
		Model: e.Model,
	}, true, nil
}

// Store implements the transform orchestrator's cache port. Only
// Verified and Acceptable results are admissible
func (s *Service) Store(ctx context.Context, req tdom.Request, contentHash string, res tdom.TerminalResult) error {
	var tier dom.Tier
	switch res.Kind {
	case tdom.ResultVerified:
		tier = dom.TierVerified
	case tdom.ResultAcceptable:
		tier = dom.TierAcceptable
	default:
		return perr.InvalidArgf("refusing to cache %s result", res.Kind)
	}

	th, _ := s.cfg.Thresholds.Lookup(res.Style, req.Level)
	return s.Put(ctx, dom.Entry{
		Key:           s.key(req, contentHash),
		Text:          res.Text,
		Score:         res.Score,
		Tier:          tier,
		Style:         res.Style,
		Model:         res.Model,
		ThresholdPass: th.Pass,
		ThresholdBand: th.Band,
	})
}
