// Package service provides the validate service implementation
package service

import (
	"context"
	"time"

	"leveler/internal/adapters/scoring"
	"leveler/internal/core/chunker"
	"leveler/internal/core/levels"
	"leveler/internal/core/textcheck"
	perr "leveler/internal/platform/errors"
	dom "leveler/internal/services/validate/domain"
)

// Config for the validate service
type Config struct {
	// ScoreTimeout bounds the scorer call; the validator sits on the
	// synchronous read path for cache misses
	ScoreTimeout time.Duration
}

// Service implements domain.ValidatorPort. Thresholds are injected, not
// read from a global, so concurrent table versions can coexist in tests
// and sweeps
type Service struct {
	scorer     scoring.Scorer
	thresholds levels.ThresholdTable
	cfg        Config
}

// New constructs a validate service
func New(scorer scoring.Scorer, thresholds levels.ThresholdTable, cfg Config) *Service {
	if cfg.ScoreTimeout <= 0 {
		cfg.ScoreTimeout = 5 * time.Second
	}
	return &Service{scorer: scorer, thresholds: thresholds, cfg: cfg}
}

// ThresholdVersion returns the version of the injected table
func (s *Service) ThresholdVersion() int { return s.thresholds.Version() }

// Validate implements domain.ValidatorPort.
// Identity is rejected before anything else: an unchanged candidate is
// never a valid simplification no matter what it would score
func (s *Service) Validate(
	ctx context.Context,
	original, candidate string,
	style levels.Style,
	lvl levels.Level,
) (dom.Verdict, error) {
	v := dom.Verdict{ThresholdVersion: s.thresholds.Version()}

	if chunker.Canonicalize(candidate) == chunker.Canonicalize(original) {
		v.Kind = dom.VerdictFail
		v.Reason = "no change"
		return v, nil
	}

	th, ok := s.thresholds.Lookup(style, lvl)
	if !ok {
		return dom.Verdict{}, perr.Internalf("no threshold for %s/%s", style, lvl)
	}

	v.Checks = textcheck.Run(original, candidate)
	checksOK := textcheck.AllPass(v.Checks)

	sctx, cancel := context.WithTimeout(ctx, s.cfg.ScoreTimeout)
	score, err := s.scorer.Score(sctx, original, candidate)
	cancel()
	if err != nil {
		return dom.Verdict{}, err
	}
	v.Score = score

	switch {
	case th.Pass == 0:
		// trust-the-generator combinations: no score gate, but the
		// structural checks become mandatory
		if checksOK {
			v.Kind = dom.VerdictPass
		} else {
			v.Kind = dom.VerdictFail
			v.Reason = "rule checks failed: " + joinFailures(v.Checks)
		}
	case score >= th.Pass:
		v.Kind = dom.VerdictPass
	case score >= th.Pass-th.Band:
		if checksOK {
			v.Kind = dom.VerdictAcceptable
		} else {
			v.Kind = dom.VerdictFail
			v.Reason = "borderline score with failed checks: " + joinFailures(v.Checks)
		}
	default:
		v.Kind = dom.VerdictFail
		v.Reason = "score below threshold"
	}
	return v, nil
}

func joinFailures(rs []textcheck.Result) string {
	out := ""
	for _, name := range textcheck.Failures(rs) {
		if out != "" {
			out += ", "
		}
		out += name
	}
	return out
}
