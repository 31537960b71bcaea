// Package service provides the transform orchestrator implementation
package service

import (
	"context"
	"time"

	"leveler/internal/adapters/genai"
	"leveler/internal/core/chunker"
	"leveler/internal/core/levels"
	perr "leveler/internal/platform/errors"
	"leveler/internal/platform/logger"
	dom "leveler/internal/services/transform/domain"
	unitdom "leveler/internal/services/units/domain"
	valdom "leveler/internal/services/validate/domain"
)

// Config for the transform service
type Config struct {
	TransientCap int
	// TransientBackoff is slept between same-step retries, scaled by the
	// consecutive failure count. Zero disables the sleep in tests
	TransientBackoff time.Duration
}

// Service implements domain.TransformPort. One call owns one request end
// to end; attempts are strictly sequential
type Service struct {
	units     unitdom.ChunkPort
	ingest    unitdom.IngestPort
	generator genai.Generator
	validator valdom.ValidatorPort
	cache     dom.CachePort
	telemetry dom.TelemetryPort
	params    levels.ParamTable
	threshold levels.ThresholdTable
	cfg       Config
	log       logger.Logger
	sleep     func(time.Duration)
	now       func() time.Time
}

// New constructs a transform service. Cache and telemetry ports may be
// nil; the loop then runs uncached and unmetered
func New(
	units unitdom.ChunkPort,
	ingest unitdom.IngestPort,
	generator genai.Generator,
	validator valdom.ValidatorPort,
	cache dom.CachePort,
	telemetry dom.TelemetryPort,
	params levels.ParamTable,
	threshold levels.ThresholdTable,
	cfg Config,
) *Service {
	if cfg.TransientCap <= 0 {
		cfg.TransientCap = DefaultTransientCap
	}
	return &Service{
		units:     units,
		ingest:    ingest,
		generator: generator,
		validator: validator,
		cache:     cache,
		telemetry: telemetry,
		params:    params,
		threshold: threshold,
		cfg:       cfg,
		log:       *logger.Named("transform"),
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// Transform implements domain.TransformPort
func (s *Service) Transform(ctx context.Context, req dom.Request) (dom.TerminalResult, error) {
	if !req.Level.Valid() {
		return dom.TerminalResult{}, perr.InvalidArgf("invalid level %d", req.Level)
	}

	unit, err := s.ingest.GetUnit(ctx, req.UnitID)
	if err != nil {
		return dom.TerminalResult{}, err
	}

	if s.cache != nil {
		if hit, ok, err := s.cache.Lookup(ctx, req, unit.ContentHash); err != nil {
			s.log.Warn().Err(err).Str("unit", req.UnitID).Msg("cache lookup failed, proceeding uncached")
		} else if ok {
			hit.CacheHit = true
			return hit, nil
		}
	}

	chunk, err := s.units.GetChunk(ctx, req.UnitID, req.Level, req.ChunkIndex)
	if err != nil {
		return dom.TerminalResult{}, err
	}
	label, err := s.units.Label(ctx, req.UnitID, req.Level, req.ChunkIndex)
	if err != nil {
		return dom.TerminalResult{}, err
	}

	th, ok := s.threshold.Lookup(label.Style, req.Level)
	if !ok {
		return dom.TerminalResult{}, perr.Internalf("no threshold for %s/%s", label.Style, req.Level)
	}
	machine := NewMachine(s.params.Plan(label.Style, req.Level), th, s.cfg.TransientCap)

	res, err := s.run(ctx, req, chunk.Text, label.Style, machine)
	if err != nil {
		return dom.TerminalResult{}, err
	}
	res.Style = label.Style

	if s.cache != nil && (res.Kind == dom.ResultVerified || res.Kind == dom.ResultAcceptable) {
		if err := s.cache.Store(ctx, req, unit.ContentHash, res); err != nil {
			s.log.Warn().Err(err).Str("unit", req.UnitID).Msg("cache store failed")
		}
	}
	return res, nil
}

// run drives the generate, validate, escalate loop until terminal
func (s *Service) run(
	ctx context.Context,
	req dom.Request,
	original string,
	style levels.Style,
	machine *Machine,
) (dom.TerminalResult, error) {
	var history []Attempt
	var lastReason string
	consecutiveTransient := 0

	for {
		if err := ctx.Err(); err != nil {
			return dom.TerminalResult{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "transform cancelled")
		}

		d := machine.Next(history)
		switch d.Action {
		case ActionReject:
			return dom.TerminalResult{
				Kind:     dom.ResultRejected,
				Attempts: len(history),
				Reason:   lastReason,
			}, nil
		case ActionFallback:
			return dom.TerminalResult{
				Kind:     dom.ResultFallbackOriginal,
				Attempts: len(history),
			}, nil
		}

		if consecutiveTransient > 0 && s.cfg.TransientBackoff > 0 {
			s.sleep(s.cfg.TransientBackoff * time.Duration(consecutiveTransient))
		}

		input := original
		if d.Params.ShrinkRatio > 0 {
			input = chunker.Shrink(original, d.Params.ShrinkRatio)
		}

		gen, genErr := s.generator.Generate(ctx, input, genai.Params{
			Level:       req.Level,
			Style:       style,
			Variant:     d.Params.PromptVariant,
			Temperature: d.Params.Temperature,
			ModelHint:   d.Params.ModelHint,
		})

		tel := dom.AttemptTelemetry{
			UnitID:         req.UnitID,
			ChunkIndex:     req.ChunkIndex,
			Level:          req.Level,
			Style:          style,
			AttemptNo:      len(history) + 1,
			EscalationStep: d.Step,
			PromptVariant:  d.Params.PromptVariant,
			Temperature:    d.Params.Temperature,
			ModelHint:      d.Params.ModelHint,
			Model:          gen.Model,
			Latency:        gen.Latency,
			At:             s.now().UTC(),
		}

		if genErr != nil {
			outcome := OutcomeUpstream
			if perr.IsRetryable(genErr) {
				outcome = OutcomeTransient
				consecutiveTransient++
			} else {
				consecutiveTransient = 0
			}
			lastReason = genErr.Error()
			history = append(history, Attempt{Step: d.Step, Outcome: outcome})
			tel.Outcome = string(outcome)
			s.record(ctx, tel)
			continue
		}
		consecutiveTransient = 0
		tel.PromptTokens = gen.PromptTokens
		tel.CompletionTokens = gen.CompletionTokens

		verdict, err := s.validator.Validate(ctx, original, gen.Text, style, req.Level)
		if err != nil {
			// scoring outage: treat like a transient generation fault so
			// the same parameters get another chance
			lastReason = err.Error()
			outcome := OutcomeUpstream
			if perr.IsRetryable(err) {
				outcome = OutcomeTransient
				consecutiveTransient++
			}
			history = append(history, Attempt{Step: d.Step, Outcome: outcome})
			tel.Outcome = string(outcome)
			s.record(ctx, tel)
			continue
		}

		tel.Score = verdict.Score
		tel.Verdict = verdict.Kind

		switch verdict.Kind {
		case valdom.VerdictPass:
			tel.Outcome = "pass"
			s.record(ctx, tel)
			return dom.TerminalResult{
				Kind:     dom.ResultVerified,
				Text:     gen.Text,
				Score:    verdict.Score,
				Model:    gen.Model,
				Attempts: len(history) + 1,
			}, nil
		case valdom.VerdictAcceptable:
			tel.Outcome = "acceptable"
			s.record(ctx, tel)
			return dom.TerminalResult{
				Kind:     dom.ResultAcceptable,
				Text:     gen.Text,
				Score:    verdict.Score,
				Model:    gen.Model,
				Attempts: len(history) + 1,
			}, nil
		default:
			lastReason = verdict.Reason
			history = append(history, Attempt{
				Step:     d.Step,
				Outcome:  OutcomeQuality,
				Score:    verdict.Score,
				HasScore: true,
			})
			tel.Outcome = "fail"
			s.record(ctx, tel)
		}
	}
}

func (s *Service) record(ctx context.Context, a dom.AttemptTelemetry) {
	if s.telemetry == nil {
		return
	}
	s.telemetry.RecordAttempt(ctx, a)
}
