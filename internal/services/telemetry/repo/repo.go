// Package repo provides the ClickHouse attempt storage for telemetry
package repo

import (
	"context"
	"strings"

	"leveler/internal/platform/store"
	tdom "leveler/internal/services/transform/domain"
)

// AttemptsTable is the target table for attempt rows
const AttemptsTable = "leveler.transform_attempts"

// Columns in insert order for transform_attempts
var attemptColumns = []string{
	"unit_id",
	"chunk_index",
	"level",
	"style",
	"attempt_no",
	"escalation_step",
	"prompt_variant",
	"temperature",
	"model_hint",
	"model",
	"outcome",
	"score",
	"verdict",
	"latency_ms",
	"prompt_tokens",
	"completion_tokens",
	"at",
}

// Storage writes attempt telemetry
type Storage interface {
	InsertAttempts(ctx context.Context, rows []tdom.AttemptTelemetry) error
}

// New returns a Storage over the ClickHouse seam
func New(ch store.Clickhouse) Storage {
	return &chStore{ch: ch}
}

type chStore struct {
	ch store.Clickhouse
}

func (s *chStore) InsertAttempts(ctx context.Context, rows []tdom.AttemptTelemetry) error {
	if len(rows) == 0 {
		return nil
	}
	batch := make([][]any, 0, len(rows))
	for _, a := range rows {
		batch = append(batch, []any{
			a.UnitID,
			int32(a.ChunkIndex),
			a.Level.String(),
			string(a.Style),
			int32(a.AttemptNo),
			int32(a.EscalationStep),
			a.PromptVariant,
			a.Temperature,
			a.ModelHint,
			a.Model,
			a.Outcome,
			a.Score,
			string(a.Verdict),
			a.Latency.Milliseconds(),
			int32(a.PromptTokens),
			int32(a.CompletionTokens),
			a.At,
		})
	}
	// Insert targets an explicit column list so schema additions with
	// defaults do not break the writer
	target := AttemptsTable + " (" + strings.Join(attemptColumns, ", ") + ")"
	return s.ch.Insert(ctx, target, batch)
}
