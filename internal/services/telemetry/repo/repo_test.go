package repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"leveler/internal/core/levels"
	"leveler/internal/platform/store"
	tdom "leveler/internal/services/transform/domain"
)

type fakeCH struct {
	table string
	rows  [][]any
	calls int
}

func (f *fakeCH) Insert(_ context.Context, table string, data any) error {
	f.calls++
	f.table = table
	f.rows, _ = data.([][]any)
	return nil
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeCH) Close() error                                             { return nil }

func TestInsertAttempts_RowShape(t *testing.T) {
	t.Parallel()

	ch := &fakeCH{}
	st := New(ch)

	a := tdom.AttemptTelemetry{
		UnitID:           "unit-9",
		ChunkIndex:       4,
		Level:            levels.L2,
		Style:            levels.StyleArchaic,
		AttemptNo:        2,
		EscalationStep:   1,
		PromptVariant:    "modernize",
		Temperature:      0.6,
		ModelHint:        "standard",
		Model:            "gpt-4o-mini",
		Outcome:          "fail",
		Score:            0.41,
		Verdict:          "fail",
		Latency:          1500 * time.Millisecond,
		PromptTokens:     120,
		CompletionTokens: 80,
		At:               time.Now().UTC(),
	}
	if err := st.InsertAttempts(context.Background(), []tdom.AttemptTelemetry{a}); err != nil {
		t.Fatalf("InsertAttempts returned error: %v", err)
	}

	if !strings.HasPrefix(ch.table, AttemptsTable) {
		t.Fatalf("insert target %q does not begin with %q", ch.table, AttemptsTable)
	}
	if !strings.Contains(ch.table, "unit_id") || !strings.Contains(ch.table, "at") {
		t.Fatalf("insert target missing column list: %q", ch.table)
	}
	if len(ch.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(ch.rows))
	}
	row := ch.rows[0]
	if len(row) != len(attemptColumns) {
		t.Fatalf("row width = %d, want %d", len(row), len(attemptColumns))
	}
	if row[0] != "unit-9" {
		t.Fatalf("unit_id = %v", row[0])
	}
	if row[2] != levels.L2.String() {
		t.Fatalf("level = %v", row[2])
	}
	if row[13] != int64(1500) {
		t.Fatalf("latency_ms = %v, want 1500", row[13])
	}
}

func TestInsertAttempts_EmptyIsNoOp(t *testing.T) {
	t.Parallel()

	ch := &fakeCH{}
	st := New(ch)
	if err := st.InsertAttempts(context.Background(), nil); err != nil {
		t.Fatalf("empty insert returned error: %v", err)
	}
	if ch.calls != 0 {
		t.Fatalf("expected no insert call for empty batch, got %d", ch.calls)
	}
}
