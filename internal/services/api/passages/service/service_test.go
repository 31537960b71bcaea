package service

import (
	"context"
	"testing"
	"time"

	"leveler/internal/core/levels"
	perr "leveler/internal/platform/errors"
	"leveler/internal/services/api/passages/domain"
	tdom "leveler/internal/services/transform/domain"
	unitdom "leveler/internal/services/units/domain"
)

type fakeUnits struct {
	unit   unitdom.ContentUnit
	chunks map[int]unitdom.Chunk
}

func (f *fakeUnits) Ingest(
	_ context.Context, title, authorPeriod, language, text string,
) (unitdom.ContentUnit, error) {
	f.unit = unitdom.ContentUnit{
		UnitID:      "u-1",
		Title:       title,
		Language:    language,
		Text:        text,
		ContentHash: "abc123",
		CreatedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	return f.unit, nil
}

func (f *fakeUnits) GetUnit(_ context.Context, unitID string) (unitdom.ContentUnit, error) {
	if unitID != f.unit.UnitID {
		return unitdom.ContentUnit{}, perr.NotFoundf("unit %s", unitID)
	}
	return f.unit, nil
}

func (f *fakeUnits) EnsureChunks(
	_ context.Context, unitID string, lvl levels.Level,
) ([]unitdom.Chunk, error) {
	out := make([]unitdom.Chunk, 0, len(f.chunks))
	for i := 0; i < len(f.chunks); i++ {
		out = append(out, f.chunks[i])
	}
	return out, nil
}

func (f *fakeUnits) GetChunk(
	_ context.Context, unitID string, lvl levels.Level, idx int,
) (unitdom.Chunk, error) {
	c, ok := f.chunks[idx]
	if !ok {
		return unitdom.Chunk{}, perr.NotFoundf("chunk %d", idx)
	}
	return c, nil
}

func (f *fakeUnits) Label(
	_ context.Context, unitID string, lvl levels.Level, idx int,
) (unitdom.StyleLabel, error) {
	return unitdom.StyleLabel{Style: levels.StyleContemporary}, nil
}

type fakeTransform struct {
	res tdom.TerminalResult
	got tdom.Request
}

func (f *fakeTransform) Transform(_ context.Context, req tdom.Request) (tdom.TerminalResult, error) {
	f.got = req
	return f.res, nil
}

func newSvc(tr *fakeTransform) (*Svc, *fakeUnits) {
	u := &fakeUnits{chunks: map[int]unitdom.Chunk{
		0: {UnitID: "u-1", ChunkIndex: 0, Text: "original words", Words: 2},
	}}
	return New(u, u, tr), u
}

func TestRender_ServesSimplifiedText(t *testing.T) {
	tr := &fakeTransform{res: tdom.TerminalResult{
		Kind:  tdom.ResultVerified,
		Text:  "simple words",
		Score: 0.91,
		Model: "gpt-test",
	}}
	s, _ := newSvc(tr)

	p, err := s.Render(context.Background(), domain.RenderInput{
		UnitID: "u-1", ChunkIndex: 0, Level: "L2",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !p.Simplified || p.Text != "simple words" {
		t.Fatalf("expected simplified text, got %+v", p)
	}
	if p.Kind != "verified" || p.Level != "L2" {
		t.Fatalf("unexpected passage: %+v", p)
	}
	if tr.got.Level != levels.L2 {
		t.Fatalf("transform saw level %v", tr.got.Level)
	}
}

func TestRender_FallsBackToOriginalText(t *testing.T) {
	for _, kind := range []tdom.ResultKind{tdom.ResultRejected, tdom.ResultFallbackOriginal} {
		tr := &fakeTransform{res: tdom.TerminalResult{Kind: kind, Reason: "score below threshold"}}
		s, _ := newSvc(tr)

		p, err := s.Render(context.Background(), domain.RenderInput{
			UnitID: "u-1", ChunkIndex: 0, Level: "L1",
		})
		if err != nil {
			t.Fatalf("Render (%s): %v", kind, err)
		}
		if p.Simplified {
			t.Fatalf("kind %s should not be simplified", kind)
		}
		if p.Text != "original words" {
			t.Fatalf("kind %s served %q", kind, p.Text)
		}
	}
}

func TestRender_RejectsUnknownLevel(t *testing.T) {
	s, _ := newSvc(&fakeTransform{})

	_, err := s.Render(context.Background(), domain.RenderInput{
		UnitID: "u-1", ChunkIndex: 0, Level: "L9",
	})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
}

func TestIngest_ReturnsUnitView(t *testing.T) {
	s, _ := newSvc(&fakeTransform{})

	u, err := s.Ingest(context.Background(), domain.IngestInput{
		Title: "Title", Language: "en", Text: "one two three",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if u.UnitID != "u-1" || u.Words != 3 {
		t.Fatalf("unexpected unit view: %+v", u)
	}
	if u.CreatedAt != "2026-08-01T12:00:00Z" {
		t.Fatalf("unexpected created_at: %s", u.CreatedAt)
	}
}
