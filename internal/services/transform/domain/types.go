// Package domain defines the types and interfaces for the transform service
package domain

import (
	"context"
	"time"

	"leveler/internal/core/levels"
	valdom "leveler/internal/services/validate/domain"
)

// Request identifies one unit of transformation work
type Request struct {
	UnitID     string
	ChunkIndex int
	Level      levels.Level
}

// ResultKind is a terminal disposition of a request
type ResultKind string

// Terminal dispositions. Only Verified and Acceptable carry usable text;
// Rejected and FallbackOriginal mean the caller serves the original
const (
	ResultVerified         ResultKind = "verified"
	ResultAcceptable       ResultKind = "acceptable"
	ResultRejected         ResultKind = "rejected"
	ResultFallbackOriginal ResultKind = "fallback_original"
)

// TerminalResult is the orchestrator's outcome for one request
type TerminalResult struct {
	Kind     ResultKind
	Text     string // empty unless Verified or Acceptable
	Score    float64
	Style    levels.Style
	Model    string
	Attempts int
	Reason   string // set for Rejected
	CacheHit bool
}

// TransformPort runs the classify, generate, validate, escalate loop
type TransformPort interface {
	Transform(ctx context.Context, req Request) (TerminalResult, error)
}

// CachePort is the slice of the versioned cache the orchestrator needs.
// Implemented by the cache service; declared here so transform does not
// import it
type CachePort interface {
	// Lookup returns the cached result for the request under the current
	// prompt and threshold versions, with ok reporting a usable hit
	Lookup(ctx context.Context, req Request, contentHash string) (TerminalResult, bool, error)
	// Store persists a Verified or Acceptable result. First writer wins;
	// losing a write race is not an error
	Store(ctx context.Context, req Request, contentHash string, res TerminalResult) error
}

// AttemptTelemetry is one generation+validation round, emitted per
// attempt for observability. Best effort; losing a row never fails a
// request
type AttemptTelemetry struct {
	UnitID           string
	ChunkIndex       int
	Level            levels.Level
	Style            levels.Style
	AttemptNo        int
	EscalationStep   int
	PromptVariant    string
	Temperature      float32
	ModelHint        string
	Model            string
	Outcome          string // pass, acceptable, fail, transient, upstream
	Score            float64
	Verdict          valdom.VerdictKind
	Latency          time.Duration
	PromptTokens     int
	CompletionTokens int
	At               time.Time
}

// TelemetryPort receives attempt telemetry
type TelemetryPort interface {
	RecordAttempt(ctx context.Context, a AttemptTelemetry)
}
