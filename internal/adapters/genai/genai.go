// Package genai adapts external text-generation providers behind a small
// port. The adapter is single-shot: one call, one candidate. Retry and
// escalation policy belongs to the caller, which sees provider failures
// classified into retryable and terminal error codes
package genai

import (
	"context"
	"time"

	"leveler/internal/core/levels"
)

// Params selects how one generation attempt is made
type Params struct {
	Level       levels.Level
	Style       levels.Style
	Variant     string // prompt variant from the escalation plan
	Temperature float32
	ModelHint   string // "standard" or "strong"; mapped to concrete models by the client
}

// Result is one generated candidate with its cost accounting
type Result struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
}

// Generator produces one rewrite candidate for a chunk of text.
// Implementations classify failures: rate limits and transport faults
// return retryable codes, unusable responses return upstream codes
type Generator interface {
	Generate(ctx context.Context, text string, p Params) (Result, error)
}
