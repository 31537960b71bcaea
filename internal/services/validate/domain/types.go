// Package domain defines the types and interfaces for the validate service
package domain

import (
	"context"

	"leveler/internal/core/levels"
	"leveler/internal/core/textcheck"
)

// VerdictKind is the validator's three-way outcome
type VerdictKind string

// Verdict kinds
const (
	VerdictPass       VerdictKind = "pass"
	VerdictAcceptable VerdictKind = "acceptable"
	VerdictFail       VerdictKind = "fail"
)

// Verdict is the full validation outcome for one candidate
type Verdict struct {
	Kind   VerdictKind        `json:"kind"`
	Score  float64            `json:"score"`
	Checks []textcheck.Result `json:"checks,omitempty"`
	Reason string             `json:"reason,omitempty"`

	// ThresholdVersion records which table judged this candidate
	ThresholdVersion int `json:"threshold_version"`
}

// ValidatorPort judges a rewrite candidate against its original
type ValidatorPort interface {
	Validate(ctx context.Context, original, candidate string, style levels.Style, lvl levels.Level) (Verdict, error)
}
