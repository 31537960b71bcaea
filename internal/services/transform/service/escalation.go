package service

import (
	"leveler/internal/core/levels"
)

// Outcome classifies one finished attempt for escalation purposes
type Outcome string

// Attempt outcomes. Transient covers rate limits, timeouts and transport
// faults where the same parameters may succeed on retry; Upstream covers
// unusable responses that retrying identically will not fix, so it
// advances escalation like a quality failure
const (
	OutcomeQuality   Outcome = "quality"
	OutcomeTransient Outcome = "transient"
	OutcomeUpstream  Outcome = "upstream"
)

// Attempt is one entry in the escalation history
type Attempt struct {
	Step     int // index into the escalation plan
	Outcome  Outcome
	Score    float64
	HasScore bool
}

// ActionKind is what the machine tells the orchestrator to do next
type ActionKind string

// Machine actions
const (
	ActionGenerate ActionKind = "generate" // run an attempt with Decision.Params
	ActionReject   ActionKind = "reject"
	ActionFallback ActionKind = "fallback"
)

// Decision is the machine's answer for the next move
type Decision struct {
	Action ActionKind
	Step   int
	Params levels.AttemptParams
}

// Machine is the pure retry/escalation policy for one request. It holds
// no mutable state; every decision is a function of the full history, so
// it can be unit tested without any network or clock
type Machine struct {
	plan         []levels.AttemptParams
	threshold    levels.Threshold
	transientCap int
}

// DefaultTransientCap is the number of consecutive transient failures
// tolerated at one escalation step before the step is counted as failed
const DefaultTransientCap = 3

// NewMachine builds a machine for one (style, level) plan
func NewMachine(plan []levels.AttemptParams, th levels.Threshold, transientCap int) *Machine {
	if transientCap <= 0 {
		transientCap = DefaultTransientCap
	}
	return &Machine{plan: plan, threshold: th, transientCap: transientCap}
}

// MaxCalls is the upper bound on generation calls the machine can ask
// for: one per escalation step plus the transient retry budget
func (m *Machine) MaxCalls() int { return len(m.plan) + m.transientCap }

// Next decides the next action given the attempt history so far.
// Transient failures retry the same step until the budget runs out;
// a spent budget counts as one escalation step, not several. Quality and
// upstream failures advance the plan. A used-up plan terminates: Rejected
// when the final attempt's score sits far below the acceptable band,
// Fallback when it came close or produced no score to judge by
func (m *Machine) Next(history []Attempt) Decision {
	if len(m.plan) == 0 {
		return m.terminal(history)
	}
	if len(history) == 0 {
		return Decision{Action: ActionGenerate, Step: 0, Params: m.plan[0]}
	}

	last := history[len(history)-1]

	if last.Outcome == OutcomeTransient && m.transientBudgetLeft(history) {
		return Decision{Action: ActionGenerate, Step: last.Step, Params: m.plan[last.Step]}
	}

	next := last.Step + 1
	if next < len(m.plan) {
		return Decision{Action: ActionGenerate, Step: next, Params: m.plan[next]}
	}
	return m.terminal(history)
}

// transientBudgetLeft reports whether another same-step retry is allowed.
// The budget is global across the request so a request can never exceed
// MaxCalls generation calls
func (m *Machine) transientBudgetLeft(history []Attempt) bool {
	total := 0
	for _, a := range history {
		if a.Outcome == OutcomeTransient {
			total++
		}
	}
	return total < m.transientCap
}

// terminal decides between Rejected and FallbackOriginal once the plan
// is spent. The final attempt is the one generated with the most
// aggressive parameters, so its score is the verdict on the chunk; an
// early near-miss that later attempts could not hold does not soften it
func (m *Machine) terminal(history []Attempt) Decision {
	if len(history) == 0 {
		return Decision{Action: ActionFallback}
	}
	last := history[len(history)-1]
	if !last.HasScore {
		// the final attempt never produced a scored candidate, so there
		// is no evidence the chunk is untransformable
		return Decision{Action: ActionFallback}
	}
	// far below the acceptable band means the final attempt missed by
	// more than two band widths under the pass threshold
	floor := m.threshold.Pass - 2*m.threshold.Band
	if last.Score < floor {
		return Decision{Action: ActionReject}
	}
	return Decision{Action: ActionFallback}
}
