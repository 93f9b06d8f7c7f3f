/*
pipeline.go - The Evaluate entry point

PURPOSE:
  Runs the ordered rule registry against a draft and the employee's
  current balance and history, then compiles the outcomes into a single
  Decision.

CONTRACT:
  Evaluate(draft, balance, history) -> (Decision, error)

  Inputs: the balance for the draft's year must be supplied by the
  caller; the engine never fetches it. History is the employee's
  same-year request list for the circumvention check.

  Output guarantees:
    - Malformed drafts return a ValidationError and no Decision
    - Outcomes are recorded in registration order, and ALL rules run
      regardless of earlier hard fails, so "why was this rejected" is
      always fully explainable
    - Evaluation is pure and deterministic; safe from any number of
      goroutines with no shared mutable state

CONCURRENCY:
  The engine is invoked synchronously per request. There is no
  cancellation concept mid-evaluation; Evaluate is fast and
  non-interruptible.
*/
package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine evaluates request drafts against the compliance rule registry.
type Engine struct {
	rules   []Rule
	ref     ReferenceData
	gapDays int
	now     func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithRules replaces the default rule registry.
func WithRules(rules []Rule) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithGapDays sets the adjacency window for the circumvention check.
func WithGapDays(days int) Option {
	return func(e *Engine) { e.gapDays = days }
}

// WithClock injects the decision timestamp source. Tests use a fixed
// clock so replayed decisions compare equal.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over the given reference data.
func New(ref ReferenceData, opts ...Option) *Engine {
	e := &Engine{
		rules:   DefaultRules(),
		ref:     ref,
		gapDays: DefaultOverlapGapDays,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs every rule in registration order and compiles a
// Decision. Malformed drafts (inverted dates, unresolvable destination,
// exception flag without a reason) return a ValidationError before any
// rule runs; such drafts produce no Decision.
func (e *Engine) Evaluate(draft RequestDraft, bal EmployeeBalance, history []RequestRef) (*Decision, error) {
	if err := e.validate(draft); err != nil {
		return nil, err
	}

	workdays := ComputeWorkdays(draft.Start, draft.End)
	in := RuleInput{
		Draft:    draft,
		Balance:  bal,
		Ref:      e.ref,
		History:  history,
		Workdays: workdays,
		GapDays:  e.gapDays,
	}

	outcomes := make([]RuleOutcome, 0, len(e.rules))
	for _, rule := range e.rules {
		outcomes = append(outcomes, rule.Evaluate(in))
	}

	decision := Compile(draft.RequestID, outcomes, workdays, e.now())
	return &decision, nil
}

// validate rejects drafts the engine refuses to evaluate at all.
// A ValidationError is surfaced to the caller immediately and is never
// stored as a Decision.
func (e *Engine) validate(draft RequestDraft) error {
	if draft.Start.IsZero() || draft.End.IsZero() {
		return newValidationError("dates", "start and end dates are required", ErrInvertedDateRange)
	}
	if draft.End.Before(draft.Start) {
		return newValidationError("end_date", "end date is before start date", ErrInvertedDateRange)
	}
	if _, ok := e.ref.ResolveCountry(draft.DestinationCountry); !ok {
		return newValidationError("destination_country",
			"destination country is not recognised", ErrUnknownDestination)
	}
	if draft.IsExceptionRequest && strings.TrimSpace(draft.ExceptionReason) == "" {
		return newValidationError("exception_reason",
			"exception requests require a justification", ErrMissingExceptionReason)
	}
	return nil
}

func decimalFromInt(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }
