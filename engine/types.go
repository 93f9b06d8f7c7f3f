/*
Package engine implements the SIRW compliance decision engine.

PURPOSE:
  Takes a structured short-term international remote work (SIRW) request
  plus an employee's usage history and deterministically produces an
  auditable decision (approved / rejected / escalated) with machine- and
  human-readable reasons.

KEY CONCEPTS IN THIS FILE (types.go):
  - RequestDraft: Immutable snapshot of a submitted request
  - EmployeeBalance: Per-employee, per-year workday accounting record
  - RuleOutcome: Result of a single policy rule evaluation
  - Decision: Terminal evaluation result with the full outcome list
  - RequestRef: Lightweight reference to an existing request (overlap checks)

DESIGN PRINCIPLES:
  1. Determinism: identical inputs always yield an identical Decision
  2. Explainability: every Decision carries ALL rule outcomes, not just
     the deciding one
  3. Purity: Evaluate has no side effects and reads no ambient state
     (year and clock are explicit inputs)
  4. Precision: balance accounting uses decimal.Decimal, never floats

SEE ALSO:
  - rules.go: The ordered rule registry
  - pipeline.go: The Evaluate entry point
  - workdays.go: Workday span and overlap computation
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POLICY CONSTANTS
// =============================================================================

const (
	// DefaultDaysAllowed is the annual SIRW workday quota.
	DefaultDaysAllowed = 20

	// MaxConsecutiveWorkdays is the single-trip workday limit.
	MaxConsecutiveWorkdays = 14

	// DefaultOverlapGapDays is the maximum gap, in calendar days, at which
	// two requests are treated as contiguous by the circumvention check.
	DefaultOverlapGapDays = 0
)

// =============================================================================
// REQUEST DRAFT - Immutable once submitted to the engine
// =============================================================================

// RoleCategory identifies a policy-defined ineligible role category.
// The set is a fixed enum (see refdata) to keep matching deterministic.
type RoleCategory string

const (
	RoleFrontlineCustomerFacing RoleCategory = "frontline_customer_facing"
	RoleOnsiteRequired          RoleCategory = "onsite_required"
	RoleLegalRestrictions       RoleCategory = "legal_restrictions"
	RoleCommercialSales         RoleCategory = "commercial_sales"
	RoleProcurement             RoleCategory = "procurement"
	RoleSeniorExecutive         RoleCategory = "senior_executive"
)

// RequestDraft is the engine's view of a submitted SIRW request.
// Dates are inclusive calendar dates with no time component.
type RequestDraft struct {
	RequestID  string
	EmployeeID string

	// ISO 3166-1 country code or country name (refdata resolves both).
	DestinationCountry string
	HomeCountry        string

	Start Date
	End   Date

	// RoleFlags carries any ineligible-role categories that apply to the
	// employee. An empty set means the employee asserted none apply.
	RoleFlags []RoleCategory

	HasRightToWork     bool
	IsExceptionRequest bool

	// ExceptionReason is required iff IsExceptionRequest is set. An
	// unjustified escalation breaks the audit trail, so the engine
	// rejects the draft as invalid rather than evaluating it.
	ExceptionReason string
}

// Year returns the balance year the draft counts against.
func (d RequestDraft) Year() int { return d.Start.Year() }

// =============================================================================
// EMPLOYEE BALANCE - Per-employee, per-year day accounting
// =============================================================================

// EmployeeBalance is the usage record for one employee in one calendar
// year. Created lazily on first request of a new year; a new year is a
// new balance row, never a reset mutation.
type EmployeeBalance struct {
	EmployeeID  string
	Year        int
	DaysUsed    decimal.Decimal
	DaysAllowed decimal.Decimal
}

// Remaining returns the unconsumed quota, clamped at zero.
func (b EmployeeBalance) Remaining() decimal.Decimal {
	r := b.DaysAllowed.Sub(b.DaysUsed)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// =============================================================================
// RULE OUTCOME - Result of a single rule evaluation
// =============================================================================

type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail" // hard fail: unconditionally rejects
	VerdictWarn Verdict = "warn" // soft warn: routes to human escalation
)

// ReasonCode is a stable machine-readable identifier for an outcome.
// These codes are part of the audit contract; never reuse or renumber.
type ReasonCode string

const (
	ReasonInputsValid            ReasonCode = "inputs_valid"
	ReasonDestinationEligible    ReasonCode = "destination_eligible"
	ReasonSanctionedCountry      ReasonCode = "sanctioned_country"
	ReasonNoEntityCountry        ReasonCode = "no_entity_country"
	ReasonRightToWorkConfirmed   ReasonCode = "right_to_work_confirmed"
	ReasonNoRightToWork          ReasonCode = "no_right_to_work"
	ReasonRoleEligible           ReasonCode = "role_eligible"
	ReasonRoleIneligible         ReasonCode = "role_ineligible"
	ReasonWithinConsecutiveLimit ReasonCode = "within_consecutive_limit"
	ReasonExceedsConsecutive     ReasonCode = "exceeds_consecutive_limit"
	ReasonWithinAnnualQuota      ReasonCode = "within_annual_quota"
	ReasonExceedsAnnualQuota     ReasonCode = "exceeds_annual_quota"
	ReasonNoAdjacentRequests     ReasonCode = "no_adjacent_requests"
	ReasonAdjacentRequests       ReasonCode = "adjacent_requests_found"
	ReasonSameCountry            ReasonCode = "same_country"
)

// RuleOutcome records one rule's evaluation of a draft.
type RuleOutcome struct {
	RuleName     string
	Verdict      Verdict
	ReasonCode   ReasonCode
	HumanMessage string

	// RelatedRequests is populated by the overlap rule so human
	// reviewers can see exactly which requests triggered the warning.
	RelatedRequests []RequestRef `json:",omitempty"`
}

// =============================================================================
// DECISION - Terminal evaluation result
// =============================================================================

type Status string

const (
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusEscalated Status = "escalated"
)

// Decision is the engine's terminal output for a draft.
//
// INVARIANTS:
//   - Exactly one terminal status
//   - Outcomes is never empty and preserves rule registration order
//   - Identical inputs yield an identical Decision (replay equality)
type Decision struct {
	RequestID        string
	Status           Status
	Outcomes         []RuleOutcome
	ComputedWorkdays int
	DecidedAt        time.Time
}

// =============================================================================
// REQUEST REF - Existing request reference for overlap detection
// =============================================================================

// RequestStatus mirrors the lifecycle states relevant to overlap checks.
type RequestStatus string

const (
	RequestApproved  RequestStatus = "approved"
	RequestEscalated RequestStatus = "escalated"
	RequestPending   RequestStatus = "pending"

	// Terminal states the overlap check ignores.
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

// RequestRef is a lightweight reference to an existing request, supplied
// by the caller as the employee's same-year history.
type RequestRef struct {
	RequestID string
	Status    RequestStatus
	Start     Date
	End       Date
	Workdays  int
}
