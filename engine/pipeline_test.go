package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/sirw-engine/engine"
	"github.com/warp/sirw-engine/refdata"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var fixedNow = time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine() *engine.Engine {
	return engine.New(refdata.New(), engine.WithClock(func() time.Time { return fixedNow }))
}

// spainDraft is the canonical happy path: two weeks in Spain, right to
// work confirmed, no role flags.
func spainDraft() engine.RequestDraft {
	return engine.RequestDraft{
		RequestID:          "req-1",
		EmployeeID:         "emp-1",
		HomeCountry:        "DK",
		DestinationCountry: "ES",
		Start:              engine.NewDate(2026, time.March, 2),  // Monday
		End:                engine.NewDate(2026, time.March, 13), // Friday next week
		HasRightToWork:     true,
	}
}

func freshBalance() engine.EmployeeBalance {
	return engine.EmployeeBalance{
		EmployeeID:  "emp-1",
		Year:        2026,
		DaysUsed:    decimal.Zero,
		DaysAllowed: decimal.NewFromInt(engine.DefaultDaysAllowed),
	}
}

func outcomeFor(t *testing.T, d *engine.Decision, rule string) engine.RuleOutcome {
	t.Helper()
	for _, o := range d.Outcomes {
		if o.RuleName == rule {
			return o
		}
	}
	t.Fatalf("no outcome for rule %q", rule)
	return engine.RuleOutcome{}
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestEvaluate_CompliantRequest_Approved(t *testing.T) {
	// GIVEN: A fresh balance and a two-week trip to Spain
	// WHEN: Evaluating
	// THEN: Approved, 10 workdays, all eight rules recorded

	eng := newTestEngine()

	d, err := eng.Evaluate(spainDraft(), freshBalance(), nil)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusApproved, d.Status)
	assert.Equal(t, 10, d.ComputedWorkdays)
	assert.Len(t, d.Outcomes, 8, "every rule must appear in the audit trail")
	for _, o := range d.Outcomes {
		assert.Equal(t, engine.VerdictPass, o.Verdict, o.RuleName)
	}
	assert.Equal(t, fixedNow, d.DecidedAt)
}

func TestEvaluate_Deterministic(t *testing.T) {
	// Same inputs, same clock: the decisions must be identical.
	eng := newTestEngine()

	d1, err := eng.Evaluate(spainDraft(), freshBalance(), nil)
	require.NoError(t, err)
	d2, err := eng.Evaluate(spainDraft(), freshBalance(), nil)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
}

// =============================================================================
// BLOCKED COUNTRY RULE
// =============================================================================

func TestEvaluate_SanctionedDestination_Rejected(t *testing.T) {
	eng := newTestEngine()
	draft := spainDraft()
	draft.DestinationCountry = "IR"

	d, err := eng.Evaluate(draft, freshBalance(), nil)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusRejected, d.Status)
	o := outcomeFor(t, d, engine.RuleBlockedCountry)
	assert.Equal(t, engine.VerdictFail, o.Verdict)
	assert.Equal(t, engine.ReasonSanctionedCountry, o.ReasonCode)
	assert.Contains(t, o.HumanMessage, "sanctions")
}

func TestEvaluate_NoEntityDestination_Rejected(t *testing.T) {
	eng := newTestEngine()
	draft := spainDraft()
	draft.DestinationCountry = "Nepal"

	d, err := eng.Evaluate(draft, freshBalance(), nil)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusRejected, d.Status)
	o := outcomeFor(t, d, engine.RuleBlockedCountry)
	assert.Equal(t, engine.ReasonNoEntityCountry, o.ReasonCode)
	assert.Contains(t, o.HumanMessage, "legal entity")
}

func TestEvaluate_BlockedCountry_AllRulesStillRun(t *testing.T) {
	// A hard fail on rule 2 must not suppress the remaining checks.
	eng := newTestEngine()
	draft := spainDraft()
	draft.DestinationCountry = "KP"
	draft.HasRightToWork = false

	d, err := eng.Evaluate(draft, freshBalance(), nil)
	require.NoError(t, err)

	assert.Len(t, d.Outcomes, 8)
	assert.Equal(t, engine.VerdictFail, outcomeFor(t, d, engine.RuleBlockedCountry).Verdict)
	assert.Equal(t, engine.VerdictFail, outcomeFor(t, d, engine.RuleRightToWork).Verdict)
}

// =============================================================================
// RIGHT TO WORK AND ROLE RULES
// =============================================================================

func TestEvaluate_NoRightToWork_Rejected(t *testing.T) {
	eng := newTestEngine()
	draft := spainDraft()
	draft.HasRightToWork = false

	d, err := eng.Evaluate(draft, freshBalance(), nil)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusRejected, d.Status)
	o := outcomeFor(t, d, engine.RuleRightToWork)
	assert.Equal(t, engine.ReasonNoRightToWork, o.ReasonCode)
}

func TestEvaluate_IneligibleRole_Rejected(t *testing.T) {
	eng := newTestEngine()
	draft := spainDraft()
	draft.RoleFlags = []engine.RoleCategory{engine.RoleCommercialSales}

	d, err := eng.Evaluate(draft, freshBalance(), nil)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusRejected, d.Status)
	o := outcomeFor(t, d, engine.RuleRoleEligibility)
	assert.Equal(t, engine.ReasonRoleIneligible, o.ReasonCode)
	assert.Contains(t, o.HumanMessage, "contract signing authority")
}

func TestEvaluate_UnknownRoleFlag_Ignored(t *testing.T) {
	// Flags outside the policy's categories carry no policy meaning.
	eng := newTestEngine()
	draft := spainDraft()
	draft.RoleFlags = []engine.RoleCategory{"made_up_category"}

	d, err := eng.Evaluate(draft, freshBalance(), nil)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusApproved, d.Status)
}

// =============================================================================
// CONSECUTIVE DAYS RULE
// =============================================================================

func TestEvaluate_FifteenWorkdays_Rejected(t *testing.T) {
	eng := newTestEngine()
	draft := spainDraft()
	draft.End = engine.NewDate(2026, time.March, 20) // 15 workdays

	d, err := eng.Evaluate(draft, freshBalance(), nil)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusRejected, d.Status)
	o := outcomeFor(t, d, engine.RuleConsecutiveDays)
	assert.Equal(t, engine.VerdictFail, o.Verdict)
	assert.Equal(t, engine.ReasonExceedsConsecutive, o.ReasonCode)
}

func TestEvaluate_FifteenWorkdays_WithException_Escalated(t *testing.T) {
	// GIVEN: The same over-limit trip, flagged as an exception request
	// WHEN: Evaluating
	// THEN: The hard fail softens to a warn and the request escalates

	eng := newTestEngine()
	draft := spainDraft()
	draft.End = engine.NewDate(2026, time.March, 20)
	draft.IsExceptionRequest = true
	draft.ExceptionReason = "Family relocation support"

	d, err := eng.Evaluate(draft, freshBalance(), nil)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusEscalated, d.Status)
	o := outcomeFor(t, d, engine.RuleConsecutiveDays)
	assert.Equal(t, engine.VerdictWarn, o.Verdict)
}

func TestEvaluate_ExactlyFourteenWorkdays_Approved(t *testing.T) {
	// Boundary: 14 consecutive workdays is allowed, inclusive.
	eng := newTestEngine()
	draft := spainDraft()
	draft.End = engine.NewDate(2026, time.March, 19) // Mon Mar 2 .. Thu Mar 19 = 14 workdays

	d, err := eng.Evaluate(draft, freshBalance(), nil)
	require.NoError(t, err)

	assert.Equal(t, 14, d.ComputedWorkdays)
	assert.Equal(t, engine.StatusApproved, d.Status)
}

// =============================================================================
// ANNUAL QUOTA RULE
// =============================================================================

func TestEvaluate_QuotaExactlyConsumed_Approved(t *testing.T) {
	// 10 used + 10 requested = 20 allowed. Not over, so it passes.
	eng := newTestEngine()
	bal := freshBalance()
	bal.DaysUsed = decimal.NewFromInt(10)

	d, err := eng.Evaluate(spainDraft(), bal, nil)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusApproved, d.Status)
}

func TestEvaluate_QuotaExceededByOne_Rejected(t *testing.T) {
	eng := newTestEngine()
	bal := freshBalance()
	bal.DaysUsed = decimal.NewFromInt(11)

	d, err := eng.Evaluate(spainDraft(), bal, nil)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusRejected, d.Status)
	o := outcomeFor(t, d, engine.RuleAnnualQuota)
	assert.Equal(t, engine.ReasonExceedsAnnualQuota, o.ReasonCode)
}

func TestEvaluate_QuotaExceeded_WithException_Escalated(t *testing.T) {
	eng := newTestEngine()
	bal := freshBalance()
	bal.DaysUsed = decimal.NewFromInt(15)
	draft := spainDraft()
	draft.IsExceptionRequest = true
	draft.ExceptionReason = "Extended care for a relative abroad"

	d, err := eng.Evaluate(draft, bal, nil)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusEscalated, d.Status)
	assert.Equal(t, engine.VerdictWarn, outcomeFor(t, d, engine.RuleAnnualQuota).Verdict)
}

// =============================================================================
// OVERLAP RULE
// =============================================================================

func TestEvaluate_BackToBackRequest_Escalated(t *testing.T) {
	// GIVEN: An approved trip ending Friday March 13
	// WHEN: A new trip starts the very next day
	// THEN: The circumvention warning escalates even without an exception

	eng := newTestEngine()
	draft := spainDraft()
	draft.Start = engine.NewDate(2026, time.March, 14)
	draft.End = engine.NewDate(2026, time.March, 20)

	history := []engine.RequestRef{
		ref("prior", engine.RequestApproved,
			engine.NewDate(2026, time.March, 2), engine.NewDate(2026, time.March, 13)),
	}

	d, err := eng.Evaluate(draft, freshBalance(), history)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusEscalated, d.Status)
	o := outcomeFor(t, d, engine.RuleOverlap)
	assert.Equal(t, engine.VerdictWarn, o.Verdict)
	require.Len(t, o.RelatedRequests, 1)
	assert.Equal(t, "prior", o.RelatedRequests[0].RequestID)
	assert.Contains(t, o.HumanMessage, "15 workdays")
}

func TestEvaluate_DistantHistory_NoOverlapWarning(t *testing.T) {
	eng := newTestEngine()
	history := []engine.RequestRef{
		ref("prior", engine.RequestApproved,
			engine.NewDate(2026, time.June, 1), engine.NewDate(2026, time.June, 12)),
	}

	d, err := eng.Evaluate(spainDraft(), freshBalance(), history)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusApproved, d.Status)
	assert.Equal(t, engine.VerdictPass, outcomeFor(t, d, engine.RuleOverlap).Verdict)
}

// =============================================================================
// SAME COUNTRY RULE
// =============================================================================

func TestEvaluate_SameCountry_InformationalOnly(t *testing.T) {
	eng := newTestEngine()
	draft := spainDraft()
	draft.HomeCountry = "Spain"
	draft.DestinationCountry = "ES"

	d, err := eng.Evaluate(draft, freshBalance(), nil)
	require.NoError(t, err)

	assert.Equal(t, engine.StatusApproved, d.Status)
	o := outcomeFor(t, d, engine.RuleSameCountry)
	assert.Equal(t, engine.VerdictPass, o.Verdict)
	assert.Equal(t, engine.ReasonSameCountry, o.ReasonCode)
}

// =============================================================================
// DRAFT VALIDATION
// =============================================================================

func TestEvaluate_InvertedDates_ValidationError(t *testing.T) {
	eng := newTestEngine()
	draft := spainDraft()
	draft.Start, draft.End = draft.End, draft.Start

	d, err := eng.Evaluate(draft, freshBalance(), nil)
	assert.Nil(t, d)
	require.Error(t, err)
	assert.True(t, engine.IsValidationError(err))
	assert.ErrorIs(t, err, engine.ErrInvertedDateRange)
}

func TestEvaluate_UnknownDestination_ValidationError(t *testing.T) {
	eng := newTestEngine()
	draft := spainDraft()
	draft.DestinationCountry = "Atlantis"

	_, err := eng.Evaluate(draft, freshBalance(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrUnknownDestination)
}

func TestEvaluate_ExceptionWithoutReason_ValidationError(t *testing.T) {
	eng := newTestEngine()
	draft := spainDraft()
	draft.IsExceptionRequest = true
	draft.ExceptionReason = "   "

	_, err := eng.Evaluate(draft, freshBalance(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrMissingExceptionReason)
}
