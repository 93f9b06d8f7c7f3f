/*
rules.go - The ordered compliance rule registry

PURPOSE:
  Defines each policy rule as a pure function and the declarative,
  ordered registry the pipeline iterates. Rule ordering is data, not
  control flow: adding or reordering a rule never touches the decision
  compiler.

RULE SEVERITY:
  A rule expresses severity through its outcome verdict:
    Fail - hard fail, unconditionally rejects the request
    Warn - soft warn, routes to human escalation when combined with an
           exception request
  The consecutive-day and annual-quota rules switch between the two
  based on the draft's exception flag; every other failing rule is a
  hard fail. The overlap rule only ever warns: circumvention is a
  judgment call for Global Mobility reviewers, never an auto-reject.

ORDERING:
  Low-cost rules are registered early for fast-fail readability, but the
  pipeline always runs every rule so the audit trail is complete.
*/
package engine

import (
	"fmt"
	"strings"
)

// =============================================================================
// RULE DESCRIPTOR
// =============================================================================

// RuleInput is the read-only context a rule evaluates against.
type RuleInput struct {
	Draft    RequestDraft
	Balance  EmployeeBalance
	Ref      ReferenceData
	History  []RequestRef
	Workdays int
	GapDays  int
}

// RuleFunc is a pure policy check. It must not mutate its input or read
// ambient state.
type RuleFunc func(in RuleInput) RuleOutcome

// Rule pairs a stable name with its evaluator. The registry is a plain
// ordered slice of these descriptors.
type Rule struct {
	Name     string
	Evaluate RuleFunc
}

// DefaultRules returns the normative policy rule ordering.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleInputValidity, Evaluate: checkInputValidity},
		{Name: RuleBlockedCountry, Evaluate: checkBlockedCountry},
		{Name: RuleRightToWork, Evaluate: checkRightToWork},
		{Name: RuleRoleEligibility, Evaluate: checkRoleEligibility},
		{Name: RuleConsecutiveDays, Evaluate: checkConsecutiveDays},
		{Name: RuleAnnualQuota, Evaluate: checkAnnualQuota},
		{Name: RuleOverlap, Evaluate: checkOverlap},
		{Name: RuleSameCountry, Evaluate: checkSameCountry},
	}
}

// Stable rule names; part of the audit contract.
const (
	RuleInputValidity   = "Input Validity"
	RuleBlockedCountry  = "Blocked Country Check"
	RuleRightToWork     = "Right to Work"
	RuleRoleEligibility = "Role Eligibility Check"
	RuleConsecutiveDays = "Consecutive Days Limit"
	RuleAnnualQuota     = "Annual Quota"
	RuleOverlap         = "Overlap Check"
	RuleSameCountry     = "Same Country Check"
)

// =============================================================================
// INDIVIDUAL RULES
// =============================================================================

// checkInputValidity re-asserts what Evaluate validated up front. It
// always runs first so the outcomes list is never empty and the audit
// trail records that the draft was well-formed.
func checkInputValidity(in RuleInput) RuleOutcome {
	if in.Draft.End.Before(in.Draft.Start) {
		return RuleOutcome{
			RuleName:     RuleInputValidity,
			Verdict:      VerdictFail,
			ReasonCode:   ReasonInputsValid,
			HumanMessage: "Request date range is inverted.",
		}
	}
	if _, ok := in.Ref.ResolveCountry(in.Draft.DestinationCountry); !ok {
		return RuleOutcome{
			RuleName:     RuleInputValidity,
			Verdict:      VerdictFail,
			ReasonCode:   ReasonInputsValid,
			HumanMessage: fmt.Sprintf("Destination %q is not a recognised country.", in.Draft.DestinationCountry),
		}
	}
	return RuleOutcome{
		RuleName:     RuleInputValidity,
		Verdict:      VerdictPass,
		ReasonCode:   ReasonInputsValid,
		HumanMessage: "Request dates and destination are well-formed.",
	}
}

func checkBlockedCountry(in RuleInput) RuleOutcome {
	entry, blocked := in.Ref.BlockedEntry(in.Draft.DestinationCountry, in.Draft.Start)
	if !blocked {
		dest := in.Draft.DestinationCountry
		if c, ok := in.Ref.ResolveCountry(dest); ok {
			dest = c.Name
		}
		return RuleOutcome{
			RuleName:     RuleBlockedCountry,
			Verdict:      VerdictPass,
			ReasonCode:   ReasonDestinationEligible,
			HumanMessage: fmt.Sprintf("%s is an eligible destination for SIRW.", dest),
		}
	}

	// The two categories carry distinct reason codes so user messaging
	// can explain sanctions vs missing-entity differently.
	if entry.Category == CategorySanctioned {
		return RuleOutcome{
			RuleName:   RuleBlockedCountry,
			Verdict:    VerdictFail,
			ReasonCode: ReasonSanctionedCountry,
			HumanMessage: fmt.Sprintf(
				"SIRW to %s is not permitted. This country is currently subject to UN/EU sanctions, "+
					"and remote work from this location would expose both the company and the employee "+
					"to significant legal and compliance risks (Policy Appendix A).", entry.Name),
		}
	}
	return RuleOutcome{
		RuleName:   RuleBlockedCountry,
		Verdict:    VerdictFail,
		ReasonCode: ReasonNoEntityCountry,
		HumanMessage: fmt.Sprintf(
			"SIRW to %s is not permitted. The company does not have a legal entity in this country, "+
				"which means compliance with local tax, immigration, and employment regulations "+
				"cannot be ensured (Policy Appendix A).", entry.Name),
	}
}

func checkRightToWork(in RuleInput) RuleOutcome {
	if in.Draft.HasRightToWork {
		return RuleOutcome{
			RuleName:     RuleRightToWork,
			Verdict:      VerdictPass,
			ReasonCode:   ReasonRightToWorkConfirmed,
			HumanMessage: fmt.Sprintf("Employee has the right to work in %s.", in.Draft.DestinationCountry),
		}
	}
	return RuleOutcome{
		RuleName:   RuleRightToWork,
		Verdict:    VerdictFail,
		ReasonCode: ReasonNoRightToWork,
		HumanMessage: fmt.Sprintf(
			"Employee does not have the right to work in %s. Remote work cannot be approved "+
				"without valid work authorisation (Policy Section 4.1.3).", in.Draft.DestinationCountry),
	}
}

func checkRoleEligibility(in RuleInput) RuleOutcome {
	var flagged []string
	for _, cat := range in.Draft.RoleFlags {
		if msg, ok := in.Ref.IneligibleRole(cat); ok {
			flagged = append(flagged, msg)
		}
	}
	if len(flagged) == 0 {
		return RuleOutcome{
			RuleName:     RuleRoleEligibility,
			Verdict:      VerdictPass,
			ReasonCode:   ReasonRoleEligible,
			HumanMessage: "Employee role is eligible for SIRW.",
		}
	}
	return RuleOutcome{
		RuleName:   RuleRoleEligibility,
		Verdict:    VerdictFail,
		ReasonCode: ReasonRoleIneligible,
		HumanMessage: fmt.Sprintf(
			"Employee is in an ineligible role category: %s. SIRW is not available for this "+
				"role type (Policy Section 4.1.1).", strings.Join(flagged, ", ")),
	}
}

func checkConsecutiveDays(in RuleInput) RuleOutcome {
	if in.Workdays <= MaxConsecutiveWorkdays {
		return RuleOutcome{
			RuleName:   RuleConsecutiveDays,
			Verdict:    VerdictPass,
			ReasonCode: ReasonWithinConsecutiveLimit,
			HumanMessage: fmt.Sprintf("Duration of %d workdays is within the %d-day consecutive limit.",
				in.Workdays, MaxConsecutiveWorkdays),
		}
	}

	msg := fmt.Sprintf(
		"Duration of %d consecutive workdays exceeds the maximum allowed %d consecutive workdays. "+
			"The %d-day annual allowance cannot be taken as a single continuous block (Policy Section 4.1.2).",
		in.Workdays, MaxConsecutiveWorkdays, DefaultDaysAllowed)

	if in.Draft.IsExceptionRequest {
		return RuleOutcome{
			RuleName:     RuleConsecutiveDays,
			Verdict:      VerdictWarn,
			ReasonCode:   ReasonExceedsConsecutive,
			HumanMessage: msg + " Exception requested; eligible for Global Mobility review.",
		}
	}
	return RuleOutcome{
		RuleName:     RuleConsecutiveDays,
		Verdict:      VerdictFail,
		ReasonCode:   ReasonExceedsConsecutive,
		HumanMessage: msg + " Please shorten your request or split into multiple trips.",
	}
}

func checkAnnualQuota(in RuleInput) RuleOutcome {
	projected := in.Balance.DaysUsed.Add(decimalFromInt(in.Workdays))
	if !projected.GreaterThan(in.Balance.DaysAllowed) {
		return RuleOutcome{
			RuleName:   RuleAnnualQuota,
			Verdict:    VerdictPass,
			ReasonCode: ReasonWithinAnnualQuota,
			HumanMessage: fmt.Sprintf("Request of %d workdays fits the annual quota (%s of %s days used).",
				in.Workdays, in.Balance.DaysUsed.String(), in.Balance.DaysAllowed.String()),
		}
	}

	msg := fmt.Sprintf(
		"Request would exceed the annual limit: %s days used + %d requested > %s allowed (Policy Section 4.1.2).",
		in.Balance.DaysUsed.String(), in.Workdays, in.Balance.DaysAllowed.String())

	if in.Draft.IsExceptionRequest {
		return RuleOutcome{
			RuleName:     RuleAnnualQuota,
			Verdict:      VerdictWarn,
			ReasonCode:   ReasonExceedsAnnualQuota,
			HumanMessage: msg + " Exception requested; eligible for Global Mobility review.",
		}
	}
	return RuleOutcome{
		RuleName:     RuleAnnualQuota,
		Verdict:      VerdictFail,
		ReasonCode:   ReasonExceedsAnnualQuota,
		HumanMessage: msg,
	}
}

// checkOverlap flags splitting one long trip into multiple sub-limit
// requests. Always a Warn: the result surfaces the matching requests for
// human judgment and never auto-rejects.
func checkOverlap(in RuleInput) RuleOutcome {
	matches := FindAdjacentOrOverlapping(in.Draft, in.History, in.GapDays)
	if len(matches) == 0 {
		return RuleOutcome{
			RuleName:     RuleOverlap,
			Verdict:      VerdictPass,
			ReasonCode:   ReasonNoAdjacentRequests,
			HumanMessage: "No overlapping or back-to-back requests this year.",
		}
	}

	combined := in.Workdays
	for _, m := range matches {
		combined += m.Workdays
	}
	return RuleOutcome{
		RuleName:   RuleOverlap,
		Verdict:    VerdictWarn,
		ReasonCode: ReasonAdjacentRequests,
		HumanMessage: fmt.Sprintf(
			"Request overlaps or is contiguous with %d existing request(s); combined they total %d workdays. "+
				"Consider whether this effectively circumvents the %d-day consecutive limit.",
			len(matches), combined, MaxConsecutiveWorkdays),
		RelatedRequests: matches,
	}
}

// checkSameCountry is informational only: working from the home country
// is not really remote work abroad, but it is never a blocker.
func checkSameCountry(in RuleInput) RuleOutcome {
	home, okHome := in.Ref.ResolveCountry(in.Draft.HomeCountry)
	dest, okDest := in.Ref.ResolveCountry(in.Draft.DestinationCountry)
	if okHome && okDest && home.Code == dest.Code {
		return RuleOutcome{
			RuleName:   RuleSameCountry,
			Verdict:    VerdictPass,
			ReasonCode: ReasonSameCountry,
			HumanMessage: fmt.Sprintf(
				"Working from home country (%s). This may not require cross-border compliance review.", home.Name),
		}
	}
	return RuleOutcome{
		RuleName:     RuleSameCountry,
		Verdict:      VerdictPass,
		ReasonCode:   ReasonDestinationEligible,
		HumanMessage: fmt.Sprintf("Cross-border remote work from %s to %s.", in.Draft.HomeCountry, in.Draft.DestinationCountry),
	}
}
