/*
decision.go - Decision compiler

PURPOSE:
  Pure aggregation of the ordered rule outcomes into one terminal
  Decision. No side effects; identical inputs always yield an identical
  Decision, which is what makes audit replay and the replay-equality
  tests possible.

COMPILATION RULE:
  any hard fail            -> Rejected (first fail is the headline)
  else any warn            -> Escalated
  else                     -> Approved
*/
package engine

import "time"

// Compile aggregates rule outcomes into a terminal Decision. The
// outcomes slice is stored as-is, preserving registration order; the
// first hard fail determines a rejection's headline reason but every
// outcome is retained as context.
func Compile(requestID string, outcomes []RuleOutcome, workdays int, decidedAt time.Time) Decision {
	status := StatusApproved
	for _, o := range outcomes {
		if o.Verdict == VerdictFail {
			status = StatusRejected
			break
		}
		if o.Verdict == VerdictWarn {
			status = StatusEscalated
		}
	}

	return Decision{
		RequestID:        requestID,
		Status:           status,
		Outcomes:         outcomes,
		ComputedWorkdays: workdays,
		DecidedAt:        decidedAt,
	}
}

// Headline returns the outcome that decided the status: the first hard
// fail for rejections, the first warn for escalations, and the first
// outcome otherwise.
func (d Decision) Headline() RuleOutcome {
	for _, o := range d.Outcomes {
		if d.Status == StatusRejected && o.Verdict == VerdictFail {
			return o
		}
		if d.Status == StatusEscalated && o.Verdict == VerdictWarn {
			return o
		}
	}
	if len(d.Outcomes) > 0 {
		return d.Outcomes[0]
	}
	return RuleOutcome{}
}

// Reasons returns the human-readable messages of every non-passing
// outcome, falling back to all messages for approvals. Rejected and
// escalated decisions therefore always carry specific reasons, never a
// generic failure message.
func (d Decision) Reasons() []string {
	var out []string
	for _, o := range d.Outcomes {
		if o.Verdict != VerdictPass {
			out = append(out, o.HumanMessage)
		}
	}
	if len(out) == 0 {
		for _, o := range d.Outcomes {
			out = append(out, o.HumanMessage)
		}
	}
	return out
}
