/*
workdays.go - Workday span computation and circumvention detection

PURPOSE:
  Computes the workday span of a date range and detects requests that
  overlap with, or sit back-to-back against, existing requests for the
  same employee. Back-to-back requests suggest an employee is splitting
  one long trip into multiple sub-limit requests.

WORKDAY DEFINITION:
  A workday is a Monday-Friday calendar day. Weekends never count toward
  any limit. Public holidays are explicitly NOT special-cased; the policy
  defines "workday" as calendar weekday only.

OVERLAP SEMANTICS:
  Two ranges overlap when they share at least one calendar day. They are
  adjacent when the gap between them is at most gapDays calendar days.
  Detection is advisory only: the result feeds a Warn outcome for human
  reviewers and never auto-rejects.
*/
package engine

// ComputeWorkdays counts Monday-Friday days in [start, end] inclusive.
// Returns 0 for an inverted range.
func ComputeWorkdays(start, end Date) int {
	if end.Before(start) {
		return 0
	}
	workdays := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if d.IsWorkday() {
			workdays++
		}
	}
	return workdays
}

// FindAdjacentOrOverlapping returns every existing Approved, Pending or
// Escalated request whose range overlaps the draft's range, or whose end
// is within gapDays of the draft's start (or vice versa). Results keep
// the input order so decisions replay identically.
func FindAdjacentOrOverlapping(draft RequestDraft, existing []RequestRef, gapDays int) []RequestRef {
	var matches []RequestRef
	for _, ref := range existing {
		switch ref.Status {
		case RequestApproved, RequestPending, RequestEscalated:
		default:
			continue
		}
		if ref.RequestID == draft.RequestID {
			continue
		}
		if rangesTouch(draft.Start, draft.End, ref.Start, ref.End, gapDays) {
			matches = append(matches, ref)
		}
	}
	return matches
}

// rangesTouch reports whether [aStart, aEnd] and [bStart, bEnd] overlap
// or are separated by at most gapDays calendar days.
func rangesTouch(aStart, aEnd, bStart, bEnd Date, gapDays int) bool {
	// Overlap: a starts no later than b ends, and b starts no later
	// than a ends.
	if aStart.BeforeOrEqual(bEnd) && bStart.BeforeOrEqual(aEnd) {
		return true
	}
	// Adjacency: gap between the closer pair of endpoints.
	if bEnd.Before(aStart) {
		return DaysBetween(bEnd, aStart) <= gapDays+1
	}
	return DaysBetween(aEnd, bStart) <= gapDays+1
}
