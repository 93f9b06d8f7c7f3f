/*
workflow.go - Escalation workflow orchestration

PURPOSE:
  Opens review items for escalated decisions and applies reviewer
  resolutions. On approve, commits the request's workdays to the annual
  balance exactly once and moves the request record to its terminal
  state.

ORDERING:
  The resolved flag is flipped BEFORE the balance commit. If the flip
  loses a race the commit never happens; if the commit fails after a won
  flip the error is surfaced and the review stays resolved, which is the
  safer failure mode (an operator re-commits manually) than risking a
  double-commit of quota days.
*/
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/sirw-engine/balance"
	"github.com/warp/sirw-engine/engine"
	"github.com/warp/sirw-engine/requests"
)

// Workflow routes escalated decisions to human review and applies
// resolutions.
type Workflow struct {
	Store    Store
	Balances balance.Tracker
	Requests requests.Store
	Log      *zap.Logger

	now func() time.Time
}

// NewWorkflow wires the workflow. The requests store may be nil when
// request records are managed elsewhere.
func NewWorkflow(store Store, balances balance.Tracker, reqs requests.Store, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{
		Store:    store,
		Balances: balances,
		Requests: reqs,
		Log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the timestamp source, for deterministic tests.
func (w *Workflow) WithClock(now func() time.Time) *Workflow {
	w.now = now
	return w
}

// Open creates a durable review item for an escalated decision.
func (w *Workflow) Open(ctx context.Context, draft engine.RequestDraft, decision engine.Decision) (PendingReview, error) {
	if decision.Status != engine.StatusEscalated {
		return PendingReview{}, fmt.Errorf("cannot open review for %s decision", decision.Status)
	}

	pr := PendingReview{
		ID:         uuid.NewString(),
		RequestID:  draft.RequestID,
		EmployeeID: draft.EmployeeID,
		Year:       draft.Year(),
		Workdays:   decision.ComputedWorkdays,
		Draft:      draft,
		Decision:   decision,
		OpenedAt:   w.now(),
	}
	if err := w.Store.Create(ctx, pr); err != nil {
		return PendingReview{}, fmt.Errorf("create pending review: %w", err)
	}

	w.Log.Info("review opened",
		zap.String("review_id", pr.ID),
		zap.String("request_id", pr.RequestID),
		zap.String("employee_id", pr.EmployeeID),
		zap.Int("workdays", pr.Workdays),
	)
	return pr, nil
}

// Resolve applies a reviewer's decision. Idempotent: a second resolution
// of the same review returns ErrAlreadyResolved and commits nothing.
func (w *Workflow) Resolve(ctx context.Context, reviewID string, res Resolution, note, reviewer string) (PendingReview, error) {
	if res != ResolutionApproved && res != ResolutionRejected {
		return PendingReview{}, fmt.Errorf("resolution must be %q or %q", ResolutionApproved, ResolutionRejected)
	}

	at := w.now()
	pr, err := w.Store.MarkResolved(ctx, reviewID, res, note, reviewer, at)
	if err != nil {
		return PendingReview{}, err
	}

	// Only the winner of the check-and-set reaches this point, so the
	// commit below happens exactly once per review.
	if res == ResolutionApproved {
		if _, err := w.Balances.CommitApproval(ctx, pr.EmployeeID, pr.Year, pr.Workdays); err != nil {
			w.Log.Error("balance commit failed after review resolution",
				zap.String("review_id", pr.ID),
				zap.String("employee_id", pr.EmployeeID),
				zap.Error(err),
			)
			return pr, fmt.Errorf("commit approval for review %s: %w", pr.ID, err)
		}
	}

	if w.Requests != nil {
		status := requests.StatusApproved
		if res == ResolutionRejected {
			status = requests.StatusRejected
		}
		reason := note
		if reason == "" {
			reason = fmt.Sprintf("Resolved by %s after Global Mobility review.", reviewer)
		}
		if _, err := w.Requests.UpdateStatus(ctx, pr.RequestID, status, reason, at); err != nil {
			w.Log.Error("request status update failed after review resolution",
				zap.String("review_id", pr.ID),
				zap.String("request_id", pr.RequestID),
				zap.Error(err),
			)
		}
	}

	w.Log.Info("review resolved",
		zap.String("review_id", pr.ID),
		zap.String("resolution", string(res)),
		zap.String("reviewer", reviewer),
	)
	return pr, nil
}
