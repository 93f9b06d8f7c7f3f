/*
Package review implements the exception/escalation workflow: escalated
decisions become durable PendingReview records that a Global Mobility
reviewer resolves to approved or rejected.

IDEMPOTENCY:
  Resolving the same review twice must not double-commit balance days.
  Resolution is therefore a guarded state transition: the store flips
  unresolved -> resolved atomically (check-and-set), and only the caller
  that wins the flip invokes CommitApproval. Retried or concurrent
  reviewer actions observe ErrAlreadyResolved.

SCOPE:
  Reviewer notification is an external collaborator; this package only
  records the queue and the resolution.
*/
package review

import (
	"context"
	"errors"
	"time"

	"github.com/warp/sirw-engine/engine"
)

// =============================================================================
// PENDING REVIEW
// =============================================================================

type Resolution string

const (
	ResolutionApproved Resolution = "approved"
	ResolutionRejected Resolution = "rejected"
)

// PendingReview is a durable review item referencing the escalated
// decision and the draft that produced it.
type PendingReview struct {
	ID        string
	RequestID string

	EmployeeID string
	Year       int
	Workdays   int

	Draft    engine.RequestDraft
	Decision engine.Decision

	OpenedAt time.Time

	Resolved   bool
	Resolution Resolution
	Note       string
	ResolvedBy string
	ResolvedAt *time.Time
}

// =============================================================================
// STORE
// =============================================================================

var (
	ErrNotFound = errors.New("pending review not found")

	// ErrAlreadyResolved is returned by the check-and-set when another
	// resolution already won. Callers treat it as a no-op signal, never
	// as a reason to commit again.
	ErrAlreadyResolved = errors.New("review already resolved")
)

// Store persists pending reviews.
type Store interface {
	Create(ctx context.Context, pr PendingReview) error
	Get(ctx context.Context, id string) (PendingReview, error)

	// ListOpen returns unresolved reviews, oldest first.
	ListOpen(ctx context.Context) ([]PendingReview, error)

	// MarkResolved atomically flips unresolved -> resolved and records
	// the resolution. Returns ErrAlreadyResolved if the review was
	// resolved by anyone, including this caller, before the flip.
	MarkResolved(ctx context.Context, id string, res Resolution, note, reviewer string, at time.Time) (PendingReview, error)
}
