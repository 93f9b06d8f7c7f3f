/*
Package requests persists SIRW request records and serves the
same-employee history the engine's circumvention check consumes.

LIFECYCLE:
  submitted -> {approved | rejected | escalated}   (engine, terminal)
  escalated -> {approved | rejected}               (human resolution)
  approved  -> cancelled                           (admin flow, drives
                                                    balance reversal)

  No other transitions exist. A terminal state is never re-evaluated for
  the same request; resubmissions are new requests with new IDs.

REFERENCE NUMBERS:
  Human-facing identifiers follow "SIRW-<year>-<NNNN>", sequenced per
  calendar year of submission.
*/
package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warp/sirw-engine/engine"
)

// =============================================================================
// RECORD
// =============================================================================

type Status string

const (
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusEscalated Status = "escalated"
	StatusCancelled Status = "cancelled"
)

// validTransitions encodes the request lifecycle.
var validTransitions = map[Status][]Status{
	StatusEscalated: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusCancelled},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Record is a persisted SIRW request together with its decision audit
// trail. The draft fields are immutable after creation; only Status and
// DecisionReason change, and only via lifecycle transitions.
type Record struct {
	ID              string
	ReferenceNumber string
	EmployeeID      string

	HomeCountry        string
	DestinationCountry string
	Start              engine.Date
	End                engine.Date
	Workdays           int

	IsExceptionRequest bool
	ExceptionReason    string

	Status         Status
	DecisionReason string

	// Decision is the full engine output, retained for audit replay.
	Decision engine.Decision

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ref converts a record into the engine's overlap-check reference.
func (r Record) Ref() engine.RequestRef {
	return engine.RequestRef{
		RequestID: r.ID,
		Status:    engine.RequestStatus(r.Status),
		Start:     r.Start,
		End:       r.End,
		Workdays:  r.Workdays,
	}
}

// HistoryRefs converts records into overlap-check references, keeping
// only statuses the circumvention rule considers.
func HistoryRefs(records []Record) []engine.RequestRef {
	var refs []engine.RequestRef
	for _, r := range records {
		switch r.Status {
		case StatusApproved, StatusEscalated:
			refs = append(refs, r.Ref())
		}
	}
	return refs
}

// NewReference formats the human-facing reference number.
func NewReference(year, seq int) string {
	return fmt.Sprintf("SIRW-%d-%04d", year, seq)
}

// =============================================================================
// STORE
// =============================================================================

var (
	ErrNotFound          = errors.New("request not found")
	ErrInvalidTransition = errors.New("invalid request status transition")
)

// Stats summarises request counts for the admin dashboard.
type Stats struct {
	Total     int
	Approved  int
	Rejected  int
	Escalated int
	Cancelled int
}

// Store persists request records.
type Store interface {
	// Create persists a new record. The store assigns the reference
	// number from the per-year sequence.
	Create(ctx context.Context, rec *Record) error

	Get(ctx context.Context, id string) (Record, error)
	GetByReference(ctx context.Context, ref string) (Record, error)

	// ListByEmployeeYear returns the employee's requests whose start
	// date falls in the given year, oldest first.
	ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]Record, error)

	// UpdateStatus applies a lifecycle transition. Returns
	// ErrInvalidTransition when the move is not legal.
	UpdateStatus(ctx context.Context, id string, to Status, reason string, at time.Time) (Record, error)

	Stats(ctx context.Context) (Stats, error)
}
