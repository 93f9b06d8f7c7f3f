/*
Package balance implements the annual balance tracker: the source of
truth for "how many SIRW workdays has employee X used in year Y", and
the only component permitted to mutate that count.

PURPOSE:
  Balances are keyed by (employeeID, year). A new year is a new balance
  row; there is no explicit reset. Balances are created lazily on the
  first request of a year and mutated only by committing an approved
  decision (or reversing one on cancellation).

CONCURRENCY:
  Two approvals submitted moments apart for the same employee must both
  be reflected. A lost update lets an employee silently exceed the legal
  20-day quota, so it is a correctness bug, not a performance nuance.
  CommitApproval is therefore an atomic increment at the storage layer
  (per-key lock or conditional update), never a read-modify-write in the
  application layer. Storage that cannot guarantee the increment returns
  ErrConcurrentUpdateConflict; the CALLER retries (retry policy and
  backoff belong to whoever controls the request).

SEE ALSO:
  - memory.go: In-memory tracker (tests, dev server)
  - store/sqlite: Persistent tracker
*/
package balance

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/warp/sirw-engine/engine"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrConcurrentUpdateConflict is transient: the storage layer could
	// not guarantee the atomic increment and the caller must retry with
	// the same inputs.
	ErrConcurrentUpdateConflict = errors.New("concurrent balance update conflict")

	// ErrInconsistentBalanceState marks a reversal that would drive the
	// balance negative. It indicates a bug elsewhere (e.g. a double
	// reversal); implementations clamp to zero and log it rather than
	// failing the request path.
	ErrInconsistentBalanceState = errors.New("inconsistent balance state")

	// ErrNegativeDelta rejects negative workday deltas outright; the
	// mutation direction is encoded in the operation, not the sign.
	ErrNegativeDelta = errors.New("workday delta must not be negative")
)

// IsRetryable reports whether the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentUpdateConflict)
}

// =============================================================================
// TRACKER
// =============================================================================

// DefaultDaysAllowed is the policy's annual quota for new balances.
var DefaultDaysAllowed = decimal.NewFromInt(engine.DefaultDaysAllowed)

// Tracker is the balance mutation interface.
//
// All operations take a context so storage-backed implementations can
// honour caller-supplied timeouts instead of blocking indefinitely.
type Tracker interface {
	// GetBalance returns the balance for (employeeID, year), lazily
	// zero-valued for unseen keys. It never fails for a missing row.
	GetBalance(ctx context.Context, employeeID string, year int) (engine.EmployeeBalance, error)

	// CommitApproval atomically adds workdays to the used count and
	// returns the new balance. Safe under concurrent calls for the same
	// key; no update may be lost.
	CommitApproval(ctx context.Context, employeeID string, year int, workdays int) (engine.EmployeeBalance, error)

	// ReverseApproval symmetrically decrements the used count when an
	// approved request is cancelled. Never drives the balance negative:
	// clamps to zero and logs the inconsistency instead of failing.
	ReverseApproval(ctx context.Context, employeeID string, year int, workdays int) (engine.EmployeeBalance, error)
}
