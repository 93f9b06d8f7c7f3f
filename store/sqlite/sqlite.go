/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces: requests.Store, balance.Tracker and review.Store.

PURPOSE:
  One database file carries the whole audit trail: request records with
  their full decisions, per-(employee, year) balances and the pending
  review queue. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

KEY TABLES:
  requests:       Request records with the full decision JSON (audit)
  balances:       Per-(employee, year) workday accounting
  reviews:        Pending review queue with guarded resolution
  year_sequences: Reference-number counters per submission year

CONCURRENT-UPDATE GUARANTEES:
  - Balance mutation happens inside a transaction under the store lock:
    an atomic per-key increment, never an unguarded read-modify-write.
    Two simultaneous approvals for one employee must both land; a lost
    update would let an employee silently exceed the annual quota.
  - Review resolution is a conditional UPDATE on resolved = 0; whoever
    loses the flip gets ErrAlreadyResolved and must not commit days.
  - Status transitions on requests are guarded by the current status,
    so a stale caller cannot clobber a newer transition.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/sirw.db", logger)
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  requests := store.Requests()
  reviews := store.Reviews()
  // store itself is the balance.Tracker

  Use ":memory:" as the path for tests.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - requests/requests.go: Record and Store definitions
  - balance/tracker.go: Tracker interface and error semantics
  - review/review.go: PendingReview and Store definitions
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/sirw-engine/balance"
	"github.com/warp/sirw-engine/engine"
	"github.com/warp/sirw-engine/requests"
	"github.com/warp/sirw-engine/review"
)

// Store owns the database connection. It implements balance.Tracker
// directly; the Requests() and Reviews() views implement the other two
// store interfaces over the same connection and lock.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

var _ balance.Tracker = (*Store)(nil)

// New opens (and migrates) a SQLite store. Use ":memory:" for tests.
func New(dbPath string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Requests returns the requests.Store view.
func (s *Store) Requests() requests.Store { return &requestStore{s} }

// Reviews returns the review.Store view.
func (s *Store) Reviews() review.Store { return &reviewStore{s} }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS requests (
		id                  TEXT PRIMARY KEY,
		reference_number    TEXT NOT NULL UNIQUE,
		employee_id         TEXT NOT NULL,
		home_country        TEXT NOT NULL,
		destination_country TEXT NOT NULL,
		start_date          TEXT NOT NULL,
		end_date            TEXT NOT NULL,
		start_year          INTEGER NOT NULL,
		workdays            INTEGER NOT NULL,
		is_exception        INTEGER NOT NULL DEFAULT 0,
		exception_reason    TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL,
		decision_reason     TEXT NOT NULL DEFAULT '',
		decision_json       TEXT NOT NULL,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee_year
		ON requests(employee_id, start_year);

	CREATE TABLE IF NOT EXISTS balances (
		employee_id  TEXT NOT NULL,
		year         INTEGER NOT NULL,
		days_used    TEXT NOT NULL,
		days_allowed TEXT NOT NULL,
		PRIMARY KEY (employee_id, year)
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id            TEXT PRIMARY KEY,
		request_id    TEXT NOT NULL,
		employee_id   TEXT NOT NULL,
		year          INTEGER NOT NULL,
		workdays      INTEGER NOT NULL,
		draft_json    TEXT NOT NULL,
		decision_json TEXT NOT NULL,
		opened_at     TEXT NOT NULL,
		resolved      INTEGER NOT NULL DEFAULT 0,
		resolution    TEXT NOT NULL DEFAULT '',
		note          TEXT NOT NULL DEFAULT '',
		resolved_by   TEXT NOT NULL DEFAULT '',
		resolved_at   TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_open ON reviews(resolved, opened_at);

	CREATE TABLE IF NOT EXISTS year_sequences (
		year INTEGER PRIMARY KEY,
		seq  INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REQUESTS STORE
// =============================================================================

type requestStore struct {
	s *Store
}

var _ requests.Store = (*requestStore)(nil)

func (r *requestStore) Create(ctx context.Context, rec *requests.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	year := rec.CreatedAt.Year()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO year_sequences (year, seq) VALUES (?, 1)
		 ON CONFLICT(year) DO UPDATE SET seq = seq + 1`, year); err != nil {
		return fmt.Errorf("bump year sequence: %w", err)
	}
	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT seq FROM year_sequences WHERE year = ?`, year).Scan(&seq); err != nil {
		return fmt.Errorf("read year sequence: %w", err)
	}
	rec.ReferenceNumber = requests.NewReference(year, seq)

	decisionJSON, err := json.Marshal(rec.Decision)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO requests (
			id, reference_number, employee_id, home_country, destination_country,
			start_date, end_date, start_year, workdays, is_exception,
			exception_reason, status, decision_reason, decision_json,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ReferenceNumber, rec.EmployeeID, rec.HomeCountry, rec.DestinationCountry,
		rec.Start.String(), rec.End.String(), rec.Start.Year(), rec.Workdays, boolToInt(rec.IsExceptionRequest),
		rec.ExceptionReason, string(rec.Status), rec.DecisionReason, string(decisionJSON),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return tx.Commit()
}

const requestColumns = `
	id, reference_number, employee_id, home_country, destination_country,
	start_date, end_date, workdays, is_exception, exception_reason,
	status, decision_reason, decision_json, created_at, updated_at`

func (r *requestStore) Get(ctx context.Context, id string) (requests.Record, error) {
	return r.getWhere(ctx, `WHERE id = ?`, id)
}

func (r *requestStore) GetByReference(ctx context.Context, ref string) (requests.Record, error) {
	return r.getWhere(ctx, `WHERE reference_number = ?`, ref)
}

func (r *requestStore) getWhere(ctx context.Context, where string, arg any) (requests.Record, error) {
	row := r.s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests `+where, arg)
	rec, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return requests.Record{}, requests.ErrNotFound
	}
	return rec, err
}

func (r *requestStore) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]requests.Record, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE employee_id = ? AND start_year = ?
		ORDER BY created_at ASC`, employeeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []requests.Record
	for rows.Next() {
		rec, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *requestStore) UpdateStatus(ctx context.Context, id string, to requests.Status, reason string, at time.Time) (requests.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, err := r.getWhere(ctx, `WHERE id = ?`, id)
	if err != nil {
		return requests.Record{}, err
	}
	if !requests.CanTransition(rec.Status, to) {
		return requests.Record{}, requests.ErrInvalidTransition
	}

	// Guarded by the status just read, so a stale caller loses cleanly.
	res, err := r.s.db.ExecContext(ctx, `
		UPDATE requests
		SET status = ?,
		    decision_reason = CASE WHEN ? != '' THEN ? ELSE decision_reason END,
		    updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), reason, reason, at.UTC().Format(time.RFC3339Nano), id, string(rec.Status))
	if err != nil {
		return requests.Record{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return requests.Record{}, requests.ErrInvalidTransition
	}
	return r.getWhere(ctx, `WHERE id = ?`, id)
}

func (r *requestStore) Stats(ctx context.Context) (requests.Stats, error) {
	rows, err := r.s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM requests GROUP BY status`)
	if err != nil {
		return requests.Stats{}, err
	}
	defer rows.Close()

	var stats requests.Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return requests.Stats{}, err
		}
		stats.Total += count
		switch requests.Status(status) {
		case requests.StatusApproved:
			stats.Approved = count
		case requests.StatusRejected:
			stats.Rejected = count
		case requests.StatusEscalated:
			stats.Escalated = count
		case requests.StatusCancelled:
			stats.Cancelled = count
		}
	}
	return stats, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRequest(row scannable) (requests.Record, error) {
	var rec requests.Record
	var start, end, status, decisionJSON, createdAt, updatedAt string
	var isException int

	err := row.Scan(
		&rec.ID, &rec.ReferenceNumber, &rec.EmployeeID, &rec.HomeCountry, &rec.DestinationCountry,
		&start, &end, &rec.Workdays, &isException, &rec.ExceptionReason,
		&status, &rec.DecisionReason, &decisionJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return requests.Record{}, err
	}

	if rec.Start, err = engine.ParseDate(start); err != nil {
		return requests.Record{}, err
	}
	if rec.End, err = engine.ParseDate(end); err != nil {
		return requests.Record{}, err
	}
	rec.IsExceptionRequest = isException != 0
	rec.Status = requests.Status(status)
	if err := json.Unmarshal([]byte(decisionJSON), &rec.Decision); err != nil {
		return requests.Record{}, fmt.Errorf("unmarshal decision: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return requests.Record{}, err
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return requests.Record{}, err
	}
	return rec, nil
}

// =============================================================================
// BALANCE TRACKER
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, employeeID string, year int) (engine.EmployeeBalance, error) {
	var used, allowed string
	err := s.db.QueryRowContext(ctx,
		`SELECT days_used, days_allowed FROM balances WHERE employee_id = ? AND year = ?`,
		employeeID, year).Scan(&used, &allowed)
	if errors.Is(err, sql.ErrNoRows) {
		// Lazily zero-valued: unseen keys never fail.
		return engine.EmployeeBalance{
			EmployeeID:  employeeID,
			Year:        year,
			DaysUsed:    decimal.Zero,
			DaysAllowed: balance.DefaultDaysAllowed,
		}, nil
	}
	if err != nil {
		return engine.EmployeeBalance{}, err
	}
	return parseBalance(employeeID, year, used, allowed)
}

func (s *Store) CommitApproval(ctx context.Context, employeeID string, year int, workdays int) (engine.EmployeeBalance, error) {
	if workdays < 0 {
		return engine.EmployeeBalance{}, balance.ErrNegativeDelta
	}
	return s.adjustBalance(ctx, employeeID, year, decimal.NewFromInt(int64(workdays)))
}

func (s *Store) ReverseApproval(ctx context.Context, employeeID string, year int, workdays int) (engine.EmployeeBalance, error) {
	if workdays < 0 {
		return engine.EmployeeBalance{}, balance.ErrNegativeDelta
	}
	return s.adjustBalance(ctx, employeeID, year, decimal.NewFromInt(int64(workdays)).Neg())
}

// adjustBalance applies a delta inside a transaction under the store
// lock. The lock serializes the read-increment-write, which makes the
// increment atomic on SQLite; with PostgreSQL the same shape becomes a
// single conditional UPDATE.
func (s *Store) adjustBalance(ctx context.Context, employeeID string, year int, delta decimal.Decimal) (engine.EmployeeBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.EmployeeBalance{}, err
	}
	defer tx.Rollback()

	used := decimal.Zero
	allowed := balance.DefaultDaysAllowed
	var usedStr, allowedStr string
	err = tx.QueryRowContext(ctx,
		`SELECT days_used, days_allowed FROM balances WHERE employee_id = ? AND year = ?`,
		employeeID, year).Scan(&usedStr, &allowedStr)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First mutation of the year creates the row below.
	case err != nil:
		return engine.EmployeeBalance{}, err
	default:
		bal, perr := parseBalance(employeeID, year, usedStr, allowedStr)
		if perr != nil {
			return engine.EmployeeBalance{}, perr
		}
		used, allowed = bal.DaysUsed, bal.DaysAllowed
	}

	next := used.Add(delta)
	if next.IsNegative() {
		s.log.Warn("balance reversal clamped at zero",
			zap.String("employee_id", employeeID),
			zap.Int("year", year),
			zap.String("delta", delta.String()),
			zap.String("balance_before", used.String()),
			zap.Error(balance.ErrInconsistentBalanceState),
		)
		next = decimal.Zero
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO balances (employee_id, year, days_used, days_allowed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(employee_id, year) DO UPDATE SET days_used = excluded.days_used`,
		employeeID, year, next.String(), allowed.String()); err != nil {
		return engine.EmployeeBalance{}, fmt.Errorf("write balance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		// SQLITE_BUSY and friends are transient; the caller retries.
		return engine.EmployeeBalance{}, fmt.Errorf("%w: %v", balance.ErrConcurrentUpdateConflict, err)
	}

	return engine.EmployeeBalance{
		EmployeeID:  employeeID,
		Year:        year,
		DaysUsed:    next,
		DaysAllowed: allowed,
	}, nil
}

func parseBalance(employeeID string, year int, used, allowed string) (engine.EmployeeBalance, error) {
	u, err := decimal.NewFromString(used)
	if err != nil {
		return engine.EmployeeBalance{}, fmt.Errorf("corrupt days_used %q: %w", used, err)
	}
	a, err := decimal.NewFromString(allowed)
	if err != nil {
		return engine.EmployeeBalance{}, fmt.Errorf("corrupt days_allowed %q: %w", allowed, err)
	}
	return engine.EmployeeBalance{EmployeeID: employeeID, Year: year, DaysUsed: u, DaysAllowed: a}, nil
}

// =============================================================================
// REVIEW STORE
// =============================================================================

type reviewStore struct {
	s *Store
}

var _ review.Store = (*reviewStore)(nil)

func (r *reviewStore) Create(ctx context.Context, pr review.PendingReview) error {
	draftJSON, err := json.Marshal(pr.Draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	decisionJSON, err := json.Marshal(pr.Decision)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	_, err = r.s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, request_id, employee_id, year, workdays, draft_json, decision_json, opened_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pr.ID, pr.RequestID, pr.EmployeeID, pr.Year, pr.Workdays,
		string(draftJSON), string(decisionJSON), pr.OpenedAt.UTC().Format(time.RFC3339Nano))
	return err
}

const reviewColumns = `
	id, request_id, employee_id, year, workdays, draft_json, decision_json,
	opened_at, resolved, resolution, note, resolved_by, resolved_at`

func (r *reviewStore) Get(ctx context.Context, id string) (review.PendingReview, error) {
	row := r.s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	pr, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return review.PendingReview{}, review.ErrNotFound
	}
	return pr, err
}

func (r *reviewStore) ListOpen(ctx context.Context) ([]review.PendingReview, error) {
	rows, err := r.s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE resolved = 0 ORDER BY opened_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []review.PendingReview
	for rows.Next() {
		pr, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

// MarkResolved is the guarded unresolved -> resolved flip: a conditional
// UPDATE on resolved = 0, so with concurrent resolvers exactly one wins.
func (r *reviewStore) MarkResolved(ctx context.Context, id string, res review.Resolution, note, reviewer string, at time.Time) (review.PendingReview, error) {
	result, err := r.s.db.ExecContext(ctx, `
		UPDATE reviews SET resolved = 1, resolution = ?, note = ?, resolved_by = ?, resolved_at = ?
		WHERE id = ? AND resolved = 0`,
		string(res), note, reviewer, at.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return review.PendingReview{}, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return review.PendingReview{}, err
	}
	if n == 0 {
		if _, gerr := r.Get(ctx, id); gerr != nil {
			return review.PendingReview{}, gerr
		}
		return review.PendingReview{}, review.ErrAlreadyResolved
	}
	return r.Get(ctx, id)
}

func scanReview(row scannable) (review.PendingReview, error) {
	var pr review.PendingReview
	var draftJSON, decisionJSON, openedAt, resolution string
	var resolved int
	var resolvedAt sql.NullString

	err := row.Scan(
		&pr.ID, &pr.RequestID, &pr.EmployeeID, &pr.Year, &pr.Workdays,
		&draftJSON, &decisionJSON, &openedAt, &resolved, &resolution,
		&pr.Note, &pr.ResolvedBy, &resolvedAt,
	)
	if err != nil {
		return review.PendingReview{}, err
	}

	if err := json.Unmarshal([]byte(draftJSON), &pr.Draft); err != nil {
		return review.PendingReview{}, fmt.Errorf("unmarshal draft: %w", err)
	}
	if err := json.Unmarshal([]byte(decisionJSON), &pr.Decision); err != nil {
		return review.PendingReview{}, fmt.Errorf("unmarshal decision: %w", err)
	}
	if pr.OpenedAt, err = time.Parse(time.RFC3339Nano, openedAt); err != nil {
		return review.PendingReview{}, err
	}
	pr.Resolved = resolved != 0
	pr.Resolution = review.Resolution(resolution)
	if resolvedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, resolvedAt.String)
		if err != nil {
			return review.PendingReview{}, err
		}
		pr.ResolvedAt = &t
	}
	return pr, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
