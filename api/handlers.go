/*
handlers.go - HTTP API handlers for the SIRW compliance engine

PURPOSE:
  Exposes the compliance decision engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Requests:
    POST   /api/requests                    Submit a remote-work request
    GET    /api/requests/{id}               Get a request (ID or SIRW ref)
    POST   /api/requests/{id}/cancel        Cancel an approved request
    POST   /api/requests/overlap-check      Pre-submission overlap probe

  Employees:
    GET    /api/employees/{id}/requests     Request history for a year
    GET    /api/employees/{id}/balance      Annual workday balance

  Reviews:
    GET    /api/reviews/pending             Open escalations
    POST   /api/reviews/{id}/resolve        Approve or reject an escalation

  Reference:
    GET    /api/reference/blocked-countries Blocked destination tables

  Admin:
    GET    /api/admin/stats                 Decision counters

REQUEST FLOW (submission):
  1. Decode and validate the payload
  2. Load the employee's balance and same-year history
  3. Evaluate the draft (pure, deterministic)
  4. Persist the record with its full decision
  5. Commit workdays (approved) or open a review (escalated)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (already-resolved review, invalid transition)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/sirw-engine/balance"
	"github.com/warp/sirw-engine/engine"
	"github.com/warp/sirw-engine/refdata"
	"github.com/warp/sirw-engine/requests"
	"github.com/warp/sirw-engine/review"
)

// overlapPrecheckBufferDays widens the pre-submission probe beyond the
// engine's adjacency gap so the UI can warn about trips that merely sit
// close together, not just ones the circumvention rule would flag.
const overlapPrecheckBufferDays = 7

// commitRetries bounds the retry loop around balance commits when the
// store reports a transient concurrent-update conflict.
const commitRetries = 3

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *engine.Engine
	Requests requests.Store
	Balances balance.Tracker
	Reviews  *review.Workflow
	Log      *zap.Logger

	validate *validator.Validate
	now      func() time.Time
}

// NewHandler creates a handler wired to the given stores and workflow.
func NewHandler(eng *engine.Engine, reqs requests.Store, balances balance.Tracker, reviews *review.Workflow, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Engine:   eng,
		Requests: reqs,
		Balances: balances,
		Reviews:  reviews,
		Log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// WithClock overrides the handler clock. Tests only.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest evaluates and persists a new remote-work request.
// POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	start, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}

	roleFlags := make([]engine.RoleCategory, len(req.RoleFlags))
	for i, f := range req.RoleFlags {
		roleFlags[i] = engine.RoleCategory(f)
	}

	draft := engine.RequestDraft{
		RequestID:          uuid.NewString(),
		EmployeeID:         req.EmployeeID,
		DestinationCountry: req.DestinationCountry,
		HomeCountry:        req.HomeCountry,
		Start:              start,
		End:                end,
		RoleFlags:          roleFlags,
		HasRightToWork:     req.HasRightToWork,
		IsExceptionRequest: req.IsException,
		ExceptionReason:    req.ExceptionReason,
	}

	bal, err := h.Balances.GetBalance(ctx, draft.EmployeeID, draft.Year())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load balance", err)
		return
	}
	history, err := h.Requests.ListByEmployeeYear(ctx, draft.EmployeeID, draft.Year())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load request history", err)
		return
	}

	decision, err := h.Engine.Evaluate(draft, bal, requests.HistoryRefs(history))
	if err != nil {
		if engine.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, "Request rejected as invalid", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Evaluation failed", err)
		return
	}

	now := h.now()
	rec := requests.Record{
		ID:                 draft.RequestID,
		EmployeeID:         draft.EmployeeID,
		HomeCountry:        draft.HomeCountry,
		DestinationCountry: draft.DestinationCountry,
		Start:              draft.Start,
		End:                draft.End,
		Workdays:           decision.ComputedWorkdays,
		IsExceptionRequest: draft.IsExceptionRequest,
		ExceptionReason:    draft.ExceptionReason,
		Status:             statusFromDecision(decision.Status),
		DecisionReason:     decision.Headline().HumanMessage,
		Decision:           *decision,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := h.Requests.Create(ctx, &rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist request", err)
		return
	}

	switch decision.Status {
	case engine.StatusApproved:
		if err := h.commitWithRetry(r, rec); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to commit approved workdays", err)
			return
		}
	case engine.StatusEscalated:
		if _, err := h.Reviews.Open(ctx, draft, *decision); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to open review", err)
			return
		}
	}

	h.Log.Info("request decided",
		zap.String("request_id", rec.ID),
		zap.String("reference", rec.ReferenceNumber),
		zap.String("employee_id", rec.EmployeeID),
		zap.String("status", string(rec.Status)),
		zap.Int("workdays", rec.Workdays),
	)
	writeJSON(w, http.StatusCreated, toRequestDTO(rec))
}

// commitWithRetry commits approved workdays, retrying transient
// concurrent-update conflicts a bounded number of times.
func (h *Handler) commitWithRetry(r *http.Request, rec requests.Record) error {
	var err error
	for attempt := 0; attempt < commitRetries; attempt++ {
		_, err = h.Balances.CommitApproval(r.Context(), rec.EmployeeID, rec.Start.Year(), rec.Workdays)
		if err == nil || !balance.IsRetryable(err) {
			return err
		}
		h.Log.Warn("balance commit conflict, retrying",
			zap.String("request_id", rec.ID),
			zap.Int("attempt", attempt+1),
		)
	}
	return err
}

// GetRequest returns a single request by ID or SIRW reference number.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var rec requests.Record
	var err error
	if len(id) > 5 && id[:5] == "SIRW-" {
		rec, err = h.Requests.GetByReference(r.Context(), id)
	} else {
		rec, err = h.Requests.Get(r.Context(), id)
	}
	if errors.Is(err, requests.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Request not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(rec))
}

// CancelRequest cancels an approved request and releases its workdays.
// POST /api/requests/{id}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req CancelRequestDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	reason := req.Reason
	if reason == "" {
		reason = "Cancelled by employee."
	}

	rec, err := h.Requests.UpdateStatus(ctx, id, requests.StatusCancelled, reason, h.now())
	if errors.Is(err, requests.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Request not found", nil)
		return
	}
	if errors.Is(err, requests.ErrInvalidTransition) {
		writeError(w, http.StatusConflict, "Only approved requests can be cancelled", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to cancel request", err)
		return
	}

	if _, err := h.Balances.ReverseApproval(ctx, rec.EmployeeID, rec.Start.Year(), rec.Workdays); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to release workdays", err)
		return
	}

	h.Log.Info("request cancelled",
		zap.String("request_id", rec.ID),
		zap.String("employee_id", rec.EmployeeID),
		zap.Int("workdays_released", rec.Workdays),
	)
	writeJSON(w, http.StatusOK, toRequestDTO(rec))
}

// CheckOverlap probes for existing requests near a candidate range so
// the UI can warn before submission. Wider than the engine's adjacency
// gap: anything within the buffer is reported.
// POST /api/requests/overlap-check
func (h *Handler) CheckOverlap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req OverlapCheckDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	start, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}

	// A buffered range can reach into the neighbouring year.
	years := map[int]bool{
		start.Year(): true,
		end.Year():   true,
		start.AddDays(-overlapPrecheckBufferDays).Year(): true,
		end.AddDays(overlapPrecheckBufferDays).Year():    true,
	}
	var history []engine.RequestRef
	for year := range years {
		records, err := h.Requests.ListByEmployeeYear(ctx, req.EmployeeID, year)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load request history", err)
			return
		}
		history = append(history, requests.HistoryRefs(records)...)
	}

	probe := engine.RequestDraft{EmployeeID: req.EmployeeID, Start: start, End: end}
	nearby := engine.FindAdjacentOrOverlapping(probe, history, overlapPrecheckBufferDays)

	combined := engine.ComputeWorkdays(start, end)
	for _, ref := range nearby {
		combined += ref.Workdays
	}
	var warning string
	if len(nearby) > 0 && combined > engine.MaxConsecutiveWorkdays {
		warning = fmt.Sprintf(
			"Combined with nearby requests this trip spans %d workdays, above the %d-workday consecutive limit.",
			combined, engine.MaxConsecutiveWorkdays)
	}

	writeJSON(w, http.StatusOK, OverlapCheckResultDTO{
		HasNearby:        len(nearby) > 0,
		BufferDays:       overlapPrecheckBufferDays,
		CombinedWorkdays: combined,
		Warning:          warning,
		RelatedRequests:  toRelatedDTOs(nearby),
	})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployeeRequests returns an employee's requests for a year.
// GET /api/employees/{id}/requests?year=2026
func (h *Handler) ListEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	year := h.yearParam(r)

	records, err := h.Requests.ListByEmployeeYear(r.Context(), employeeID, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := make([]RequestDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRequestDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBalance returns an employee's annual workday balance.
// GET /api/employees/{id}/balance?year=2026
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	year := h.yearParam(r)

	bal, err := h.Balances.GetBalance(r.Context(), employeeID, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(bal))
}

func (h *Handler) yearParam(r *http.Request) int {
	if s := r.URL.Query().Get("year"); s != "" {
		if year, err := strconv.Atoi(s); err == nil {
			return year
		}
	}
	return h.now().Year()
}

// =============================================================================
// REVIEW HANDLERS
// =============================================================================

// ListPendingReviews returns open escalations, oldest first.
// GET /api/reviews/pending
func (h *Handler) ListPendingReviews(w http.ResponseWriter, r *http.Request) {
	open, err := h.Reviews.Store.ListOpen(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reviews", err)
		return
	}

	dtos := make([]PendingReviewDTO, len(open))
	for i, pr := range open {
		dtos[i] = toPendingReviewDTO(pr)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResolveReview applies a reviewer's decision to an open escalation.
// POST /api/reviews/{id}/resolve
func (h *Handler) ResolveReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ResolveReviewDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	pr, err := h.Reviews.Resolve(r.Context(), id, review.Resolution(req.Resolution), req.Note, req.Reviewer)
	if errors.Is(err, review.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Review not found", nil)
		return
	}
	if errors.Is(err, review.ErrAlreadyResolved) {
		writeError(w, http.StatusConflict, "Review already resolved", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve review", err)
		return
	}
	writeJSON(w, http.StatusOK, toPendingReviewDTO(pr))
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

// ListBlockedCountries returns both blocked-destination tables.
// GET /api/reference/blocked-countries
func (h *Handler) ListBlockedCountries(w http.ResponseWriter, r *http.Request) {
	entries := refdata.AllBlockedCountries()
	dtos := make([]BlockedCountryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = BlockedCountryDTO{
			Name:     e.Name,
			Code:     e.Code,
			Category: string(e.Category),
			Region:   e.Region,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// GetStats returns aggregate decision counters.
// GET /api/admin/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Requests.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load stats", err)
		return
	}
	open, err := h.Reviews.Store.ListOpen(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reviews", err)
		return
	}

	var rate float64
	if decided := stats.Approved + stats.Rejected; decided > 0 {
		rate = math.Round(float64(stats.Approved)/float64(decided)*1000) / 10
	}

	writeJSON(w, http.StatusOK, StatsDTO{
		Total:        stats.Total,
		Approved:     stats.Approved,
		Rejected:     stats.Rejected,
		Escalated:    stats.Escalated,
		Cancelled:    stats.Cancelled,
		OpenReviews:  len(open),
		ApprovalRate: rate,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func statusFromDecision(s engine.Status) requests.Status {
	switch s {
	case engine.StatusApproved:
		return requests.StatusApproved
	case engine.StatusRejected:
		return requests.StatusRejected
	default:
		return requests.StatusEscalated
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
