/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request bodies carry validator struct tags and are checked with
  go-playground/validator before any domain logic runs. Domain-level
  validation (date ordering, country resolution, exception reasons)
  still belongs to the engine; the tags only reject obviously malformed
  payloads early with a field-level error message.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: Domain types these map from
*/
package api

import (
	"time"

	"github.com/warp/sirw-engine/engine"
	"github.com/warp/sirw-engine/requests"
	"github.com/warp/sirw-engine/review"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// SubmitRequestDTO is the body for submitting a remote-work request.
type SubmitRequestDTO struct {
	EmployeeID         string   `json:"employee_id" validate:"required"`
	HomeCountry        string   `json:"home_country" validate:"required"`
	DestinationCountry string   `json:"destination_country" validate:"required"`
	StartDate          string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate            string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	RoleFlags          []string `json:"role_flags,omitempty"`
	HasRightToWork     bool     `json:"has_right_to_work"`
	IsException        bool     `json:"is_exception"`
	ExceptionReason    string   `json:"exception_reason,omitempty" validate:"required_if=IsException true"`
}

// RequestDTO represents a stored request with its decision.
type RequestDTO struct {
	ID                 string           `json:"id"`
	ReferenceNumber    string           `json:"reference_number"`
	EmployeeID         string           `json:"employee_id"`
	HomeCountry        string           `json:"home_country"`
	DestinationCountry string           `json:"destination_country"`
	StartDate          string           `json:"start_date"`
	EndDate            string           `json:"end_date"`
	Workdays           int              `json:"workdays"`
	IsException        bool             `json:"is_exception"`
	ExceptionReason    string           `json:"exception_reason,omitempty"`
	Status             string           `json:"status"`
	DecisionReason     string           `json:"decision_reason,omitempty"`
	Outcomes           []RuleOutcomeDTO `json:"outcomes"`
	CreatedAt          string           `json:"created_at"`
	UpdatedAt          string           `json:"updated_at"`
}

// RuleOutcomeDTO is one rule's verdict inside a decision.
type RuleOutcomeDTO struct {
	Rule            string              `json:"rule"`
	Verdict         string              `json:"verdict"`
	ReasonCode      string              `json:"reason_code"`
	Message         string              `json:"message"`
	RelatedRequests []RelatedRequestDTO `json:"related_requests,omitempty"`
}

// RelatedRequestDTO identifies a prior request referenced by the
// overlap rule.
type RelatedRequestDTO struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Workdays  int    `json:"workdays"`
}

// BalanceDTO represents an employee's annual workday balance.
type BalanceDTO struct {
	EmployeeID    string `json:"employee_id"`
	Year          int    `json:"year"`
	DaysUsed      string `json:"days_used"`
	DaysAllowed   string `json:"days_allowed"`
	DaysRemaining string `json:"days_remaining"`
}

// OverlapCheckDTO is the body for the pre-submission overlap probe.
type OverlapCheckDTO struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// OverlapCheckResultDTO reports nearby requests found by the probe.
// CombinedWorkdays is the candidate range plus every nearby request;
// Warning is set when that total exceeds the consecutive-day limit.
type OverlapCheckResultDTO struct {
	HasNearby        bool                `json:"has_nearby"`
	BufferDays       int                 `json:"buffer_days"`
	CombinedWorkdays int                 `json:"combined_workdays"`
	Warning          string              `json:"warning,omitempty"`
	RelatedRequests  []RelatedRequestDTO `json:"related_requests"`
}

// PendingReviewDTO represents an open escalation awaiting a reviewer.
type PendingReviewDTO struct {
	ID         string           `json:"id"`
	RequestID  string           `json:"request_id"`
	EmployeeID string           `json:"employee_id"`
	Year       int              `json:"year"`
	Workdays   int              `json:"workdays"`
	Outcomes   []RuleOutcomeDTO `json:"outcomes"`
	OpenedAt   string           `json:"opened_at"`
	Resolved   bool             `json:"resolved"`
	Resolution string           `json:"resolution,omitempty"`
	Note       string           `json:"note,omitempty"`
	ResolvedBy string           `json:"resolved_by,omitempty"`
	ResolvedAt string           `json:"resolved_at,omitempty"`
}

// ResolveReviewDTO is the body for resolving a pending review.
type ResolveReviewDTO struct {
	Resolution string `json:"resolution" validate:"required,oneof=approved rejected"`
	Note       string `json:"note,omitempty"`
	Reviewer   string `json:"reviewer" validate:"required"`
}

// CancelRequestDTO is the body for cancelling an approved request.
type CancelRequestDTO struct {
	Reason string `json:"reason,omitempty"`
}

// BlockedCountryDTO represents one entry of the blocked-country tables.
type BlockedCountryDTO struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Category string `json:"category"`
	Region   string `json:"region,omitempty"`
}

// StatsDTO is the admin dashboard summary. ApprovalRate is the
// approved share of terminally decided requests, in percent.
type StatsDTO struct {
	Total        int     `json:"total"`
	Approved     int     `json:"approved"`
	Rejected     int     `json:"rejected"`
	Escalated    int     `json:"escalated"`
	Cancelled    int     `json:"cancelled"`
	OpenReviews  int     `json:"open_reviews"`
	ApprovalRate float64 `json:"approval_rate"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRequestDTO(rec requests.Record) RequestDTO {
	return RequestDTO{
		ID:                 rec.ID,
		ReferenceNumber:    rec.ReferenceNumber,
		EmployeeID:         rec.EmployeeID,
		HomeCountry:        rec.HomeCountry,
		DestinationCountry: rec.DestinationCountry,
		StartDate:          rec.Start.String(),
		EndDate:            rec.End.String(),
		Workdays:           rec.Workdays,
		IsException:        rec.IsExceptionRequest,
		ExceptionReason:    rec.ExceptionReason,
		Status:             string(rec.Status),
		DecisionReason:     rec.DecisionReason,
		Outcomes:           toOutcomeDTOs(rec.Decision.Outcomes),
		CreatedAt:          rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          rec.UpdatedAt.Format(time.RFC3339),
	}
}

func toOutcomeDTOs(outcomes []engine.RuleOutcome) []RuleOutcomeDTO {
	dtos := make([]RuleOutcomeDTO, len(outcomes))
	for i, o := range outcomes {
		dtos[i] = RuleOutcomeDTO{
			Rule:            o.RuleName,
			Verdict:         string(o.Verdict),
			ReasonCode:      string(o.ReasonCode),
			Message:         o.HumanMessage,
			RelatedRequests: toRelatedDTOs(o.RelatedRequests),
		}
	}
	return dtos
}

func toRelatedDTOs(refs []engine.RequestRef) []RelatedRequestDTO {
	if len(refs) == 0 {
		return nil
	}
	dtos := make([]RelatedRequestDTO, len(refs))
	for i, ref := range refs {
		dtos[i] = RelatedRequestDTO{
			RequestID: ref.RequestID,
			Status:    string(ref.Status),
			StartDate: ref.Start.String(),
			EndDate:   ref.End.String(),
			Workdays:  ref.Workdays,
		}
	}
	return dtos
}

func toBalanceDTO(bal engine.EmployeeBalance) BalanceDTO {
	return BalanceDTO{
		EmployeeID:    bal.EmployeeID,
		Year:          bal.Year,
		DaysUsed:      bal.DaysUsed.String(),
		DaysAllowed:   bal.DaysAllowed.String(),
		DaysRemaining: bal.Remaining().String(),
	}
}

func toPendingReviewDTO(pr review.PendingReview) PendingReviewDTO {
	dto := PendingReviewDTO{
		ID:         pr.ID,
		RequestID:  pr.RequestID,
		EmployeeID: pr.EmployeeID,
		Year:       pr.Year,
		Workdays:   pr.Workdays,
		Outcomes:   toOutcomeDTOs(pr.Decision.Outcomes),
		OpenedAt:   pr.OpenedAt.Format(time.RFC3339),
		Resolved:   pr.Resolved,
		Resolution: string(pr.Resolution),
		Note:       pr.Note,
		ResolvedBy: pr.ResolvedBy,
	}
	if pr.ResolvedAt != nil {
		dto.ResolvedAt = pr.ResolvedAt.Format(time.RFC3339)
	}
	return dto
}
