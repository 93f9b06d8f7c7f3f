package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/sirw-engine/api"
	"github.com/warp/sirw-engine/balance"
	"github.com/warp/sirw-engine/engine"
	"github.com/warp/sirw-engine/refdata"
	"github.com/warp/sirw-engine/requests"
	"github.com/warp/sirw-engine/review"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	clock := func() time.Time { return testNow }
	eng := engine.New(refdata.New(), engine.WithClock(clock))
	balances := balance.NewMemory(nil)
	reqs := requests.NewMemory()
	reviews := review.NewWorkflow(review.NewMemory(), balances, reqs, nil).WithClock(clock)

	handler := api.NewHandler(eng, reqs, balances, reviews, nil).WithClock(clock)
	srv := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func spainSubmission() api.SubmitRequestDTO {
	return api.SubmitRequestDTO{
		EmployeeID:         "emp-1",
		HomeCountry:        "DK",
		DestinationCountry: "ES",
		StartDate:          "2026-03-02",
		EndDate:            "2026-03-13",
		HasRightToWork:     true,
	}
}

// =============================================================================
// SUBMISSION TESTS
// =============================================================================

func TestSubmitRequest_Approved(t *testing.T) {
	// GIVEN: A compliant two-week trip to Spain
	// WHEN: Submitting
	// THEN: Approved with a reference number, and 10 workdays committed

	srv := newTestServer(t)

	var got api.RequestDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/requests", spainSubmission(), &got)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "approved", got.Status)
	assert.Equal(t, "SIRW-2026-0001", got.ReferenceNumber)
	assert.Equal(t, 10, got.Workdays)
	assert.Len(t, got.Outcomes, 8)

	var bal api.BalanceDTO
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/balance?year=2026", nil, &bal)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "10", bal.DaysUsed)
	assert.Equal(t, "10", bal.DaysRemaining)
}

func TestSubmitRequest_SanctionedCountry_Rejected(t *testing.T) {
	srv := newTestServer(t)

	sub := spainSubmission()
	sub.DestinationCountry = "North Korea"

	var got api.RequestDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/requests", sub, &got)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "rejected", got.Status)
	assert.Contains(t, got.DecisionReason, "sanctions")

	// A rejection never consumes quota.
	var bal api.BalanceDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/balance?year=2026", nil, &bal)
	assert.Equal(t, "0", bal.DaysUsed)
}

func TestSubmitRequest_UnknownCountry_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	sub := spainSubmission()
	sub.DestinationCountry = "Atlantis"

	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/requests", sub, &errResp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, errResp.Error)
}

func TestSubmitRequest_MalformedDates_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	sub := spainSubmission()
	sub.StartDate = "03/02/2026"

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/requests", sub, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRequest_ByIDAndReference(t *testing.T) {
	srv := newTestServer(t)

	var created api.RequestDTO
	doJSON(t, http.MethodPost, srv.URL+"/api/requests", spainSubmission(), &created)

	var byID api.RequestDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/requests/"+created.ID, nil, &byID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, byID.ID)

	var byRef api.RequestDTO
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/requests/"+created.ReferenceNumber, nil, &byRef)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, byRef.ID)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/requests/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// ESCALATION AND REVIEW TESTS
// =============================================================================

func TestSubmitRequest_Exception_EscalatesAndResolves(t *testing.T) {
	// GIVEN: A 15-workday trip flagged as an exception
	// WHEN: Submitted, then approved by a reviewer
	// THEN: Escalated first, approved after, days committed exactly once

	srv := newTestServer(t)

	sub := spainSubmission()
	sub.EndDate = "2026-03-20" // 15 workdays
	sub.IsException = true
	sub.ExceptionReason = "Family relocation support"

	var created api.RequestDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/requests", sub, &created)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "escalated", created.Status)

	// Nothing committed while the review is open.
	var bal api.BalanceDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/balance?year=2026", nil, &bal)
	assert.Equal(t, "0", bal.DaysUsed)

	var pending []api.PendingReviewDTO
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/reviews/pending", nil, &pending)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].RequestID)
	assert.Equal(t, 15, pending[0].Workdays)

	resolve := api.ResolveReviewDTO{Resolution: "approved", Note: "Business-critical.", Reviewer: "gm-reviewer"}
	var resolved api.PendingReviewDTO
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/reviews/"+pending[0].ID+"/resolve", resolve, &resolved)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resolved.Resolved)

	doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/balance?year=2026", nil, &bal)
	assert.Equal(t, "15", bal.DaysUsed)

	var after api.RequestDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/requests/"+created.ID, nil, &after)
	assert.Equal(t, "approved", after.Status)

	// A second resolution must conflict, not double-commit.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/reviews/"+pending[0].ID+"/resolve", resolve, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/balance?year=2026", nil, &bal)
	assert.Equal(t, "15", bal.DaysUsed)
}

func TestResolveReview_InvalidResolution_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	resolve := api.ResolveReviewDTO{Resolution: "maybe", Reviewer: "gm"}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/reviews/whatever/resolve", resolve, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// CANCELLATION TESTS
// =============================================================================

func TestCancelRequest_ReleasesWorkdays(t *testing.T) {
	srv := newTestServer(t)

	var created api.RequestDTO
	doJSON(t, http.MethodPost, srv.URL+"/api/requests", spainSubmission(), &created)
	require.Equal(t, "approved", created.Status)

	var cancelled api.RequestDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/requests/"+created.ID+"/cancel",
		api.CancelRequestDTO{Reason: "Trip postponed."}, &cancelled)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", cancelled.Status)

	var bal api.BalanceDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/balance?year=2026", nil, &bal)
	assert.Equal(t, "0", bal.DaysUsed)

	// Cancelling twice is a conflict, and releases nothing further.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/requests/"+created.ID+"/cancel", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// =============================================================================
// OVERLAP PRE-CHECK TESTS
// =============================================================================

func TestCheckOverlap_FindsNearbyRequests(t *testing.T) {
	srv := newTestServer(t)

	var created api.RequestDTO
	doJSON(t, http.MethodPost, srv.URL+"/api/requests", spainSubmission(), &created)

	// Four days after the approved trip ends: inside the 7-day buffer.
	probe := api.OverlapCheckDTO{EmployeeID: "emp-1", StartDate: "2026-03-17", EndDate: "2026-03-20"}
	var result api.OverlapCheckResultDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/requests/overlap-check", probe, &result)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, result.HasNearby)
	require.Len(t, result.RelatedRequests, 1)
	assert.Equal(t, created.ID, result.RelatedRequests[0].RequestID)
	// 10 prior workdays plus 4 probed: exactly at the limit, no warning.
	assert.Equal(t, 14, result.CombinedWorkdays)
	assert.Empty(t, result.Warning)

	// One more workday tips past the consecutive limit.
	probe = api.OverlapCheckDTO{EmployeeID: "emp-1", StartDate: "2026-03-17", EndDate: "2026-03-23"}
	doJSON(t, http.MethodPost, srv.URL+"/api/requests/overlap-check", probe, &result)
	assert.Equal(t, 15, result.CombinedWorkdays)
	assert.Contains(t, result.Warning, "15 workdays")

	// Months later: clear.
	probe = api.OverlapCheckDTO{EmployeeID: "emp-1", StartDate: "2026-06-01", EndDate: "2026-06-12"}
	result = api.OverlapCheckResultDTO{} // warning is omitempty; don't keep the stale value
	doJSON(t, http.MethodPost, srv.URL+"/api/requests/overlap-check", probe, &result)
	assert.False(t, result.HasNearby)
	assert.Empty(t, result.Warning)
}

// =============================================================================
// REFERENCE DATA AND ADMIN TESTS
// =============================================================================

func TestListBlockedCountries(t *testing.T) {
	srv := newTestServer(t)

	var entries []api.BlockedCountryDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/reference/blocked-countries", nil, &entries)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, entries, 81)

	categories := map[string]int{}
	for _, e := range entries {
		categories[e.Category]++
	}
	assert.Equal(t, 22, categories["sanctions"])
	assert.Equal(t, 59, categories["no_entity"])
}

func TestGetStats(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/api/requests", spainSubmission(), nil)

	rejected := spainSubmission()
	rejected.DestinationCountry = "IR"
	doJSON(t, http.MethodPost, srv.URL+"/api/requests", rejected, nil)

	var stats api.StatsDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/admin/stats", nil, &stats)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 0, stats.OpenReviews)
	assert.InDelta(t, 50.0, stats.ApprovalRate, 0.01)
}
