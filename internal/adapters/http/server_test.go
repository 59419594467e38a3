package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"prospect/internal/domain"
	"prospect/internal/services/analysis"
)

type fakeSearch struct {
	params  domain.SearchParams
	results []domain.BusinessView
	err     error
}

func (f *fakeSearch) Search(ctx context.Context, p domain.SearchParams) ([]domain.BusinessView, error) {
	f.params = p
	return f.results, f.err
}

type fakeAnalysis struct {
	breakdown domain.AnalysisBreakdown
	view      domain.BusinessView
	err       error
}

func (f *fakeAnalysis) Analyze(ctx context.Context, businessID string) (domain.AnalysisBreakdown, error) {
	return f.breakdown, f.err
}

func (f *fakeAnalysis) View(ctx context.Context, businessID string) (domain.BusinessView, error) {
	return f.view, f.err
}

type fakeStatuses struct {
	id      string
	checked bool
	err     error
}

func (f *fakeStatuses) SetChecked(ctx context.Context, id string, checked bool) (domain.Business, error) {
	f.id = id
	f.checked = checked
	return domain.Business{ID: id, Checked: checked}, f.err
}

func newTestServer(search *fakeSearch, analysisSvc *fakeAnalysis, statuses *fakeStatuses) http.Handler {
	if search == nil {
		search = &fakeSearch{}
	}
	if analysisSvc == nil {
		analysisSvc = &fakeAnalysis{}
	}
	if statuses == nil {
		statuses = &fakeStatuses{}
	}
	return New(search, analysisSvc, statuses, log.New(io.Discard, "", 0)).Routes()
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doJSON(t, newTestServer(nil, nil, nil), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSearchRequiresLocation(t *testing.T) {
	rec := doJSON(t, newTestServer(nil, nil, nil), http.MethodGet, "/api/search?category=plumber", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "location is required")
}

func TestSearchPassesParams(t *testing.T) {
	search := &fakeSearch{results: []domain.BusinessView{{ID: "b1", Name: "Acme", Categories: []string{}}}}
	rec := doJSON(t, newTestServer(search, nil, nil), http.MethodGet,
		"/api/search?location=Melbourne&category=plumber&keywords=emergency&limit=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, domain.SearchParams{
		Location: "Melbourne",
		Category: "plumber",
		Keywords: "emergency",
		Limit:    5,
	}, search.params)

	var body struct {
		Businesses []domain.BusinessView `json:"businesses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Businesses, 1)
	require.Equal(t, "Acme", body.Businesses[0].Name)
}

func TestSearchDefaultLimit(t *testing.T) {
	search := &fakeSearch{}
	doJSON(t, newTestServer(search, nil, nil), http.MethodGet, "/api/search?location=Melbourne", "")
	require.Equal(t, 20, search.params.Limit)
}

func TestSearchRejectsOversizedLimit(t *testing.T) {
	rec := doJSON(t, newTestServer(nil, nil, nil), http.MethodGet, "/api/search?location=Melbourne&limit=500", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchUpstreamError(t *testing.T) {
	search := &fakeSearch{err: errors.New("places api: REQUEST_DENIED")}
	rec := doJSON(t, newTestServer(search, nil, nil), http.MethodGet, "/api/search?location=Melbourne", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAnalyseHappyPath(t *testing.T) {
	score := 59
	svc := &fakeAnalysis{breakdown: domain.AnalysisBreakdown{FinalScore: &score, WeaknessNotes: []string{}}}
	rec := doJSON(t, newTestServer(nil, svc, nil), http.MethodPost, "/api/analyse", `{"business_id":"b1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		FinalScore *int                      `json:"final_score"`
		Breakdown  *domain.AnalysisBreakdown `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 59, *body.FinalScore)
	require.NotNil(t, body.Breakdown)
}

func TestAnalyseValidation(t *testing.T) {
	rec := doJSON(t, newTestServer(nil, nil, nil), http.MethodPost, "/api/analyse", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "missing required fields")

	rec = doJSON(t, newTestServer(nil, nil, nil), http.MethodPost, "/api/analyse", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid request body")
}

func TestAnalyseErrorMapping(t *testing.T) {
	rec := doJSON(t, newTestServer(nil, &fakeAnalysis{err: analysis.ErrNotFound}, nil),
		http.MethodPost, "/api/analyse", `{"business_id":"missing"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, newTestServer(nil, &fakeAnalysis{err: analysis.ErrNoWebsite}, nil),
		http.MethodPost, "/api/analyse", `{"business_id":"b1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "business has no website")

	rec = doJSON(t, newTestServer(nil, &fakeAnalysis{err: errors.New("pg down")}, nil),
		http.MethodPost, "/api/analyse", `{"business_id":"b1"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatusUpdate(t *testing.T) {
	statuses := &fakeStatuses{}
	rec := doJSON(t, newTestServer(nil, nil, statuses), http.MethodPatch,
		"/api/status", `{"business_id":"b1","checked":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "b1", statuses.id)
	require.True(t, statuses.checked)
	require.JSONEq(t, `{"success":true,"checked":true}`, rec.Body.String())
}

func TestStatusUpdateAcceptsFalse(t *testing.T) {
	rec := doJSON(t, newTestServer(nil, nil, nil), http.MethodPatch,
		"/api/status", `{"business_id":"b1","checked":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"checked":false}`, rec.Body.String())
}

func TestStatusUpdateValidation(t *testing.T) {
	rec := doJSON(t, newTestServer(nil, nil, nil), http.MethodPatch,
		"/api/status", `{"business_id":"b1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusUpdateUnknownBusiness(t *testing.T) {
	statuses := &fakeStatuses{err: errors.New("no rows")}
	rec := doJSON(t, newTestServer(nil, nil, statuses), http.MethodPatch,
		"/api/status", `{"business_id":"missing","checked":true}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBusiness(t *testing.T) {
	svc := &fakeAnalysis{view: domain.BusinessView{ID: "b1", Name: "Acme", Categories: []string{"plumber"}}}
	rec := doJSON(t, newTestServer(nil, svc, nil), http.MethodGet, "/api/businesses/b1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var view domain.BusinessView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "Acme", view.Name)
}

func TestGetBusinessNotFound(t *testing.T) {
	svc := &fakeAnalysis{err: analysis.ErrNotFound}
	rec := doJSON(t, newTestServer(nil, svc, nil), http.MethodGet, "/api/businesses/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
