package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/dto"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/service"
	pkgerrors "github.com/shinystaratnight/endless-backend-sub001/backend/pkg/errors"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testShiftID     = "5b0f4c2e-7a43-4a8e-9d0e-3f6c1b2a9e10"
	testCandidateID = "0c8d6e1f-2b3a-4c5d-8e9f-a0b1c2d3e4f5"
)

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock JobOfferService ──

type mockJobOfferService struct {
	result      *dto.JobOfferResponse
	err         error
	quota       *dto.QuotaResponse
	gotActor    string
	gotPositive *bool
	gotCreate   *dto.CreateJobOfferRequest
}

func (m *mockJobOfferService) Create(_ context.Context, req *dto.CreateJobOfferRequest, actorID string) (*dto.JobOfferResponse, error) {
	m.gotCreate, m.gotActor = req, actorID
	return m.result, m.err
}
func (m *mockJobOfferService) Get(_ context.Context, _ string) (*dto.JobOfferResponse, error) {
	return m.result, m.err
}
func (m *mockJobOfferService) Accept(_ context.Context, _, actorID string) (*dto.JobOfferResponse, error) {
	m.gotActor = actorID
	return m.result, m.err
}
func (m *mockJobOfferService) Cancel(_ context.Context, _, actorID string) (*dto.JobOfferResponse, error) {
	m.gotActor = actorID
	return m.result, m.err
}
func (m *mockJobOfferService) Resend(_ context.Context, _, actorID string) (*dto.JobOfferResponse, error) {
	m.gotActor = actorID
	return m.result, m.err
}
func (m *mockJobOfferService) ProcessReply(_ context.Context, _ string, positive *bool, actorID string) (*dto.JobOfferResponse, error) {
	m.gotPositive, m.gotActor = positive, actorID
	return m.result, m.err
}
func (m *mockJobOfferService) IsQuotaFilled(_ context.Context, _ string) (*dto.QuotaResponse, error) {
	return m.quota, m.err
}
func (m *mockJobOfferService) HandleFollowUp(_ context.Context, _, _ string) error { return nil }
func (m *mockJobOfferService) HandleRejection(_ context.Context, _ string) error { return nil }
func (m *mockJobOfferService) HandleCancellation(_ context.Context, _ string, _ bool) error { return nil }

// ── Mock TimeSheetService ──

type mockTimeSheetService struct {
	result       *dto.TimeSheetResponse
	history      []dto.TimeSheetStateLogResponse
	err          error
	gotConfirmed *bool
	gotTimes     *dto.TimeSheetTimesRequest
}

func (m *mockTimeSheetService) Get(_ context.Context, _ string) (*dto.TimeSheetResponse, error) {
	return m.result, m.err
}
func (m *mockTimeSheetService) History(_ context.Context, _ string) ([]dto.TimeSheetStateLogResponse, error) {
	return m.history, m.err
}
func (m *mockTimeSheetService) ConfirmAttendance(_ context.Context, _ string, confirmed bool, _ string) (*dto.TimeSheetResponse, error) {
	m.gotConfirmed = &confirmed
	return m.result, m.err
}
func (m *mockTimeSheetService) Submit(_ context.Context, _ string, req *dto.TimeSheetTimesRequest, _ string) (*dto.TimeSheetResponse, error) {
	m.gotTimes = req
	return m.result, m.err
}
func (m *mockTimeSheetService) Modify(_ context.Context, _ string, req *dto.TimeSheetTimesRequest, _ string) (*dto.TimeSheetResponse, error) {
	m.gotTimes = req
	return m.result, m.err
}
func (m *mockTimeSheetService) Approve(_ context.Context, _, _ string) (*dto.TimeSheetResponse, error) {
	return m.result, m.err
}
func (m *mockTimeSheetService) HandlePlacementNotice(_ context.Context, _ string) error { return nil }
func (m *mockTimeSheetService) HandleAttendanceCheck(_ context.Context, _ string) error { return nil }
func (m *mockTimeSheetService) HandleShiftStarted(_ context.Context, _ string) error { return nil }
func (m *mockTimeSheetService) HandleAutoApprove(_ context.Context, _ string) error { return nil }

// ── Mock PricingService ──

type mockPricingService struct {
	calc     *dto.PricingCalcResponse
	lines    *dto.PayLinesResponse
	err      error
	gotScope string
}

func (m *mockPricingService) Calc(_ context.Context, _ *dto.PricingCalcRequest) (*dto.PricingCalcResponse, error) {
	return m.calc, m.err
}
func (m *mockPricingService) PayLines(_ context.Context, _, scope string) (*dto.PayLinesResponse, error) {
	m.gotScope = scope
	return m.lines, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
	gotQuery *dto.PayLinesExportQuery
}

func (m *mockExportService) ExportPayLines(_ context.Context, q *dto.PayLinesExportQuery) (*bytes.Buffer, string, error) {
	m.gotQuery = q
	return m.buf, m.filename, m.err
}

// ── Mock CalendarService ──

type mockCalendarService struct {
	ics string
	err error
}

func (m *mockCalendarService) CandidateCalendar(_ context.Context, _ string) (string, error) {
	return m.ics, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() (*gin.Engine, *gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, r := gin.CreateTestContext(w)
	return r, c, w
}

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "admin")
}

// authedRouter stands in for JWTAuth
func authedRouter(role string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		setAuth(c)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	})
	return r
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func jsonRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// JobOfferHandler Tests
// ═══════════════════════════════════════════════════════════

func TestJobOfferHandler_Create_Success(t *testing.T) {
	mock := &mockJobOfferService{result: &dto.JobOfferResponse{ID: "jo-1", Status: "undefined"}}
	h := NewJobOfferHandler(mock)

	_, _, w := setupGin()
	req := jsonRequest("POST", "/job-offers", jsonBody(dto.CreateJobOfferRequest{
		ShiftID:     testShiftID,
		CandidateID: testCandidateID,
	}))

	r := authedRouter("recruiter")
	r.POST("/job-offers", h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mock.gotActor != "test-user-id" {
		t.Errorf("expected actor test-user-id, got %s", mock.gotActor)
	}
	if mock.gotCreate.ShiftID != testShiftID {
		t.Errorf("expected shift %s, got %s", testShiftID, mock.gotCreate.ShiftID)
	}
}

func TestJobOfferHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		body io.Reader
	}{
		{"bad json", strings.NewReader("not json")},
		{"missing candidate", jsonBody(map[string]string{"shift_id": testShiftID})},
		{"not a uuid", jsonBody(map[string]string{"shift_id": "abc", "candidate_id": testCandidateID})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockJobOfferService{}
			h := NewJobOfferHandler(mock)

			_, _, w := setupGin()
			r := authedRouter("")
			r.POST("/job-offers", h.Create)
			r.ServeHTTP(w, jsonRequest("POST", "/job-offers", tt.body))

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if resp := parseResponse(w); resp.Code != 10001 {
				t.Errorf("expected code 10001, got %d", resp.Code)
			}
			if mock.gotCreate != nil {
				t.Error("service must not be called")
			}
		})
	}
}

func TestJobOfferHandler_Create_Unauthenticated(t *testing.T) {
	h := NewJobOfferHandler(&mockJobOfferService{})

	_, _, w := setupGin()
	r := gin.New()
	r.POST("/job-offers", h.Create)
	r.ServeHTTP(w, jsonRequest("POST", "/job-offers", jsonBody(dto.CreateJobOfferRequest{
		ShiftID: testShiftID, CandidateID: testCandidateID,
	})))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJobOfferHandler_Reply(t *testing.T) {
	yes := true
	mock := &mockJobOfferService{result: &dto.JobOfferResponse{ID: "jo-1", Status: "accepted"}}
	h := NewJobOfferHandler(mock)

	_, _, w := setupGin()
	r := authedRouter("")
	r.POST("/job-offers/:id/reply", h.Reply)
	r.ServeHTTP(w, jsonRequest("POST", "/job-offers/jo-1/reply", jsonBody(dto.JobOfferReplyRequest{Positive: &yes})))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotPositive == nil || !*mock.gotPositive {
		t.Errorf("expected positive reply to reach the service")
	}
}

func TestJobOfferHandler_Reply_Ambiguous(t *testing.T) {
	mock := &mockJobOfferService{err: service.ErrAmbiguousReply}
	h := NewJobOfferHandler(mock)

	_, _, w := setupGin()
	r := authedRouter("")
	r.POST("/job-offers/:id/reply", h.Reply)
	r.ServeHTTP(w, jsonRequest("POST", "/job-offers/jo-1/reply", strings.NewReader(`{"positive":null}`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if mock.gotPositive != nil {
		t.Errorf("expected nil reply, got %v", *mock.gotPositive)
	}
	if resp := parseResponse(w); resp.Code != 30007 {
		t.Errorf("expected code 30007, got %d", resp.Code)
	}
}

func TestJobOfferHandler_Quota(t *testing.T) {
	mock := &mockJobOfferService{quota: &dto.QuotaResponse{ShiftID: "s1", Workers: 2, Accepted: 2, Filled: true}}
	h := NewJobOfferHandler(mock)

	_, _, w := setupGin()
	r := authedRouter("")
	r.GET("/job-offers/:id/quota", h.Quota)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/job-offers/jo-1/quota", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data dto.QuotaResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if !body.Data.Filled || body.Data.Accepted != 2 {
		t.Errorf("unexpected quota %+v", body.Data)
	}
}

func TestJobOfferHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrJobOfferNotFound, 404, 30001},
		{"ShiftNotFound", service.ErrShiftNotFound, 404, 30002},
		{"CandidateNotFound", service.ErrCandidateNotFound, 404, 30003},
		{"Fulfilled", service.ErrShiftFulfilled, 409, 30004},
		{"Cancelled", service.ErrOfferCancelled, 409, 30005},
		{"Accepted", service.ErrOfferAccepted, 409, 30006},
		{"Duplicate", service.ErrDuplicateOffer, 409, 30008},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockJobOfferService{err: tt.err}
			h := NewJobOfferHandler(mock)

			_, _, w := setupGin()
			r := authedRouter("")
			r.POST("/job-offers/:id/accept", h.Accept)
			r.ServeHTTP(w, httptest.NewRequest("POST", "/job-offers/jo-1/accept", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestJobOfferHandler_CancelAndResend(t *testing.T) {
	mock := &mockJobOfferService{result: &dto.JobOfferResponse{ID: "jo-1", Status: "cancelled"}}
	h := NewJobOfferHandler(mock)

	r := authedRouter("")
	r.POST("/job-offers/:id/cancel", h.Cancel)
	r.POST("/job-offers/:id/resend", h.Resend)

	for _, path := range []string{"/job-offers/jo-1/cancel", "/job-offers/jo-1/resend"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// TimeSheetHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTimeSheetHandler_Attendance(t *testing.T) {
	mock := &mockTimeSheetService{result: &dto.TimeSheetResponse{ID: "ts-1", Status: "check_confirmed"}}
	h := NewTimeSheetHandler(mock, &mockPricingService{})

	_, _, w := setupGin()
	r := authedRouter("candidate")
	r.POST("/timesheets/:id/attendance", h.Attendance)
	r.ServeHTTP(w, jsonRequest("POST", "/timesheets/ts-1/attendance", strings.NewReader(`{"confirmed":false}`)))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotConfirmed == nil || *mock.gotConfirmed {
		t.Errorf("expected confirmed=false to reach the service")
	}
}

func TestTimeSheetHandler_Attendance_Missing(t *testing.T) {
	mock := &mockTimeSheetService{}
	h := NewTimeSheetHandler(mock, &mockPricingService{})

	_, _, w := setupGin()
	r := authedRouter("candidate")
	r.POST("/timesheets/:id/attendance", h.Attendance)
	r.ServeHTTP(w, jsonRequest("POST", "/timesheets/ts-1/attendance", strings.NewReader(`{}`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if mock.gotConfirmed != nil {
		t.Error("service must not be called")
	}
}

func TestTimeSheetHandler_Submit(t *testing.T) {
	mock := &mockTimeSheetService{result: &dto.TimeSheetResponse{ID: "ts-1", Status: "approval_pending"}}
	h := NewTimeSheetHandler(mock, &mockPricingService{})

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	_, _, w := setupGin()
	r := authedRouter("candidate")
	r.POST("/timesheets/:id/submit", h.Submit)
	r.ServeHTTP(w, jsonRequest("POST", "/timesheets/ts-1/submit", jsonBody(dto.TimeSheetTimesRequest{
		ShiftStartedAt: start,
		ShiftEndedAt:   start.Add(8 * time.Hour),
	})))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if mock.gotTimes == nil || !mock.gotTimes.ShiftStartedAt.Equal(start) {
		t.Errorf("expected times to reach the service, got %+v", mock.gotTimes)
	}
}

func TestTimeSheetHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrTimeSheetNotFound, 404, 31001},
		{"Transition", service.ErrTransitionNotAllowed, 409, 31002},
		{"Range", service.ErrInvalidTimeRange, 400, 31003},
		{"Version", pkgerrors.ErrOptimisticLock, 409, 31004},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTimeSheetHandler(&mockTimeSheetService{err: tt.err}, &mockPricingService{})

			_, _, w := setupGin()
			r := authedRouter("supervisor")
			r.POST("/timesheets/:id/approve", h.Approve)
			r.ServeHTTP(w, httptest.NewRequest("POST", "/timesheets/ts-1/approve", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestTimeSheetHandler_PayLines_DefaultScope(t *testing.T) {
	pricing := &mockPricingService{lines: &dto.PayLinesResponse{TimeSheetID: "ts-1", Total: decimal.NewFromInt(80)}}
	h := NewTimeSheetHandler(&mockTimeSheetService{}, pricing)

	r := authedRouter("")
	r.GET("/timesheets/:id/pay-lines", h.PayLines)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/timesheets/ts-1/pay-lines", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if pricing.gotScope != "candidate" {
		t.Errorf("expected default scope candidate, got %q", pricing.gotScope)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/timesheets/ts-1/pay-lines?scope=supplier", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown scope, got %d", w.Code)
	}
}

func TestTimeSheetHandler_PayLines_Incomplete(t *testing.T) {
	h := NewTimeSheetHandler(&mockTimeSheetService{}, &mockPricingService{err: service.ErrTimeSheetIncomplete})

	_, _, w := setupGin()
	r := authedRouter("")
	r.GET("/timesheets/:id/pay-lines", h.PayLines)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/timesheets/ts-1/pay-lines?scope=company", nil))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// PricingHandler Tests
// ═══════════════════════════════════════════════════════════

func TestPricingHandler_Calc(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		body       string
		wantStatus int
	}{
		{"ok", nil, `{"scope":"company","shift_started_at":"2026-03-10T09:00:00Z","shift_ended_at":"2026-03-10T17:00:00Z"}`, 200},
		{"bad scope", nil, `{"scope":"supplier","shift_started_at":"2026-03-10T09:00:00Z","shift_ended_at":"2026-03-10T17:00:00Z"}`, 400},
		{"range", service.ErrInvalidTimeRange, `{"scope":"company","shift_started_at":"2026-03-10T09:00:00Z","shift_ended_at":"2026-03-10T08:00:00Z"}`, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockPricingService{calc: &dto.PricingCalcResponse{WorkedHours: decimal.NewFromInt(8)}, err: tt.err}
			h := NewPricingHandler(mock)

			_, _, w := setupGin()
			r := authedRouter("")
			r.POST("/pricing/calc", h.Calc)
			r.ServeHTTP(w, jsonRequest("POST", "/pricing/calc", strings.NewReader(tt.body)))

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("excel content"),
		filename: "pay-lines_candidate_2026-03-01_2026-04-01.xlsx",
	}
	h := NewExportHandler(mock)

	_, _, w := setupGin()
	r := authedRouter("")
	r.GET("/exports/pay-lines", h.ExportPayLines)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/exports/pay-lines?from=2026-03-01&to=2026-04-01&scope=company", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "pay-lines_candidate_2026-03-01_2026-04-01.xlsx") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if mock.gotQuery.Scope != "company" || mock.gotQuery.From != "2026-03-01" {
		t.Errorf("unexpected query %+v", mock.gotQuery)
	}
}

func TestExportHandler_MissingRange(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	_, _, w := setupGin()
	r := authedRouter("")
	r.GET("/exports/pay-lines", h.ExportPayLines)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/exports/pay-lines?from=2026-03-01", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExportHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   int
	}{
		{service.ErrExportInvalidRange, 400, 33001},
		{service.ErrExportNoTimeSheets, 404, 33002},
		{service.ErrExportGenerateFail, 500, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewExportHandler(&mockExportService{err: tt.err})

			_, _, w := setupGin()
			r := authedRouter("")
			r.GET("/exports/pay-lines", h.ExportPayLines)
			r.ServeHTTP(w, httptest.NewRequest("GET", "/exports/pay-lines?from=2026-03-01&to=2026-04-01", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// CalendarHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCalendarHandler_CandidateCalendar(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{ics: "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"})

	_, _, w := setupGin()
	r := authedRouter("recruiter")
	r.GET("/candidates/:id/calendar.ics", h.CandidateCalendar)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/candidates/c1/calendar.ics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected content type %s", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "BEGIN:VCALENDAR") {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestCalendarHandler_CandidateReadsOnlyOwn(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{ics: "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"})

	r := authedRouter("candidate")
	r.GET("/candidates/:id/calendar.ics", h.CandidateCalendar)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/candidates/someone-else/calendar.ics", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/candidates/test-user-id/calendar.ics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for own calendar, got %d", w.Code)
	}
}

func TestCalendarHandler_NotFound(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{err: service.ErrCandidateNotFound})

	_, _, w := setupGin()
	r := authedRouter("admin")
	r.GET("/candidates/:id/calendar.ics", h.CandidateCalendar)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/candidates/c1/calendar.ics", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 34001 {
		t.Errorf("expected code 34001, got %d", resp.Code)
	}
}
