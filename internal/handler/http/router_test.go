package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/edipayslip"
	"github.com/cmlabs-hris/edi-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/edi-backend-go/internal/domain/radian"
	"github.com/cmlabs-hris/edi-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/metrics"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

// ========== FAKES ==========

type fakeRadianService struct {
	radian.RadianService
	postErr   error
	postIDs   []string
	companyID string
}

func (f *fakeRadianService) Post(ctx context.Context, ids []string) ([]radian.EventResponse, error) {
	_, claims, _ := jwtauth.FromContext(ctx)
	f.companyID, _ = claims["company_id"].(string)
	f.postIDs = ids
	if f.postErr != nil {
		return nil, f.postErr
	}
	out := make([]radian.EventResponse, 0, len(ids))
	for _, id := range ids {
		out = append(out, radian.EventResponse{ID: id, Name: "E03145", State: string(radian.StatePosted)})
	}
	return out, nil
}

func (f *fakeRadianService) GetEvent(ctx context.Context, id string) (radian.EventResponse, error) {
	if id == "missing" {
		return radian.EventResponse{}, radian.ErrEventNotFound
	}
	return radian.EventResponse{ID: id}, nil
}

func (f *fakeRadianService) UpdateEvent(ctx context.Context, req radian.UpdateEventRequest) (radian.EventResponse, error) {
	return radian.EventResponse{}, radian.ErrEventNotDraft
}

func (f *fakeRadianService) ListEvents(ctx context.Context, filter radian.EventFilter) (radian.ListEventResponse, error) {
	return radian.ListEventResponse{Data: []radian.EventResponse{}, TotalCount: 41, Page: filter.Page, Limit: filter.Limit}, nil
}

type fakeEdiPayslipService struct {
	edipayslip.EdiPayslipService
	generated edipayslip.GenerateRequest
}

func (f *fakeEdiPayslipService) Generate(ctx context.Context, req edipayslip.GenerateRequest) (edipayslip.GenerateResponse, error) {
	if err := req.Validate(); err != nil {
		return edipayslip.GenerateResponse{}, err
	}
	f.generated = req
	return edipayslip.GenerateResponse{View: edipayslip.ListView(), Payslips: []edipayslip.EdiPayslipResponse{}}, nil
}

func (f *fakeEdiPayslipService) GetEdiPayslip(ctx context.Context, id string) (edipayslip.EdiPayslipDetailResponse, error) {
	return edipayslip.EdiPayslipDetailResponse{}, edipayslip.ErrEdiPayslipNotFound
}

type fakeNotificationService struct {
	notification.Service
}

// ========== HELPERS ==========

func newTestRouter(t *testing.T) (http.Handler, *fakeRadianService, *fakeEdiPayslipService, jwt.Service) {
	t.Helper()
	jwtService := jwt.NewJWTService(handlerTestSecret, "1h")
	radianSvc := &fakeRadianService{}
	ediSvc := &fakeEdiPayslipService{}
	router := NewRouter(RouterOptions{Env: "test", Version: "test", LogLevel: slog.LevelError}, jwtService, Handlers{
		Radian:       NewRadianHandler(radianSvc),
		EdiPayslip:   NewEdiPayslipHandler(ediSvc),
		Notification: NewNotificationHandler(&fakeNotificationService{}, jwtService),
		Metrics:      metrics.New().Handler(),
	})
	return router, radianSvc, ediSvc, jwtService
}

func accessToken(t *testing.T, svc jwt.Service, companyID string) string {
	t.Helper()
	token, _, err := svc.GenerateAccessToken("user-1", companyID)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp response.Response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

// ========== TESTS ==========

func TestRouter_RequiresToken(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	rec, resp := doRequest(t, router, http.MethodGet, "/api/v1/radian-events", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)
}

func TestRouter_RequiresCompanyClaim(t *testing.T) {
	router, _, _, jwtService := newTestRouter(t)

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/radian-events", accessToken(t, jwtService, ""), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_RejectsSSETokenAsBearer(t *testing.T) {
	router, _, _, jwtService := newTestRouter(t)
	sseToken, _, err := jwtService.GenerateSSEToken("user-1", "company-1")
	require.NoError(t, err)

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/radian-events", sseToken, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRadianHandler_Post(t *testing.T) {
	router, radianSvc, _, jwtService := newTestRouter(t)

	rec, resp := doRequest(t, router, http.MethodPost, "/api/v1/radian-events/post",
		accessToken(t, jwtService, "company-1"), radian.EventIDsRequest{IDs: []string{"ev-1", "ev-2"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"ev-1", "ev-2"}, radianSvc.postIDs)
	assert.Equal(t, "company-1", radianSvc.companyID)
}

func TestRadianHandler_PostRequiresIDs(t *testing.T) {
	router, radianSvc, _, jwtService := newTestRouter(t)

	rec, resp := doRequest(t, router, http.MethodPost, "/api/v1/radian-events/post",
		accessToken(t, jwtService, "company-1"), radian.EventIDsRequest{})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Details, "ids")
	assert.Nil(t, radianSvc.postIDs)
}

func TestRadianHandler_PostErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "precondition inside submission",
			err:      &radian.IntegrationError{EventID: "ev-1", Err: radian.ErrRejectionConceptRequired},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "PRECONDITION_FAILED",
		},
		{
			name:     "gateway rejection",
			err:      &radian.IntegrationError{EventID: "ev-1", Err: &radian.GatewayError{Message: radian.MsgAuthentication}},
			wantCode: http.StatusBadGateway,
			wantErr:  "INTEGRATION_ERROR",
		},
		{
			name:     "wrong sequence",
			err:      radian.ErrSequenceWrong,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "PRECONDITION_FAILED",
		},
		{
			name:     "missing event",
			err:      radian.ErrEventNotFound,
			wantCode: http.StatusNotFound,
			wantErr:  "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, radianSvc, _, jwtService := newTestRouter(t)
			radianSvc.postErr = tt.err

			rec, resp := doRequest(t, router, http.MethodPost, "/api/v1/radian-events/post",
				accessToken(t, jwtService, "company-1"), radian.EventIDsRequest{IDs: []string{"ev-1"}})

			assert.Equal(t, tt.wantCode, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
		})
	}
}

func TestRadianHandler_GetAndUpdate(t *testing.T) {
	router, _, _, jwtService := newTestRouter(t)
	token := accessToken(t, jwtService, "company-1")

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/radian-events/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doRequest(t, router, http.MethodPut, "/api/v1/radian-events/ev-1", token, radian.UpdateEventRequest{})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRadianHandler_ListMeta(t *testing.T) {
	router, _, _, jwtService := newTestRouter(t)

	rec, resp := doRequest(t, router, http.MethodGet, "/api/v1/radian-events?page=2&limit=20",
		accessToken(t, jwtService, "company-1"), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, int64(41), resp.Meta.TotalItems)
}

func TestEdiPayslipHandler_Generate(t *testing.T) {
	router, _, ediSvc, jwtService := newTestRouter(t)
	token := accessToken(t, jwtService, "company-1")

	rec, resp := doRequest(t, router, http.MethodPost, "/api/v1/edi-payslips/generate", token,
		edipayslip.GenerateRequest{Year: 2024, Month: 3})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, edipayslip.GenerateRequest{Year: 2024, Month: 3}, ediSvc.generated)

	rec, _ = doRequest(t, router, http.MethodPost, "/api/v1/edi-payslips/generate", token,
		edipayslip.GenerateRequest{Year: 2024, Month: 13})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = doRequest(t, router, http.MethodGet, "/api/v1/edi-payslips/edi-1", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationHandler_StreamRequiresToken(t *testing.T) {
	router, _, _, jwtService := newTestRouter(t)

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/notifications/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doRequest(t, router, http.MethodGet,
		"/api/v1/notifications/stream?token="+accessToken(t, jwtService, "company-1"), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	rec, _ := doRequest(t, router, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
