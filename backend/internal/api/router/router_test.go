package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shinystaratnight/endless-backend-sub001/backend/config"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/api/handler"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/jwt"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "test", BodyLimit: 1 << 20},
		Auth:   config.AuthConfig{JWTSecret: "router-test-secret-0123456789", Issuer: "staffline"},
	}
}

// handlers are never reached in these tests
func emptyHandler() *handler.Handler {
	return &handler.Handler{
		JobOffer:  handler.NewJobOfferHandler(nil),
		TimeSheet: handler.NewTimeSheetHandler(nil, nil),
		Pricing:   handler.NewPricingHandler(nil),
		Export:    handler.NewExportHandler(nil),
		Calendar:  handler.NewCalendarHandler(nil),
	}
}

func TestSetup_Health(t *testing.T) {
	cfg := testConfig()
	r := Setup(cfg, emptyHandler(), jwt.NewManager(&cfg.Auth), nil, zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSetup_RequiresToken(t *testing.T) {
	cfg := testConfig()
	r := Setup(cfg, emptyHandler(), jwt.NewManager(&cfg.Auth), nil, zap.NewNop())

	for _, path := range []string{"/api/v1/job-offers/x", "/api/v1/timesheets/x", "/api/v1/exports/pay-lines"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestSetup_CandidateCannotCreateOffers(t *testing.T) {
	cfg := testConfig()
	mgr := jwt.NewManager(&cfg.Auth)
	r := Setup(cfg, emptyHandler(), mgr, nil, zap.NewNop())

	token, err := mgr.GenerateToken("cand-1", jwt.RoleCandidate, time.Minute)
	require.NoError(t, err)

	for _, tc := range []struct{ method, path string }{
		{"POST", "/api/v1/job-offers"},
		{"POST", "/api/v1/timesheets/x/approve"},
		{"POST", "/api/v1/pricing/calc"},
		{"GET", "/api/v1/exports/pay-lines"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.path)
	}
}
