package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/intake-api/internal/handler"
	patienthandler "github.com/jwalitptl/intake-api/internal/handler/patient"
	"github.com/jwalitptl/intake-api/internal/middleware"
	"github.com/jwalitptl/intake-api/internal/repository/memory"
	"github.com/jwalitptl/intake-api/internal/service/patient"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

func newTestRouter(t *testing.T, cfg RouterConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("intake", reg)
	svc := patient.NewService(memory.NewPatientRepository(nil), nil)

	r := NewRouter(logger.Nop(), m, handler.NewHandler(nil, reg), patienthandler.NewHandler(svc), cfg)
	return r.Engine()
}

func defaultConfig() RouterConfig {
	return RouterConfig{
		CORSConfig:     middleware.DefaultCORSConfig(),
		MaxBodyBytes:   1 << 20,
		MetricsEnabled: true,
		MetricsPath:    "/metrics",
	}
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t, defaultConfig())

	w := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)

	w = serve(r, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/api/patients", `{"firstName":"Ada","lastName":"Lovelace","phoneNumber":"5551234567"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = serve(r, http.MethodGet, "/api/patients", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"firstName":"Ada"`)

	w = serve(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `intake_http_requests_total{method="POST",path="/api/patients",status="201"} 1`)
}

func TestRouter_BodyLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxBodyBytes = 16
	r := newTestRouter(t, cfg)

	w := serve(r, http.MethodPost, "/api/patients", `{"firstName":"a much longer body than allowed"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouter_BodyLimitUnknownLength(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxBodyBytes = 16
	r := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader(`{"firstName":"a much longer body than allowed"}`))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"PayloadTooLarge"}`, w.Body.String())
}

func TestRouter_RateLimitOnlyGuardsAPI(t *testing.T) {
	cfg := defaultConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimiter = middleware.RateLimiterConfig{Rate: rate.Every(time.Hour), Burst: 1, TTL: time.Minute}
	r := newTestRouter(t, cfg)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/patients", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/api/patients", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
}

func TestRouter_MetricsDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.MetricsEnabled = false
	r := newTestRouter(t, cfg)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/metrics", "").Code)
}
