package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shemshallah/quantum-foam-rng/pkg/config"
	"github.com/shemshallah/quantum-foam-rng/pkg/jobs"
	"github.com/shemshallah/quantum-foam-rng/pkg/server/api"
)

type stubJobService struct{}

func (stubJobService) CreateJob(float64) (string, error) { return "job-1", nil }

func (stubJobService) GetJob(id string) (*jobs.Job, error) {
	return nil, &jobs.NotFoundError{ID: id}
}

func testDeps() *api.Deps {
	return &api.Deps{
		Jobs:            stubJobService{},
		DefaultAngleDeg: 45,
		Ready:           &atomic.Bool{},
	}
}

func TestNewRouter(t *testing.T) {
	router := NewRouter(config.DefaultServerConfig(), testDeps())
	require.NotNil(t, router)
}

func TestNewRouter_HealthzMounted(t *testing.T) {
	router := NewRouter(config.DefaultServerConfig(), testDeps())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}

func TestHealthzHandler_AlwaysReturnsOK(t *testing.T) {
	for range 5 {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()

		HealthzHandler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "OK", w.Body.String())
	}
}

func TestReadyz_FollowsReadyFlag(t *testing.T) {
	deps := testDeps()
	router := NewRouter(config.DefaultServerConfig(), deps)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	deps.Ready.Store(true)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Ready", w.Body.String())
}

func TestRouter_JobRoutesMounted(t *testing.T) {
	router := NewRouter(config.DefaultServerConfig(), testDeps())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(`{"angle": 45}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp api.CreatedResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, "job-1", resp.JobID)
}

func TestRouter_UnknownJobReturnsEnvelope(t *testing.T) {
	router := NewRouter(config.DefaultServerConfig(), testDeps())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, "JOB_NOT_FOUND", resp.Code)
}

func TestRouter_APIDisabled(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.APIEnabled = false
	router := NewRouter(cfg, testDeps())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Health stays up regardless.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CORSHeaders(t *testing.T) {
	router := NewRouter(config.DefaultServerConfig(), testDeps())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(config.DefaultServerConfig(), testDeps())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
}
