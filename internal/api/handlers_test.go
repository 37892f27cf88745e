package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/bootstrap"
)

// noopLogger returns a slog.Logger that discards all output — keeps test output clean.
func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeRunner is a test double that implements runnerService.
type fakeRunner struct {
	inProgress bool
	ready      bool
	deepProbes map[string]bootstrap.ProbeResult
	runErr     error
	// runDelay simulates a slow bootstrap so async tests can verify 202.
	runDelay time.Duration
}

func (f *fakeRunner) IsBootstrapInProgress() bool {
	return f.inProgress
}

func (f *fakeRunner) IsReady() bool {
	return f.ready
}

func (f *fakeRunner) Run(_ context.Context) (*bootstrap.RunResult, error) {
	if f.runDelay > 0 {
		time.Sleep(f.runDelay)
	}
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &bootstrap.RunResult{Status: bootstrap.StatusOK}, nil
}

func (f *fakeRunner) RunDeepHealth(_ context.Context) map[string]bootstrap.ProbeResult {
	if f.deepProbes != nil {
		return f.deepProbes
	}
	return map[string]bootstrap.ProbeResult{}
}

// newTestEngine builds a minimal Gin engine with only the given handler — no
// middleware — for isolated handler testing.
func newTestEngine(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, h)
	return r
}

// --- Bootstrap handler ---

func TestBootstrap_202WhenNotRunning(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{inProgress: false, runDelay: 50 * time.Millisecond}
	handler := &Handler{runner: fake}

	engine := newTestEngine(http.MethodPost, "/api/v1/bootstrap", handler.Bootstrap)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bootstrap", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "accepted", body["status"])
}

func TestBootstrap_409WhenInProgress(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{inProgress: true}
	handler := &Handler{runner: fake}

	engine := newTestEngine(http.MethodPost, "/api/v1/bootstrap", handler.Bootstrap)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bootstrap", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "in-progress", body["status"])
}

// --- Health handler ---

func TestHealth_AlwaysReturns200(t *testing.T) {
	t.Parallel()

	handler := &Handler{runner: &fakeRunner{}}
	engine := newTestEngine(http.MethodGet, "/health", handler.Health)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "shallow", body["mode"])
}

// --- DeepHealth handler ---

func TestDeepHealth_200WhenAllProbesOK(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{deepProbes: map[string]bootstrap.ProbeResult{
		"postgres":    {Name: "postgres", OK: true, LatencyMs: 2},
		"staticfiles": {Name: "staticfiles", OK: true, LatencyMs: 0},
	}}
	handler := &Handler{runner: fake}
	engine := newTestEngine(http.MethodGet, "/health/deep", handler.DeepHealth)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/deep", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status       string                           `json:"status"`
		Dependencies map[string]bootstrap.ProbeResult `json:"dependencies"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Len(t, body.Dependencies, 2)
}

func TestDeepHealth_503WhenAnyProbeFails(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{deepProbes: map[string]bootstrap.ProbeResult{
		"postgres":    {Name: "postgres", OK: true},
		"staticfiles": {Name: "staticfiles", OK: false, Error: "manifest missing"},
	}}
	handler := &Handler{runner: fake}
	engine := newTestEngine(http.MethodGet, "/health/deep", handler.DeepHealth)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/deep", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
}

// --- Ready handler ---

func TestReady_200AfterSuccessfulBootstrap(t *testing.T) {
	t.Parallel()

	handler := &Handler{runner: &fakeRunner{ready: true}}
	engine := newTestEngine(http.MethodGet, "/ready", handler.Ready)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReady_503BeforeBootstrap(t *testing.T) {
	t.Parallel()

	handler := &Handler{runner: &fakeRunner{ready: false}}
	engine := newTestEngine(http.MethodGet, "/ready", handler.Ready)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// --- Recovery middleware ---

func TestRecovery_PanicReturns500(t *testing.T) {
	t.Parallel()

	engine := gin.New()
	engine.Use(Recovery(noopLogger()))
	engine.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "internal server error", body["error"])
}
