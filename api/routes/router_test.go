package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/adsync/internal/etl"
	"github.com/angelmondragon/adsync/pkg/config"
	"github.com/angelmondragon/adsync/pkg/logger"
	"github.com/angelmondragon/adsync/pkg/metrics"
	"github.com/angelmondragon/adsync/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubRunner struct {
	report *etl.Report
	err    error
	params etl.RunParams
}

func (s *stubRunner) TriggerRun(_ context.Context, params etl.RunParams) (*etl.Report, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func testRouter(t *testing.T, pinger stubPinger, runner *stubRunner, gatherer prometheus.Gatherer) http.Handler {
	t.Helper()
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	logg := logger.New(logger.Options{Output: io.Discard, Level: zerolog.ErrorLevel})
	return NewRouter(cfg, logg, pinger, runner, gatherer)
}

func TestHealthLive(t *testing.T) {
	router := testRouter(t, stubPinger{}, &stubRunner{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if got := w.Header().Get("X-Adsync-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestHealthReadyReflectsWarehouse(t *testing.T) {
	router := testRouter(t, stubPinger{}, &stubRunner{}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}

	router = testRouter(t, stubPinger{err: errors.New("down")}, &stubRunner{}, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 but got %d", w.Code)
	}
}

func TestTriggerRunReturnsReport(t *testing.T) {
	runner := &stubRunner{report: &etl.Report{
		RunID: "run-1",
		Steps: []etl.StepResult{
			{Name: etl.StepCampaigns, Rows: 4},
			{Name: etl.StepAds, Err: errors.New("throttled")},
		},
	}}
	router := testRouter(t, stubPinger{}, runner, nil)

	body := strings.NewReader(`{"since":"2025-02-01","until":"2025-02-01"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/runs", body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d: %s", w.Code, w.Body.String())
	}
	if runner.params.Since != "2025-02-01" {
		t.Fatalf("since not forwarded, got %q", runner.params.Since)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["run_id"] != "run-1" {
		t.Fatalf("unexpected run id %v", data["run_id"])
	}
	steps := data["steps"].([]any)
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[1].(map[string]any)["error"] != "throttled" {
		t.Fatalf("step error missing: %v", steps[1])
	}
}

func TestTriggerRunAcceptsEmptyBody(t *testing.T) {
	runner := &stubRunner{report: &etl.Report{RunID: "run-2"}}
	router := testRouter(t, stubPinger{}, runner, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d: %s", w.Code, w.Body.String())
	}
	if runner.params.Since != "" || runner.params.Until != "" {
		t.Fatalf("expected empty params, got %+v", runner.params)
	}
}

func TestTriggerRunRejectsMalformedDates(t *testing.T) {
	router := testRouter(t, stubPinger{}, &stubRunner{}, nil)

	body := strings.NewReader(`{"since":"01-02-2025"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/runs", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 but got %d", w.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Error.Details == nil {
		t.Fatal("expected field details on validation failure")
	}
}

func TestTriggerRunConflictWhileRunning(t *testing.T) {
	router := testRouter(t, stubPinger{}, &stubRunner{err: etl.ErrRunInProgress}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 but got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	stepMetrics := metrics.NewStepMetrics(registry)
	stepMetrics.IncSuccess("campaigns")

	router := testRouter(t, stubPinger{}, &stubRunner{}, registry)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "etl_step_success") {
		t.Fatal("expected step metrics in exposition")
	}
}
