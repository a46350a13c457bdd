package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollectorRecordsHTTPMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := collector.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `tradesnap_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("requests_total metric not recorded, body=%q", body)
	}

	if !strings.Contains(body, `tradesnap_http_request_duration_seconds_count{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("request_duration_seconds_count metric not recorded, body=%q", body)
	}
}

func TestCollectorCollapsesRecordIDs(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handler := collector.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, id := range []string{"5b0c4f6e-6f0e-4b8e-9a43-0b7a9f1f2c11", "c2b8e7a0-1d3f-4f57-8a7e-5e1f0a2b3c4d"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/analyses/"+id, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `tradesnap_http_requests_total{method="DELETE",path="/api/analyses/:id",status="204"} 2`) {
		t.Fatalf("expected ids to collapse into one series, body=%q", body)
	}
}

func TestCollectorRecordsPipelineMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	collector.LLMCall("mock", "chart_analysis", 120*time.Millisecond, nil)
	collector.LLMCall("mock", "chart_analysis", time.Second, errors.New("boom"))
	collector.ValidationFailure("chart_analysis")
	collector.RecordPersisted("chart_image")
	collector.RecordPersisted("chart_image")
	collector.RecordDropped("asset_screening")

	body := scrape(t, collector)
	for _, want := range []string{
		`tradesnap_llm_calls_total{operation="chart_analysis",provider="mock",status="success"} 1`,
		`tradesnap_llm_calls_total{operation="chart_analysis",provider="mock",status="error"} 1`,
		`tradesnap_llm_call_duration_seconds_count{operation="chart_analysis",provider="mock"} 2`,
		`tradesnap_pipeline_validation_failures_total{kind="chart_analysis"} 1`,
		`tradesnap_pipeline_records_persisted_total{type="chart_image"} 2`,
		`tradesnap_pipeline_records_dropped_total{type="asset_screening"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}
	return rr.Body.String()
}
