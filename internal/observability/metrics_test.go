package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ApiInflightInc()
	m.ObserveStoreOperation("save", "ok", time.Millisecond)
	m.IncStoreConflict("save")
	m.IncSessionStarted()
	m.IncAnswer(true)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", rec.Code)
	}
}

func TestInitDisabledReturnsNil(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "false")
	if m := Init(nil); m != nil {
		t.Fatalf("expected nil metrics when disabled")
	}
}

func TestAssessmentCounters(t *testing.T) {
	m := New()
	m.IncSessionStarted()
	m.IncSessionStarted()
	m.IncQuestionIssued("HARDER")
	m.IncAnswer(true)
	m.IncAnswer(false)
	m.IncAnswer(true)
	m.IncCompletion("mastery_achieved")
	m.IncPersistRetry("submit_answer")

	if got := m.sessionsStarted.Value(); got != 2 {
		t.Fatalf("sessions started=%v want 2", got)
	}
	if got := m.questionsIssued.Value("harder"); got != 1 {
		t.Fatalf("harder=%v want 1", got)
	}
	if got := m.answers.Value("true"); got != 2 {
		t.Fatalf("correct answers=%v want 2", got)
	}
	if got := m.answers.Value("false"); got != 1 {
		t.Fatalf("incorrect answers=%v want 1", got)
	}
	if got := m.completions.Value("mastery_achieved"); got != 1 {
		t.Fatalf("completions=%v want 1", got)
	}
	if got := m.persistRetries.Value("submit_answer"); got != 1 {
		t.Fatalf("retries=%v want 1", got)
	}
}

func TestStoreAndAPIMetricsRender(t *testing.T) {
	m := New()
	m.ObserveStoreOperation("session.save", "conflict", 3*time.Millisecond)
	m.IncStoreConflict("session.save")
	m.ObserveAPI("POST", "/api/assessment/start", "503", 20*time.Millisecond)
	m.ApiInflightInc()
	m.ApiInflightDec()

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`nba_store_operations_total{op="session.save",status="conflict"} 1`,
		`nba_store_conflicts_total{op="session.save"} 1`,
		`nba_store_operation_duration_seconds_bucket{op="session.save",le="0.005"} 1`,
		`nba_api_requests_total{method="POST",route="/api/assessment/start",status="503"} 1`,
		`nba_api_requests_error_total 1`,
		`nba_api_inflight_requests 0`,
		`# TYPE nba_api_request_duration_seconds histogram`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q\n%s", want, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := NewHistogramVec("h", "help", []string{"op"}, []float64{1, 2})
	h.Observe(0.5, "a")
	h.Observe(1.5, "a")
	h.Observe(5, "a")
	var buf bytes.Buffer
	if err := h.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`h_bucket{op="a",le="1"} 1`,
		`h_bucket{op="a",le="2"} 2`,
		`h_bucket{op="a",le="+Inf"} 3`,
		`h_count{op="a"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q\n%s", want, out)
		}
	}
	if h.Count("a") != 3 {
		t.Fatalf("count=%d want 3", h.Count("a"))
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`, ""})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString=%s", got)
	}
	if got := withLe("", "+Inf"); got != `{le="+Inf"}` {
		t.Fatalf("withLe=%s", got)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestProbeSetsGauges(t *testing.T) {
	m := New()
	m.probe(context.Background(), nil, "mongo", m.mongoUp, m.mongoPing, stubPinger{}.Ping)
	if m.mongoUp.Value() != 1 {
		t.Fatalf("mongo up=%v want 1", m.mongoUp.Value())
	}
	m.probe(context.Background(), nil, "mongo", m.mongoUp, m.mongoPing, stubPinger{err: errors.New("down")}.Ping)
	if m.mongoUp.Value() != 0 {
		t.Fatalf("mongo up=%v want 0", m.mongoUp.Value())
	}
}

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" a=1, bad ,b = 2,c=")
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Fatalf("parseHeaders=%v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}
