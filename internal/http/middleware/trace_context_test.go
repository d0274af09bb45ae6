package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-assessment/internal/platform/ctxutil"
)

func TestAttachTraceContextPropagatesHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil || seen.RequestID != "req-1" || seen.TraceID == "" {
		t.Fatalf("trace data not attached: %+v", seen)
	}
	if got := rec.Header().Get(headerRequestID); got != "req-1" {
		t.Fatalf("request id header=%q", got)
	}
	if got := rec.Header().Get(headerTraceID); got != seen.TraceID {
		t.Fatalf("trace id header=%q want %q", got, seen.TraceID)
	}
}

func TestAttachTraceContextCarriesSessionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	var keyed string
	handler := func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		keyed = c.GetString("session_id")
		c.Status(http.StatusOK)
	}
	r.GET("/api/assessment/:id/result", handler)
	r.GET("/healthcheck", handler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assessment/sess-42/result", nil))
	if seen == nil || seen.SessionID != "sess-42" || keyed != "sess-42" {
		t.Fatalf("session id not attached: data=%+v key=%q", seen, keyed)
	}

	seen, keyed = nil, ""
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if seen == nil || seen.SessionID != "" || keyed != "" {
		t.Fatalf("unexpected session id on unscoped route: data=%+v key=%q", seen, keyed)
	}
}
