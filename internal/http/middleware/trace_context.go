package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurobridge-assessment/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	sessionParam = "id"
)

// AttachTraceContext stores request, trace and session ids on the request context and echoes
// the first two as response headers. An inbound X-Trace-Id wins over the otel span's trace id.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		td := &ctxutil.TraceData{
			RequestID: strings.TrimSpace(c.GetHeader(headerRequestID)),
			TraceID:   strings.TrimSpace(c.GetHeader(headerTraceID)),
			SessionID: strings.TrimSpace(c.Param(sessionParam)),
		}
		if td.RequestID == "" {
			td.RequestID = uuid.NewString()
		}
		span := trace.SpanFromContext(ctx)
		if td.TraceID == "" {
			if sc := span.SpanContext(); sc.HasTraceID() {
				td.TraceID = sc.TraceID().String()
			} else {
				td.TraceID = uuid.NewString()
			}
		}
		if td.SessionID != "" {
			span.SetAttributes(attribute.String("assessment.session_id", td.SessionID))
			c.Set("session_id", td.SessionID)
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, td))
		c.Set("trace_id", td.TraceID)
		c.Set("request_id", td.RequestID)
		c.Writer.Header().Set(headerTraceID, td.TraceID)
		c.Writer.Header().Set(headerRequestID, td.RequestID)
		c.Next()
	}
}
