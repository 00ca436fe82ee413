package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceIDHeader     = "X-Trace-ID"
	TraceParentHeader = "traceparent"

	traceIDKey = "trace_id"
)

// GetTraceID picks the request trace id: the active OTel span first, then the
// W3C traceparent header, then X-Trace-ID, otherwise a fresh random id.
func GetTraceID(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	// traceparent: version-trace_id-parent_id-flags
	if tp := c.GetHeader(TraceParentHeader); tp != "" {
		if parts := strings.Split(tp, "-"); len(parts) == 4 && len(parts[1]) == 32 {
			return parts[1]
		}
	}

	if id := strings.TrimSpace(c.GetHeader(TraceIDHeader)); id != "" {
		return id
	}

	return newTraceID()
}

func newTraceID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// LoggingMiddleware attaches a trace-scoped zerolog logger to the request
// context and writes one access log line per request.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		traceID := GetTraceID(c)

		c.Set(traceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		// pkgzerolog tags the logger with the span ids when a span is active
		ctx := pkgzerolog.WithContext(c.Request.Context())
		if !trace.SpanContextFromContext(ctx).IsValid() {
			ctx = pkgzerolog.FromContext(ctx).With().Str(traceIDKey, traceID).Logger().WithContext(ctx)
		}
		c.Request = c.Request.WithContext(ctx)
		logger := pkgzerolog.FromContext(ctx)

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		event.
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Msg("HTTP request")
	}
}
