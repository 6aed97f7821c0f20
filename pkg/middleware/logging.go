package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/perkhive/recognition-gateway/pkg/logger"
)

const correlationIDHeader = "X-Correlation-ID"

// RequestLogging logs each request with its correlation ID, status, and
// latency. Incoming correlation IDs are propagated; missing ones are minted.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := r.Header.Get(correlationIDHeader)
			if correlationID == "" {
				correlationID = uuid.New().String()
			}
			w.Header().Set(correlationIDHeader, correlationID)

			ctx := logger.WithCorrelationID(r.Context(), correlationID)
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r.WithContext(ctx))

			log.Info("request completed",
				slog.String("correlation_id", correlationID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// RequestLogger injects a request-scoped logger carrying the correlation ID
// into the context so deeper layers can log without threading it manually.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reqLogger := log
			if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
				reqLogger = log.With(slog.String("correlation_id", correlationID))
			}
			ctx = logger.NewContext(ctx, reqLogger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(status int) {
	if rw.wroteHeader {
		return
	}
	rw.status = status
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
