package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/google/uuid"

	"github.com/bookshelf/catalog-service/internal/observability"
)

// HeaderCorrelationID carries the correlation ID in requests and responses.
const HeaderCorrelationID = "X-Correlation-ID"

// correlationIDMiddleware ensures every request has a correlation ID.
// An incoming header wins, then the chi request ID, then a fresh UUID.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		correlationID := r.Header.Get(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = middleware.GetReqID(ctx)
		}
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		w.Header().Set(HeaderCorrelationID, correlationID)
		httplog.LogEntrySetField(ctx, "correlation_id", correlationID)

		ctx = observability.WithRequestID(ctx, middleware.GetReqID(ctx))
		ctx = observability.WithCorrelationID(ctx, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// jsonContentTypeMiddleware sets Content-Type: application/json for all responses.
func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request count and latency per route pattern.
// Unmatched requests are recorded under the route "unmatched" so arbitrary
// paths cannot inflate label cardinality.
func metricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start).Seconds())
		})
	}
}

// rateLimitMiddleware rejects requests with 429 once the global token bucket
// is empty. A nil limiter disables the check.
func rateLimitMiddleware(limiter *RateLimiter, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				metrics.RecordRateLimited()
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
