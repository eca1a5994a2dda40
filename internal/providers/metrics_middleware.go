package providers

import (
	"net/http"
	"time"
)

const unmatchedRoute = "unmatched"

// responseRecorder remembers the status a handler wrote.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// MetricsMiddleware records API requests under their route pattern, so every
// subreddit polling GET /api/state/{subreddit} shares one series. Requests no
// route matched are counted as "unmatched" and not timed.
func MetricsMiddleware(metrics MetricsProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			metrics.IncRequestsTotal(unmatchedRoute, rec.status)
			return
		}
		metrics.IncRequestsTotal(route, rec.status)
		metrics.ObserveRequestDuration(route, time.Since(start))
	})
}
