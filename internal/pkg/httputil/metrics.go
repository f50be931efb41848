package httputil

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bissquit/worknotes/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MetricsMiddleware records HTTP request duration by route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method,
			routePattern(r),
			strconv.Itoa(statusOrOK(ww.Status())),
		).Observe(time.Since(start).Seconds())
	})
}

// routePattern returns the matched chi pattern, not the raw path, to keep label cardinality bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unknown"
}

// statusOrOK treats an unwritten status as 200, as net/http does.
func statusOrOK(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}
