package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// HTTPMetricsMiddleware records a counter and latency histogram per request,
// labeled with the final status code. Scrapes of the observability endpoints
// themselves are excluded so the series do not fill up with probe traffic.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isObservabilityPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		ObserveHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(ww.status), time.Since(start))
	})
}

func isObservabilityPath(path string) bool {
	return path == "/metrics" || path == "/healthz" || path == "/readyz"
}

// statusWriter captures the status code written by the wrapped handler; a
// handler that never calls WriteHeader implicitly wrote 200.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
