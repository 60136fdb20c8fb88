package middleware

import (
	"log"
	"net/http"
	"time"
)

// statusRecorder captures the status code a handler writes so the
// access log can report it. The first WriteHeader wins, matching
// net/http semantics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func wrapResponseWriter(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w}
}

func (rw *statusRecorder) Status() int {
	return rw.status
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.status != 0 {
		return
	}
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logging writes one access-log line per request: method, path,
// status and elapsed time.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, status, time.Since(start))
	})
}
