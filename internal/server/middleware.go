package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// timeoutBody is the canned payload http.TimeoutHandler writes when
// a handler overruns the write timeout.
var timeoutBody = func() string {
	b, _ := json.Marshal(map[string]string{"error": "request timed out"})
	return string(b)
}()

// withTimeout bounds a handler by the configured write timeout.
// http.TimeoutHandler emits its message without a content type, so
// the writer wrapper forces application/json on the 503 path to
// keep every API response JSON.
func (s *Server) withTimeout(h http.HandlerFunc) http.Handler {
	inner := http.Handler(h)
	if s.handlerDelay > 0 {
		// Test hook: stall handlers so short timeouts fire.
		delay := s.handlerDelay
		inner = http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(delay)
				h(w, r)
			},
		)
	}
	timed := http.TimeoutHandler(inner, s.cfg.WriteTimeout, timeoutBody)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timed.ServeHTTP(&jsonOn503{ResponseWriter: w}, r)
	})
}

// jsonOn503 sets a JSON content type when the response is a 503
// written without one. Other statuses pass through untouched.
type jsonOn503 struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *jsonOn503) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if code == http.StatusServiceUnavailable &&
		w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *jsonOn503) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
