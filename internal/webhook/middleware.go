package webhook

import (
	"net"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// HeaderRequestID echoes the id assigned to each request.
const HeaderRequestID = "X-Request-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware tags each request with an id and client IP, stores a logger
// carrying both in the request context, sets response hardening headers
// and logs the outcome.
func Middleware(logger log.Interface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			clientIP = r.RemoteAddr
		}
		requestID := requestIDFrom(r)

		entry := logger.WithFields(log.Fields{
			"requestID": requestID,
			"clientIP":  clientIP,
			"method":    r.Method,
			"path":      r.URL.Path,
		})

		w.Header().Set(HeaderRequestID, requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(log.NewContext(r.Context(), entry)))

		entry.WithDuration(time.Since(start)).WithField("status", rec.status).Debug("Request completed")
	})
}

// requestIDFrom reuses an upstream id only when it is a UUID.
func requestIDFrom(r *http.Request) string {
	if id, err := uuid.Parse(r.Header.Get(HeaderRequestID)); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
