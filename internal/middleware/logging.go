package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Logger logs every request when it starts and when it completes.
func Logger(logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			entry := logger.WithFields(logrus.Fields{
				"request_id": GetRequestID(r.Context()),
				"method":     r.Method,
				"url":        r.URL.String(),
			})
			entry.WithFields(logrus.Fields{
				"client":     clientAddr(r),
				"user_agent": userAgent(r),
			}).Info("Request started")

			next.ServeHTTP(rec, r)

			entry.WithFields(logrus.Fields{
				"status": rec.status,
				"bytes":  rec.bytes,
				"dur":    time.Since(start).Round(time.Microsecond),
			}).Info("Request completed")
		})
	}
}

func clientAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "Unknown"
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if ua := r.UserAgent(); ua != "" {
		return ua
	}
	return "Unknown"
}
