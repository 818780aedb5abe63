package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Recoverer turns a panic into a 500 {error, detail} body, logging the stack trace.
func Recoverer(logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.WithFields(logrus.Fields{
					"request_id": GetRequestID(r.Context()),
					"method":     r.Method,
					"url":        r.URL.String(),
					"stack":      string(debug.Stack()),
				}).Errorf("Unhandled exception occurred: %v", rec)

				writeError(w, http.StatusInternalServerError, "Internal server error", fmt.Sprint(rec))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
