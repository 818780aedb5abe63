package chatapi

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/payram/simple-chat-api/internal/completion"
	"github.com/payram/simple-chat-api/internal/middleware"
)

var kindStatus = map[completion.Kind]int{
	completion.KindUnavailable: http.StatusServiceUnavailable,
	completion.KindAuth:        http.StatusUnauthorized,
	completion.KindRateLimit:   http.StatusTooManyRequests,
	completion.KindUpstream:    http.StatusBadGateway,
	completion.KindInternal:    http.StatusInternalServerError,
}

var kindTitle = map[completion.Kind]string{
	completion.KindUnavailable: "Service unavailable",
	completion.KindAuth:        "Authentication failed",
	completion.KindRateLimit:   "Rate limit exceeded",
	completion.KindUpstream:    "Bad gateway",
	completion.KindInternal:    "Internal server error",
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(kind completion.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// fail classifies err, logs it with its stack trace and writes the {error, detail} body.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := completion.Classify(err)
	status := StatusFor(kind)
	title, ok := kindTitle[kind]
	if !ok {
		title = kindTitle[completion.KindInternal]
	}

	detail := "Internal server error: " + err.Error()
	var cerr *completion.Error
	if errors.As(err, &cerr) {
		detail = cerr.Message
	}

	entry := h.logger.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(r.Context()),
		"kind":       kind,
		"status":     status,
	})
	if status >= http.StatusInternalServerError && kind != completion.KindUnavailable {
		entry.Errorf("request failed: %+v", err)
	} else {
		entry.Warnf("request failed: %+v", err)
	}

	writeJSON(w, ErrorResponse{Error: title, Detail: detail}, status)
}

func writeError(w http.ResponseWriter, status int, title, detail string) {
	writeJSON(w, ErrorResponse{Error: title, Detail: detail}, status)
}
