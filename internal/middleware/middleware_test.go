package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payram/simple-chat-api/internal/metrics"
)

func bufferedLogger() (*logrus.Entry, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger.WithField("component", "test"), &buf
}

func TestRequestIDGeneratesAndEchoes(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
}

func TestRequestIDReusesInbound(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
}

func TestLoggerRecordsRequest(t *testing.T) {
	logger, buf := bufferedLogger()
	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/chat?x=1", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	req.Header.Set("User-Agent", "curl/8.0")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"msg":"Request started"`)
	assert.Contains(t, out, `"msg":"Request completed"`)
	assert.Contains(t, out, `"method":"POST"`)
	assert.Contains(t, out, `"url":"/chat?x=1"`)
	assert.Contains(t, out, `"client":"192.0.2.7:5555"`)
	assert.Contains(t, out, `"user_agent":"curl/8.0"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"bytes":15`)
}

func TestLoggerUnknownUserAgent(t *testing.T) {
	logger, buf := bufferedLogger()
	handler := Logger(logger)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Del("User-Agent")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"user_agent":"Unknown"`)
}

func TestRecovererConvertsPanic(t *testing.T) {
	logger, buf := bufferedLogger()
	handler := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error","detail":"kaboom"}`, rr.Body.String())
	assert.Contains(t, buf.String(), "Unhandled exception occurred: kaboom")
	assert.Contains(t, buf.String(), `"stack"`)
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	counter := metrics.TotalRequests.WithLabelValues("/items/{id}", "202", http.MethodGet)
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/43", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestPeerAddrSurvivesRealIP(t *testing.T) {
	var peer, remote string
	handler := PeerAddr(chimiddleware.RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		peer = GetPeerAddr(r)
		remote = r.RemoteAddr
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.9:1234", peer)
	assert.Equal(t, "127.0.0.1", remote)
}

func TestGetPeerAddrFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.1:80"
	assert.Equal(t, "198.51.100.1:80", GetPeerAddr(req))
}
