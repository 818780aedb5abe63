package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payram/simple-chat-api/internal/completion"
	"github.com/payram/simple-chat-api/internal/config"
	"github.com/payram/simple-chat-api/internal/middleware"
)

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("prefix", "test")
}

func TestNewCompleter(t *testing.T) {
	_, disabled := NewCompleter(config.Config{}, quietLogger()).(completion.Disabled)
	assert.True(t, disabled)

	c := NewCompleter(config.Config{OpenAIKey: "sk-test"}, quietLogger())
	_, ok := c.(*completion.Client)
	assert.True(t, ok)
	assert.True(t, c.Enabled())
}

func TestRouterServesChatWithRequestID(t *testing.T) {
	s := New(config.Config{}, quietLogger(), Options{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello"}`))
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
	assert.JSONEq(t, `{"response":"Hello! How can I help you?","original_message":"hello"}`, rr.Body.String())
}

func TestRouterUnknownRoute(t *testing.T) {
	s := New(config.Config{}, quietLogger(), Options{})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Not found", body["error"])
}

func TestProxyVariantWithoutCredential(t *testing.T) {
	s := New(config.Config{}, quietLogger(), Options{Proxy: true})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, rr.Body.String(), `"openai_status":"disabled"`)

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat/openai", strings.NewReader(`{"message":"hi"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(config.Config{}, quietLogger(), Options{})

	// Generate at least one labelled sample.
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "chat_api_http_requests_total")
}

func TestMetricsEndpointGuarded(t *testing.T) {
	s := New(config.Config{MetricsToken: "secret"}, quietLogger(), Options{})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsAllowlistIgnoresForwardedHeaders(t *testing.T) {
	s := New(config.Config{MetricsAllowlist: "10.0.0.0/8"}, quietLogger(), Options{})

	tests := []struct {
		name   string
		remote string
		header string
		value  string
		status int
	}{
		{"outside peer", "8.8.8.8:3333", "", "", http.StatusForbidden},
		{"spoofed forwarded loopback", "8.8.8.8:3333", "X-Forwarded-For", "127.0.0.1", http.StatusForbidden},
		{"spoofed real ip", "8.8.8.8:3333", "X-Real-IP", "10.0.0.1", http.StatusForbidden},
		{"spoofed true client ip", "8.8.8.8:3333", "True-Client-IP", "::1", http.StatusForbidden},
		{"allowed peer behind proxy", "10.0.0.5:3333", "X-Forwarded-For", "8.8.8.8", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			req.RemoteAddr = tc.remote
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, req)

			assert.Equal(t, tc.status, rr.Code)
		})
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true})

	s := New(config.Config{ShutdownTimeout: time.Second}, logger.WithField("prefix", "test"), Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	out := buf.String()
	assert.Contains(t, out, "Simple Chat API is starting up...")
	assert.Contains(t, out, "Simple Chat API is shutting down...")
}
