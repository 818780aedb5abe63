package chatapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/payram/simple-chat-api/internal/completion"
	"github.com/payram/simple-chat-api/internal/middleware"
	"github.com/payram/simple-chat-api/internal/responder"
	"github.com/payram/simple-chat-api/internal/version"
)

const maxBodyBytes = 1 << 20

// Options selects the process variant.
type Options struct {
	// Proxy registers /chat/openai and reports openai_status on /health.
	Proxy bool
	// Completer serves /chat/openai. Defaults to completion.Disabled.
	Completer completion.Completer
}

// Handler serves the rule-based chat endpoint and, optionally, the completion proxy.
type Handler struct {
	proxy     bool
	completer completion.Completer
	validate  *validator.Validate
	logger    *logrus.Entry
}

// NewHandler constructs a chat API handler.
func NewHandler(logger *logrus.Entry, opts Options) *Handler {
	completer := opts.Completer
	if completer == nil {
		completer = completion.Disabled{}
	}
	return &Handler{
		proxy:     opts.Proxy,
		completer: completer,
		validate:  newValidator(),
		logger:    logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleRoot)
	r.Post("/chat", h.handleChat)
	if h.proxy {
		r.Post("/chat/openai", h.handleCompletion)
	}
	r.Get("/health", h.handleHealth)
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, version.Get(), http.StatusOK)
	})
}

// NotFound and MethodNotAllowed keep unrouted requests on the {error, detail} shape.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found", fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed", fmt.Sprintf("%s is not allowed on %s", r.Method, r.URL.Path))
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Root endpoint accessed")
	writeJSON(w, WelcomeResponse{Message: "Welcome to " + version.ServiceName}, http.StatusOK)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Health check endpoint accessed")
	resp := HealthResponse{Status: "healthy", Service: version.ServiceName}
	if h.proxy {
		resp.OpenAIStatus = "disabled"
		if h.completer.Enabled() {
			resp.OpenAIStatus = "enabled"
		}
	}
	writeJSON(w, resp, http.StatusOK)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !h.decode(w, r, &req) {
		return
	}
	log := h.logger.WithField("request_id", middleware.GetRequestID(r.Context()))
	log.Infof("Chat endpoint called with message: '%s'", *req.Message)

	reply := responder.Respond(*req.Message)
	log.WithField("rule", reply.Rule).Infof("Successfully processed chat request. Original: '%s' -> Response: '%s'", reply.Original, reply.Text)

	writeJSON(w, ChatResponse{Response: reply.Text, OriginalMessage: reply.Original}, http.StatusOK)
}

func (h *Handler) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var body CompletionRequest
	if !h.decode(w, r, &body) {
		return
	}
	if !h.completer.Enabled() {
		h.fail(w, r, completion.ErrDisabled)
		return
	}

	req := completion.Request{
		Message:     strings.TrimSpace(*body.Message),
		Model:       completion.DefaultModel,
		MaxTokens:   completion.DefaultMaxTokens,
		Temperature: completion.DefaultTemperature,
	}
	if body.Model != nil {
		req.Model = *body.Model
	}
	if body.MaxTokens != nil {
		req.MaxTokens = *body.MaxTokens
	}
	if body.Temperature != nil {
		req.Temperature = *body.Temperature
	}

	log := h.logger.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(r.Context()),
		"model":      req.Model,
	})
	log.Infof("OpenAI chat endpoint called with message: '%s'", req.Message)

	res, err := h.completer.Complete(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	log.WithField("model_used", res.Model).Info("Successfully processed OpenAI chat request")

	writeJSON(w, CompletionResponse{
		Response:        res.Text,
		OriginalMessage: req.Message,
		ModelUsed:       res.Model,
		TokensUsed:      res.TokensUsed,
	}, http.StatusOK)
}

// decode reads and validates a JSON body, answering 422 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	log := h.logger.WithField("request_id", middleware.GetRequestID(r.Context()))
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		log.Warnf("bad request: %v", err)
		writeError(w, http.StatusUnprocessableEntity, "Validation error", fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		log.Warn("bad request: trailing data after JSON body")
		writeError(w, http.StatusUnprocessableEntity, "Validation error", "invalid JSON body: trailing data after the first value")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		log.Warnf("bad request: %v", err)
		writeError(w, http.StatusUnprocessableEntity, "Validation error", describeValidation(err))
		return false
	}
	return true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			parts = append(parts, fe.Field()+": field required")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
