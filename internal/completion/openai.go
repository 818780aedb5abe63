package completion

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/payram/simple-chat-api/internal/metrics"
)

// Client calls the OpenAI chat completions API through the official SDK.
type Client struct {
	client       openai.Client
	systemPrompt string
	logger       *logrus.Entry
}

// NewClient configures an OpenAI caller. SDK retries are disabled so each request
// maps to exactly one provider call.
func NewClient(logger *logrus.Entry, apiKey, baseURL, systemPrompt string, httpClient *http.Client) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimRight(baseURL, "/"); base != "" {
		opts = append(opts, option.WithBaseURL(base+"/"))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}

	return &Client{
		client:       openai.NewClient(opts...),
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

func (c *Client) Enabled() bool { return true }

// Complete sends the system prompt and req.Message as a single user turn.
func (c *Client) Complete(ctx context.Context, req Request) (Result, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(req.Message),
		},
		MaxTokens:   openai.Int(req.MaxTokens),
		Temperature: openai.Float(req.Temperature),
	}

	c.logger.WithFields(logrus.Fields{
		"model":       req.Model,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}).Debug("sending chat completion")

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		cerr := classify(err)
		c.logProviderError(err, cerr.Kind)
		metrics.CompletionRequests.WithLabelValues(req.Model, string(cerr.Kind)).Inc()
		return Result{}, cerr
	}

	if len(resp.Choices) == 0 {
		metrics.CompletionRequests.WithLabelValues(req.Model, string(KindUpstream)).Inc()
		return Result{}, &Error{
			Kind:    KindUpstream,
			Message: "OpenAI API error: no choices in response",
			Err:     errors.New("completion response has no choices"),
		}
	}

	result := Result{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
	}
	if resp.Usage.TotalTokens > 0 {
		total := resp.Usage.TotalTokens
		result.TokensUsed = &total
		metrics.CompletionTokens.WithLabelValues(req.Model).Add(float64(total))
	}
	metrics.CompletionRequests.WithLabelValues(req.Model, "ok").Inc()

	return result, nil
}

func (c *Client) logProviderError(err error, kind Kind) {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		c.logger.WithFields(logrus.Fields{
			"kind":          kind,
			"status_code":   apiErr.StatusCode,
			"error_type":    apiErr.Type,
			"error_code":    apiErr.Code,
			"error_message": apiErr.Message,
		}).Warn("openai api error")
		return
	}
	c.logger.WithError(err).WithField("kind", kind).Warn("openai request failed")
}
