package chatapi

// Request/response shapes of the chat API.

type ChatRequest struct {
	Message *string `json:"message" validate:"required"`
}

type ChatResponse struct {
	Response        string `json:"response"`
	OriginalMessage string `json:"original_message"`
}

// CompletionRequest fields left out of the body take the completion package defaults.
type CompletionRequest struct {
	Message     *string  `json:"message" validate:"required"`
	Model       *string  `json:"model"`
	MaxTokens   *int64   `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
}

type CompletionResponse struct {
	Response        string `json:"response"`
	OriginalMessage string `json:"original_message"`
	ModelUsed       string `json:"model_used"`
	TokensUsed      *int64 `json:"tokens_used"`
}

type WelcomeResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	OpenAIStatus string `json:"openai_status,omitempty"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}
