// Package completion forwards single-turn chat messages to an external completion provider.
package completion

import "context"

const (
	DefaultModel        = "gpt-3.5-turbo"
	DefaultMaxTokens    = 150
	DefaultTemperature  = 0.7
	DefaultSystemPrompt = "You are a helpful assistant."
)

// Request is one user turn plus the caller's sampling parameters, passed through unmodified.
type Request struct {
	Message     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Result is the provider's answer. TokensUsed is nil when the provider reports no usage.
type Result struct {
	Text       string
	Model      string
	TokensUsed *int64
}

// Completer produces a completion for one message.
// Enabled reports whether the completer can reach a provider at all.
type Completer interface {
	Complete(ctx context.Context, req Request) (Result, error)
	Enabled() bool
}

// Disabled is the Completer used when no provider credential is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (Result, error) {
	return Result{}, ErrDisabled
}

func (Disabled) Enabled() bool { return false }
