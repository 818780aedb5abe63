package completion

import (
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/pkg/errors"
)

// Kind classifies a completion failure. HTTP status codes are assigned at the API boundary.
type Kind string

const (
	KindUnavailable Kind = "unavailable"
	KindAuth        Kind = "auth"
	KindRateLimit   Kind = "rate_limit"
	KindUpstream    Kind = "upstream"
	KindInternal    Kind = "internal"
)

// Error is a classified completion failure. Message is safe to return to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Format prints the wrapped cause with its stack trace under %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') && e.Err != nil {
		fmt.Fprintf(s, "%s: %s: %+v", e.Kind, e.Message, e.Err)
		return
	}
	_, _ = io.WriteString(s, e.Error())
}

// ErrDisabled is returned by Disabled for every call.
var ErrDisabled = &Error{
	Kind:    KindUnavailable,
	Message: "OpenAI integration is disabled. Set OPENAI_API_KEY to enable it.",
}

// Classify reports the Kind of err. Already classified errors keep their kind;
// provider status errors are split by status code; transport failures count as upstream.
func Classify(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return KindAuth
		case http.StatusTooManyRequests:
			return KindRateLimit
		default:
			return KindUpstream
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUpstream
	}
	return KindInternal
}

// classify wraps a raw SDK error into an *Error with a stack trace attached.
func classify(err error) *Error {
	kind := Classify(err)
	return &Error{
		Kind:    kind,
		Message: safeMessage(kind, err),
		Err:     errors.WithStack(err),
	}
}

func safeMessage(kind Kind, err error) string {
	switch kind {
	case KindAuth:
		return "Invalid OpenAI API key"
	case KindRateLimit:
		return "OpenAI rate limit exceeded. Please try again later."
	case KindUpstream:
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return "OpenAI API error: " + apiErr.Message
		}
		return "OpenAI API error: provider request failed"
	default:
		return "Internal server error: " + err.Error()
	}
}
