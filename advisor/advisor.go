// Package advisor is the AI tier's transport: a single Invoke call against a
// language model, error classification, and a deadline-aware retry policy.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// Failure kinds. Every error returned by this package matches exactly one.
var (
	ErrTimeout   = errors.New("advisor timeout")
	ErrTransport = errors.New("advisor transport error")
	ErrModel     = errors.New("advisor model error")
)

// Advisor sends a prompt to a model and returns its raw text answer.
type Advisor interface {
	Invoke(ctx context.Context, prompt, model string) (string, error)
}

// Func adapts a plain function to the Advisor interface.
type Func func(ctx context.Context, prompt, model string) (string, error)

func (f Func) Invoke(ctx context.Context, prompt, model string) (string, error) {
	return f(ctx, prompt, model)
}

// Classify wraps err with the failure kind it belongs to. Errors already
// carrying a kind are returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrTransport), errors.Is(err, ErrModel):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if _, ok := apiError(err); ok {
		return fmt.Errorf("%w: %w", ErrModel, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// Retryable reports whether another attempt could succeed. Client errors
// other than rate limiting will fail the same way again.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := apiError(err); ok {
		code := apiErr.Code
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout {
			return false
		}
	}
	return true
}

func apiError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}
