package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MinAttemptWindow is the least time an attempt needs to be worth starting.
const MinAttemptWindow = 50 * time.Millisecond

// Result is a successful consultation.
type Result struct {
	Text     string
	Model    string
	Attempts int
}

// Retrier walks a model sequence with exponential backoff, bounded by the
// caller's deadline. Each attempt gets min(attemptTimeout, time left).
type Retrier struct {
	advisor        Advisor
	models         []string
	attemptTimeout time.Duration
	backoff        time.Duration
}

func NewRetrier(a Advisor, models []string, attemptTimeout, backoff time.Duration) *Retrier {
	return &Retrier{
		advisor:        a,
		models:         models,
		attemptTimeout: attemptTimeout,
		backoff:        backoff,
	}
}

// Consult returns the first successful answer. It stops early when the error
// is not retryable or the deadline cannot fit another backoff plus
// MinAttemptWindow. The returned error matches one of the failure kinds.
func (r *Retrier) Consult(ctx context.Context, prompt string) (Result, error) {
	var lastErr error
	attempts := 0

	for i, model := range r.models {
		if i > 0 {
			delay := r.delay(i)
			if !fits(ctx, delay) {
				slog.Debug("advisor retry skipped, deadline too close", "attempt", i+1, "model", model)
				break
			}
			if err := sleep(ctx, delay); err != nil {
				lastErr = Classify(err)
				break
			}
		}

		attempts++
		text, err := r.attempt(ctx, prompt, model)
		if err == nil {
			if attempts > 1 {
				slog.Info("advisor succeeded after retry", "model", model, "attempts", attempts)
			}
			return Result{Text: text, Model: model, Attempts: attempts}, nil
		}

		lastErr = Classify(err)
		slog.Warn("advisor attempt failed", "model", model, "attempt", attempts, "error", lastErr)
		if !Retryable(lastErr) || ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no attempt fit the deadline", ErrTimeout)
	}
	return Result{Attempts: attempts}, lastErr
}

func (r *Retrier) attempt(ctx context.Context, prompt, model string) (string, error) {
	if r.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.attemptTimeout)
		defer cancel()
	}
	return r.advisor.Invoke(ctx, prompt, model)
}

// delay is the backoff before attempt i (1-based retries): base, 2*base, 4*base...
func (r *Retrier) delay(i int) time.Duration {
	return r.backoff << (i - 1)
}

func fits(ctx context.Context, delay time.Duration) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return time.Until(deadline) >= delay+MinAttemptWindow
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
