package advisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"wrapped deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), ErrTimeout},
		{"canceled", context.Canceled, ErrTimeout},
		{"api error", genai.APIError{Code: 500, Message: "internal"}, ErrModel},
		{"wrapped api error", fmt.Errorf("call: %w", genai.APIError{Code: 429}), ErrModel},
		{"anything else", errors.New("connection reset"), ErrTransport},
		{"already classified", fmt.Errorf("%w: empty", ErrModel), ErrModel},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			assert.ErrorIs(t, got, tc.want)
			assert.Contains(t, got.Error(), tc.err.Error())
		})
	}
	assert.NoError(t, Classify(nil))

	var apiErr genai.APIError
	require.ErrorAs(t, Classify(genai.APIError{Code: 503}), &apiErr)
	assert.Equal(t, 503, apiErr.Code)
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.True(t, Retryable(Classify(errors.New("reset"))))
	assert.True(t, Retryable(Classify(context.DeadlineExceeded)))
	assert.True(t, Retryable(Classify(genai.APIError{Code: 503})))
	assert.True(t, Retryable(Classify(genai.APIError{Code: 429})))
	assert.False(t, Retryable(Classify(genai.APIError{Code: 400})))
	assert.False(t, Retryable(Classify(genai.APIError{Code: 404})))
}

// recorder is a scripted advisor that remembers which models it was asked.
type recorder struct {
	mu      sync.Mutex
	models  []string
	answers []func(ctx context.Context) (string, error)
}

func (r *recorder) Invoke(ctx context.Context, prompt, model string) (string, error) {
	r.mu.Lock()
	i := len(r.models)
	r.models = append(r.models, model)
	r.mu.Unlock()
	if i >= len(r.answers) {
		return "", errors.New("unscripted call")
	}
	return r.answers[i](ctx)
}

func reply(text string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return text, nil }
}

func fail(err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", err }
}

func hang(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

var models = []string{"primary", "primary", "fallback"}

func TestConsult_FirstAttempt(t *testing.T) {
	rec := &recorder{answers: []func(context.Context) (string, error){reply("[]")}}
	res, err := NewRetrier(rec, models, time.Second, time.Millisecond).Consult(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, Result{Text: "[]", Model: "primary", Attempts: 1}, res)
	assert.Equal(t, []string{"primary"}, rec.models)
}

func TestConsult_FallsBackToSecondModel(t *testing.T) {
	rec := &recorder{answers: []func(context.Context) (string, error){
		fail(errors.New("reset")),
		fail(genai.APIError{Code: 503}),
		reply("ok"),
	}}
	res, err := NewRetrier(rec, models, time.Second, time.Millisecond).Consult(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Model)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, models, rec.models)
}

func TestConsult_StopsOnClientError(t *testing.T) {
	rec := &recorder{answers: []func(context.Context) (string, error){fail(genai.APIError{Code: 400})}}
	res, err := NewRetrier(rec, models, time.Second, time.Millisecond).Consult(context.Background(), "p")

	assert.ErrorIs(t, err, ErrModel)
	assert.Equal(t, 1, res.Attempts)
	assert.Len(t, rec.models, 1)
}

func TestConsult_AllFail(t *testing.T) {
	boom := errors.New("dns failure")
	rec := &recorder{answers: []func(context.Context) (string, error){fail(boom), fail(boom), fail(boom)}}
	res, err := NewRetrier(rec, models, time.Second, time.Millisecond).Consult(context.Background(), "p")

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, res.Attempts)
}

func TestConsult_AttemptTimeoutBoundsEachCall(t *testing.T) {
	rec := &recorder{answers: []func(context.Context) (string, error){hang, reply("late but fine")}}
	start := time.Now()
	res, err := NewRetrier(rec, models, 20*time.Millisecond, time.Millisecond).Consult(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestConsult_RespectsCallerDeadline(t *testing.T) {
	rec := &recorder{answers: []func(context.Context) (string, error){hang, hang, hang}}
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := NewRetrier(rec, models, time.Second, 10*time.Millisecond).Consult(ctx, "p")

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, res.Attempts, "no retry fits once the caller deadline has passed")
	assert.Less(t, time.Since(start), 300*time.Millisecond)
}

func TestConsult_SkipsRetryThatCannotFit(t *testing.T) {
	rec := &recorder{answers: []func(context.Context) (string, error){fail(errors.New("reset")), reply("never")}}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := NewRetrier(rec, models, time.Second, time.Second).Consult(ctx, "p")

	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 1, res.Attempts)
	assert.Len(t, rec.models, 1)
}

func TestConsult_NoModels(t *testing.T) {
	_, err := NewRetrier(&recorder{}, nil, time.Second, time.Millisecond).Consult(context.Background(), "p")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestFunc(t *testing.T) {
	var a Advisor = Func(func(_ context.Context, prompt, model string) (string, error) {
		return prompt + "@" + model, nil
	})
	got, err := a.Invoke(context.Background(), "hi", "m")
	require.NoError(t, err)
	assert.Equal(t, "hi@m", got)
}
