package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"http 429", errors.New("request failed: 429 Too Many Requests"), true},
		{"resource exhausted", errors.New("rpc error: RESOURCE_EXHAUSTED"), true},
		{"quota message", errors.New("quota exceeded for model"), true},
		{"anthropic rate_limit", errors.New("rate_limit_error: overloaded"), true},
		{"unrelated error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimitError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(errors.New("429 without hint")))

	err := errors.New("429 Too Many Requests. Please retry in 7s.")
	assert.Equal(t, 7*time.Second, ExtractRetryDelay(err))

	err = errors.New(`RESOURCE_EXHAUSTED retryDelay: 2.5s`)
	assert.Equal(t, 2500*time.Millisecond, ExtractRetryDelay(err))
}

func TestCalculateBackoff(t *testing.T) {
	config := &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}

	assert.Equal(t, time.Second, config.CalculateBackoff(0, 0))
	assert.Equal(t, 2*time.Second, config.CalculateBackoff(1, 0))
	assert.Equal(t, 4*time.Second, config.CalculateBackoff(2, 0))

	// API-suggested delay replaces the initial backoff as the base.
	assert.Equal(t, 6*time.Second, config.CalculateBackoff(1, 3*time.Second))

	// Cap at MaxBackoff.
	assert.Equal(t, 10*time.Second, config.CalculateBackoff(10, 0))
}
