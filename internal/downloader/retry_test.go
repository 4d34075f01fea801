package downloader

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmal071/libgendl/internal/config"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   ErrorCategory
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, want: ErrorRateLimited},
		{name: "not found", status: http.StatusNotFound, want: ErrorNonRetryable},
		{name: "bad gateway", status: http.StatusBadGateway, want: ErrorRetryable},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: ErrorRetryable},
		{name: "unexpected eof", err: errors.New("unexpected EOF"), want: ErrorRetryable},
		{name: "canceled", err: context.Canceled, want: ErrorNonRetryable},
		{name: "unknown", err: errors.New("something odd"), want: ErrorNonRetryable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeError(tt.err, tt.status))
		})
	}
}

func TestCalculateBackoffIsCapped(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Second, MaxDelay: 4 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, CalculateBackoff(0, cfg))
	for attempt := 1; attempt < 10; attempt++ {
		d := CalculateBackoff(attempt, cfg)
		assert.LessOrEqual(t, d, 5*time.Second, "attempt %d", attempt)
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestRetryOperation(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	t.Run("succeeds after retryable failures", func(t *testing.T) {
		calls := 0
		err := RetryOperation(context.Background(), cfg, func(int) (int, error) {
			calls++
			if calls < 3 {
				return http.StatusServiceUnavailable, errors.New("server returned 503")
			}
			return http.StatusOK, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent failure", func(t *testing.T) {
		calls := 0
		err := RetryOperation(context.Background(), cfg, func(int) (int, error) {
			calls++
			return http.StatusNotFound, errors.New("server returned 404")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := RetryOperation(context.Background(), cfg, func(int) (int, error) {
			calls++
			return 0, errors.New("connection reset by peer")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})
}

func TestRetryConfigFrom(t *testing.T) {
	cfg := RetryConfigFrom(config.NetworkConfig{RetryAttempts: 5, RetryBaseDelay: time.Second, RetryMaxDelay: time.Minute, RetryMultiplier: 1.5})
	assert.Equal(t, RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Minute, Multiplier: 1.5}, cfg)
}
