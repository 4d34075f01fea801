package downloader

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/billmal071/libgendl/internal/config"
)

// RetryConfig holds retry settings for the initial file request
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// RetryConfigFrom builds a RetryConfig from the network settings
func RetryConfigFrom(n config.NetworkConfig) RetryConfig {
	return RetryConfig{
		MaxAttempts: n.RetryAttempts,
		BaseDelay:   n.RetryBaseDelay,
		MaxDelay:    n.RetryMaxDelay,
		Multiplier:  n.RetryMultiplier,
	}
}

// NoRetry makes a single attempt
var NoRetry = RetryConfig{MaxAttempts: 1}

// ErrorCategory categorizes errors for retry decisions
type ErrorCategory int

const (
	// ErrorRetryable - temporary errors that should be retried
	ErrorRetryable ErrorCategory = iota
	// ErrorNonRetryable - permanent errors that should not be retried
	ErrorNonRetryable
	// ErrorRateLimited - rate limiting, should wait longer
	ErrorRateLimited
)

// CategorizeError determines how a failed request should be handled
func CategorizeError(err error, statusCode int) ErrorCategory {
	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrorRateLimited
	case http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusMethodNotAllowed,
		http.StatusGone,
		http.StatusRequestEntityTooLarge:
		return ErrorNonRetryable
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return ErrorRetryable
	}

	if err == nil {
		return ErrorRetryable
	}
	if errors.Is(err, context.Canceled) {
		return ErrorNonRetryable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorRetryable
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection reset",
		"connection refused",
		"no such host",
		"temporary failure",
		"timeout",
		"eof",
		"broken pipe",
	} {
		if strings.Contains(msg, pattern) {
			return ErrorRetryable
		}
	}

	return ErrorNonRetryable
}

// CalculateBackoff returns the delay before attempt+1, with ±25% jitter
func CalculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	if attempt <= 0 {
		return cfg.BaseDelay
	}

	delay := float64(cfg.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= cfg.Multiplier
	}
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	jitter := delay * 0.25 * (rand.Float64()*2 - 1)
	return time.Duration(delay + jitter)
}

// RetryOperation runs operation until it succeeds, fails permanently or
// runs out of attempts. operation reports the HTTP status it saw, if any.
func RetryOperation(ctx context.Context, cfg RetryConfig, operation func(attempt int) (int, error)) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var status int
		status, lastErr = operation(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		var wait time.Duration
		switch CategorizeError(lastErr, status) {
		case ErrorNonRetryable:
			return lastErr
		case ErrorRateLimited:
			wait = cfg.MaxDelay
		case ErrorRetryable:
			wait = CalculateBackoff(attempt, cfg)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return lastErr
}
