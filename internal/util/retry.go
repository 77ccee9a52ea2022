package util

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts, including the first
	InitialWait time.Duration // Wait before the second attempt
	MaxWait     time.Duration // Upper bound for any single wait
	Multiplier  float64       // Growth factor per attempt; <= 1 keeps the wait fixed
}

// FixedRetryConfig retries up to maxRetries extra times with a constant delay
func FixedRetryConfig(maxRetries int, delay time.Duration) *RetryConfig {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryConfig{
		MaxAttempts: maxRetries + 1,
		InitialWait: delay,
		MaxWait:     delay,
		Multiplier:  1,
	}
}

// upstreamStatus is implemented by errors carrying an upstream HTTP status.
// Transport errors also have Temporary, so the status method tells them apart.
type upstreamStatus interface {
	Temporary() bool
	HTTPStatus() int
}

// IsRetryableError checks if an error is worth retrying
// Returns true for transient upstream, network and SQLite lock errors
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Permanent conditions never improve within a run
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingCredentials) {
		return false
	}

	var status upstreamStatus
	if errors.As(err, &status) {
		return status.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var syscallError syscall.Errno
	if errors.As(err, &syscallError) {
		switch syscallError {
		case syscall.EAGAIN,
			syscall.ETIMEDOUT,
			syscall.ECONNRESET,
			syscall.ECONNABORTED,
			syscall.ECONNREFUSED,
			syscall.ENETDOWN,
			syscall.ENETUNREACH,
			syscall.EHOSTUNREACH:
			return true
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"timed out",
		"connection reset",
		"connection refused",
		"broken pipe",
		"no such host",
		"network is unreachable",
		"temporary failure",
		"unexpected eof",
		"database is locked",
		"sqlite_busy",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryWithBackoff executes a function with retry logic
// Returns the result of the function or the final error after all retries exhausted
func RetryWithBackoff[T any](ctx context.Context, cfg *RetryConfig, operation func() (T, error), operationName string) (T, error) {
	var result T
	var err error

	// nil runs the operation once
	if cfg == nil || cfg.MaxAttempts < 1 {
		cfg = &RetryConfig{MaxAttempts: 1}
	}

	waitDuration := cfg.InitialWait

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err = operation()

		if err == nil {
			if attempt > 1 {
				DebugLog("Retry: %s succeeded on attempt %d/%d",
					operationName, attempt, cfg.MaxAttempts)
			}
			return result, nil
		}

		if !IsRetryableError(err) {
			DebugLog("Retry: %s failed with non-retryable error: %v", operationName, err)
			return result, err
		}

		if attempt == cfg.MaxAttempts {
			if cfg.MaxAttempts > 1 {
				WarnLog("Retry: %s failed after %d attempts: %v",
					operationName, cfg.MaxAttempts, err)
				return result, fmt.Errorf("max retries exceeded (%d attempts): %w",
					cfg.MaxAttempts, err)
			}
			return result, err
		}

		DebugLog("Retry: %s failed (attempt %d/%d), retrying in %v: %v",
			operationName, attempt, cfg.MaxAttempts, waitDuration, err)

		if sleepErr := Sleep(ctx, waitDuration); sleepErr != nil {
			return result, fmt.Errorf("%s: retry interrupted: %w", operationName, err)
		}

		if cfg.Multiplier > 1 {
			waitDuration = time.Duration(float64(waitDuration) * cfg.Multiplier)
			if cfg.MaxWait > 0 && waitDuration > cfg.MaxWait {
				waitDuration = cfg.MaxWait
			}
		}
	}

	return result, fmt.Errorf("unexpected retry loop exit: %w", err)
}

// Retry executes a function with retry logic (no return value)
func Retry(ctx context.Context, cfg *RetryConfig, operation func() error, operationName string) error {
	_, err := RetryWithBackoff(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, operation()
	}, operationName)
	return err
}
