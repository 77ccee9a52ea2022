package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates the upstream or local record does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingCredentials indicates the upstream developer credentials are not set
	ErrMissingCredentials = errors.New("missing screenscraper credentials")

	// ErrUnauthorized indicates the upstream rejected the credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrQuotaExceeded indicates the upstream daily quota or thread limit is exhausted
	ErrQuotaExceeded = errors.New("upstream quota exceeded")

	// ErrCriticalFailure aborts a batch run when a critical item fails in strict mode
	ErrCriticalFailure = errors.New("critical item failed")
)
