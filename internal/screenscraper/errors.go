package screenscraper

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/franz/retro-scraper/internal/util"
)

// StatusError is returned for any non-2xx upstream response
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Temporary reports whether a later attempt may succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// HTTPStatus returns the upstream response code
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// Unwrap maps upstream status codes onto the shared sentinels
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return util.ErrUnauthorized
	case http.StatusNotFound:
		return util.ErrNotFound
	case http.StatusLocked, 430, 431:
		// 423: API closed, 430: daily quota, 431: too many failed lookups today
		return util.ErrQuotaExceeded
	}
	return nil
}

const maxExcerptRunes = 200

func newStatusError(endpoint string, code int, body []byte) *StatusError {
	excerpt := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(excerpt) > maxExcerptRunes {
		excerpt = string([]rune(excerpt)[:maxExcerptRunes]) + "..."
	}
	return &StatusError{Endpoint: endpoint, StatusCode: code, Body: excerpt}
}
