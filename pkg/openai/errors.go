package openai

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIError wraps HTTP-level errors from the completions API.
type APIError struct {
	StatusCode int
	Type       string // coarse classification, e.g. "rate_limit"
	Message    string // error message from the response body
	Retryable  bool
	RetryAfter time.Duration // from the Retry-After header, if present
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai: %s (HTTP %d): %s", e.Type, e.StatusCode, e.Message)
}

// ErrMaxRetriesExceeded is returned when all retry attempts are exhausted.
type ErrMaxRetriesExceeded struct {
	Attempts   int
	LastStatus int
}

func (e *ErrMaxRetriesExceeded) Error() string {
	return fmt.Sprintf("openai: max retries exceeded (%d attempts, last HTTP %d)", e.Attempts, e.LastStatus)
}

// errorEnvelope is the standard error body shape.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// classifyError maps a non-200 HTTP response to an APIError.
func classifyError(resp *http.Response) *APIError {
	bodyBytes, _ := io.ReadAll(resp.Body)

	msg := string(bodyBytes)
	var envelope errorEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	errType, retryable := classifyStatus(resp.StatusCode)

	return &APIError{
		StatusCode: resp.StatusCode,
		Type:       errType,
		Message:    msg,
		Retryable:  retryable,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// classifyStatus maps an HTTP status code to an error type and retryability.
func classifyStatus(statusCode int) (errType string, retryable bool) {
	switch statusCode {
	case 401:
		return "authentication_failed", false
	case 403:
		return "permission_denied", false
	case 400, 404, 422:
		return "invalid_request", false
	case 429:
		return "rate_limit", true
	case 500, 502, 503:
		return "server_error", true
	default:
		return "unknown", false
	}
}

// isRetryable checks if a status code should be retried.
func isRetryable(statusCode int, retryableStatuses []int) bool {
	for _, s := range retryableStatuses {
		if statusCode == s {
			return true
		}
	}
	return false
}

// parseRetryAfter parses the Retry-After header value.
// Supports both seconds (integer) and HTTP-date formats.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(value, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
		return 0
	}

	return 0
}
