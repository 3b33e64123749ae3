package openai

import (
	"net/http"
	"time"
)

// DefaultBaseURL is the hosted API endpoint. Point BaseURL at any
// compatible server (a local proxy, a self-hosted gateway) to use it
// instead.
const DefaultBaseURL = "https://api.openai.com/v1"

// ClientConfig holds chat-completions client configuration.
type ClientConfig struct {
	BaseURL      string            // API root, e.g. "https://api.openai.com/v1"
	APIKey       string            // Bearer token
	Organization string            // Optional OpenAI-Organization header
	Model        string            // Default model for requests that leave Model empty
	MaxTokens    int               // Default max_tokens for requests that leave it zero
	Headers      map[string]string // Additional HTTP headers
	HTTPClient   *http.Client      // Custom HTTP client (for timeouts, TLS, proxies)
	Retry        RetryConfig
}

// RetryConfig controls retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries        int           // Max retry attempts (default: 3)
	InitialBackoff    time.Duration // Initial backoff (default: 1s)
	MaxBackoff        time.Duration // Max backoff cap (default: 30s)
	BackoffFactor     float64       // Multiplier per retry (default: 2.0)
	JitterFraction    float64       // Random jitter as fraction of backoff (default: 0.1)
	RetryableStatuses []int         // HTTP codes to retry (default: 429, 500, 502, 503)
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffFactor:     2.0,
		JitterFraction:    0.1,
		RetryableStatuses: []int{429, 500, 502, 503},
	}
}
