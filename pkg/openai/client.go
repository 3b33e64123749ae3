package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Client is the chat-completions client. All methods are safe for concurrent use.
type Client interface {
	// CreateChatCompletion sends a blocking completion request.
	CreateChatCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// StreamChatCompletion sends a streaming completion request and returns a Stream.
	StreamChatCompletion(ctx context.Context, req *CompletionRequest) (*Stream, error)

	// Model returns the configured default model string.
	Model() string

	// SetModel changes the default model for subsequent requests.
	SetModel(model string)
}

// httpClient implements the Client interface.
type httpClient struct {
	config     ClientConfig
	httpClient *http.Client
	mu         sync.RWMutex
}

// NewClient creates a new chat-completions client with the given configuration.
func NewClient(cfg ClientConfig) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialBackoff == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	return &httpClient{
		config:     cfg,
		httpClient: cfg.HTTPClient,
	}
}

// CreateChatCompletion sends a blocking completion request.
func (c *httpClient) CreateChatCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	req.Stream = false
	req.StreamOptions = nil

	resp, err := c.post(ctx, req, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	return &out, nil
}

// StreamChatCompletion sends a streaming completion request and returns a Stream.
func (c *httpClient) StreamChatCompletion(ctx context.Context, req *CompletionRequest) (*Stream, error) {
	req.Stream = true
	if req.StreamOptions == nil {
		req.StreamOptions = &StreamOptions{IncludeUsage: true}
	}

	resp, err := c.post(ctx, req, "text/event-stream")
	if err != nil {
		return nil, err
	}

	// Create a cancellable context for the stream
	streamCtx, cancel := context.WithCancel(ctx)
	events := ParseSSEStream(streamCtx, resp.Body)

	return NewStream(events, resp.Body, cancel), nil
}

// post fills request defaults from the config, sends the request with
// retries, and returns the 200 response. Non-200 responses come back as
// a classified *APIError.
func (c *httpClient) post(ctx context.Context, req *CompletionRequest, accept string) (*http.Response, error) {
	if req.Model == "" {
		req.Model = c.Model()
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.config.MaxTokens
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"

	resp, err := doWithRetry(ctx, c.config.Retry, func(ctx context.Context) (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}

		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", accept)

		if c.config.APIKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}
		if c.config.Organization != "" {
			httpReq.Header.Set("OpenAI-Organization", c.config.Organization)
		}

		for k, v := range c.config.Headers {
			httpReq.Header.Set(k, v)
		}

		return c.httpClient.Do(httpReq)
	})

	if err != nil {
		return nil, err
	}

	if resp.StatusCode != 200 {
		apiErr := classifyError(resp)
		resp.Body.Close()
		return nil, apiErr
	}

	return resp, nil
}

// Model returns the configured default model string.
func (c *httpClient) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Model
}

// SetModel changes the default model for subsequent requests.
func (c *httpClient) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Model = model
}
