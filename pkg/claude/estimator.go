package claude

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jg-phare/chatsplit/pkg/chat"
	"github.com/jg-phare/chatsplit/pkg/splitter"
)

// modelContextSizes holds the exceptions; every other claude- model
// gets defaultContextSize.
var modelContextSizes = map[string]int{
	"claude-2.0":         100_000,
	"claude-instant-1.2": 100_000,
}

const defaultContextSize = 200_000

// Config controls an Estimator.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Estimator prices prompts with the Anthropic token counting endpoint.
// Counts are cached by message content, so re-probing the same window
// during a boundary search costs one request total. Safe for concurrent
// use.
type Estimator struct {
	client anthropic.Client

	mu    sync.Mutex
	cache map[string]int
}

// New constructs an Estimator from config.
func New(cfg Config) (*Estimator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("claude: api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Estimator{
		client: anthropic.NewClient(opts...),
		cache:  make(map[string]int),
	}, nil
}

// ContextSize returns the context window size for a Claude model.
func (e *Estimator) ContextSize(model string) (int, error) {
	if size, ok := modelContextSizes[model]; ok {
		return size, nil
	}
	if strings.HasPrefix(model, "claude-") {
		return defaultContextSize, nil
	}
	return 0, &splitter.UnsupportedModelError{Model: model}
}

// RemainingTokens returns the completion budget left in model's context
// window after sending msgs as the prompt. Counts come from the
// service and are treated as monotonic over suffixes; framing jitter of
// a few tokens can shift a boundary by one turn at most.
func (e *Estimator) RemainingTokens(ctx context.Context, model string, msgs []chat.Message) (int, error) {
	contextSize, err := e.ContextSize(model)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return contextSize, nil
	}
	count, err := e.countTokens(ctx, model, msgs)
	if err != nil {
		return 0, err
	}
	return contextSize - count, nil
}

func (e *Estimator) countTokens(ctx context.Context, model string, msgs []chat.Message) (int, error) {
	key := cacheKey(model, msgs)
	e.mu.Lock()
	count, ok := e.cache[key]
	e.mu.Unlock()
	if ok {
		return count, nil
	}

	params := toCountParams(msgs)
	if len(params) == 0 {
		return 0, nil
	}

	resp, err := e.client.Messages.CountTokens(ctx, anthropic.MessageCountTokensParams{
		Model:    anthropic.Model(model),
		Messages: params,
	})
	if err != nil {
		return 0, fmt.Errorf("claude: counting tokens: %w", err)
	}

	count = int(resp.InputTokens)
	e.mu.Lock()
	e.cache[key] = count
	e.mu.Unlock()
	return count, nil
}

// toCountParams lowers canonical messages into the counting endpoint's
// message shape. System and function turns have no slot of their own
// there, so their text is priced as user turns. Consecutive same-role
// turns are merged and the first turn is forced to the user role, which
// the endpoint requires.
func toCountParams(msgs []chat.Message) []anthropic.MessageParam {
	var params []anthropic.MessageParam
	for _, m := range msgs {
		role := anthropic.MessageParamRoleUser
		if m.Role == chat.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}

		var blocks []anthropic.ContentBlockParamUnion
		if m.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(m.Content))
		}
		if m.Name != "" {
			blocks = append(blocks, anthropic.NewTextBlock(m.Name))
		}
		if m.FunctionCall != nil {
			blocks = append(blocks, anthropic.NewTextBlock(m.FunctionCall.Name+" "+m.FunctionCall.Arguments))
		}
		if len(blocks) == 0 {
			continue
		}

		if len(params) == 0 && role == anthropic.MessageParamRoleAssistant {
			role = anthropic.MessageParamRoleUser
		}
		if n := len(params); n > 0 && params[n-1].Role == role {
			params[n-1].Content = append(params[n-1].Content, blocks...)
			continue
		}
		params = append(params, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return params
}

func cacheKey(model string, msgs []chat.Message) string {
	h := sha256.New()
	for _, m := range msgs {
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
		h.Write([]byte{0})
		h.Write([]byte(m.Name))
		h.Write([]byte{0})
		if m.FunctionCall != nil {
			h.Write([]byte(m.FunctionCall.Name))
			h.Write([]byte{0})
			h.Write([]byte(m.FunctionCall.Arguments))
		}
		h.Write([]byte{0xff})
	}
	sum := h.Sum(nil)
	return fmt.Sprintf("%s:%x", model, sum[:8])
}

var _ splitter.CostEstimator = (*Estimator)(nil)
