package tokenizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/jg-phare/chatsplit/pkg/chat"
	"github.com/jg-phare/chatsplit/pkg/splitter"
)

// replyPrimingTokens accounts for the assistant priming the service
// appends after the last message of every prompt.
const replyPrimingTokens = 3

// encoder turns text into a token count. Construction is injectable so
// tests can price text without loading real BPE tables.
type encoder interface {
	Tokens(text string) int
}

type tiktokenEncoder struct {
	enc *tiktoken.Tiktoken
}

func (e tiktokenEncoder) Tokens(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

func newTiktokenEncoder(encoding string) (encoder, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return tiktokenEncoder{enc: enc}, nil
}

// Tokenizer prices prompts using OpenAI chat framing rules on top of
// tiktoken encodings. It is safe for concurrent use; the model registry
// may be updated while splits are in flight.
type Tokenizer struct {
	logger *slog.Logger

	mu    sync.RWMutex
	specs []ModelSpec

	encMu      sync.Mutex
	encoders   map[string]encoder
	newEncoder func(encoding string) (encoder, error)
}

// New creates a Tokenizer seeded with the built-in model registry.
// If logger is nil, slog.Default() is used.
func New(logger *slog.Logger) *Tokenizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tokenizer{
		logger:     logger,
		specs:      defaultSpecs(),
		encoders:   make(map[string]encoder),
		newEncoder: newTiktokenEncoder,
	}
}

// ContextSize returns the context window size registered for model.
func (t *Tokenizer) ContextSize(model string) (int, error) {
	spec, err := t.Resolve(model)
	if err != nil {
		return 0, err
	}
	return spec.ContextSize, nil
}

// PromptTokens returns the token cost of sending msgs as a prompt,
// including per-message framing overhead and the reply priming.
func (t *Tokenizer) PromptTokens(model string, msgs []chat.Message) (int, error) {
	spec, err := t.Resolve(model)
	if err != nil {
		return 0, err
	}
	return t.promptTokens(spec, model, msgs)
}

// RemainingTokens returns the completion budget left in model's context
// window after sending msgs as the prompt. The result is negative when
// the prompt alone overflows the window.
func (t *Tokenizer) RemainingTokens(_ context.Context, model string, msgs []chat.Message) (int, error) {
	spec, err := t.Resolve(model)
	if err != nil {
		return 0, err
	}
	prompt, err := t.promptTokens(spec, model, msgs)
	if err != nil {
		return 0, err
	}
	return spec.ContextSize - prompt, nil
}

func (t *Tokenizer) promptTokens(spec ModelSpec, model string, msgs []chat.Message) (int, error) {
	enc, err := t.encoderFor(spec.Encoding)
	if err != nil {
		return 0, err
	}

	perMessage, namePenalty := messageOverhead(model)
	total := replyPrimingTokens
	for _, m := range msgs {
		total += perMessage
		total += enc.Tokens(string(m.Role))
		if m.Content != "" {
			total += enc.Tokens(m.Content)
		}
		if m.Name != "" {
			total += enc.Tokens(m.Name) + namePenalty
		}
		if m.FunctionCall != nil {
			total += enc.Tokens(m.FunctionCall.Name)
			total += enc.Tokens(m.FunctionCall.Arguments)
		}
	}
	return total, nil
}

// messageOverhead returns the fixed token cost of framing one message
// and the adjustment applied when a name field is present. The March
// 2023 gpt-3.5-turbo snapshot framed messages differently from every
// model since.
func messageOverhead(model string) (perMessage, namePenalty int) {
	if strings.HasPrefix(model, "gpt-3.5-turbo-0301") {
		return 4, -1
	}
	return 3, 1
}

func (t *Tokenizer) encoderFor(encoding string) (encoder, error) {
	t.encMu.Lock()
	defer t.encMu.Unlock()

	if enc, ok := t.encoders[encoding]; ok {
		return enc, nil
	}
	enc, err := t.newEncoder(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading encoding %q: %w", encoding, err)
	}
	t.encoders[encoding] = enc
	return enc, nil
}

var _ splitter.CostEstimator = (*Tokenizer)(nil)
