package splitter

import (
	"context"
	"fmt"

	"github.com/jg-phare/chatsplit/pkg/chat"
)

// CostEstimator prices a candidate prompt against a model's context
// window. Implementations must be deterministic for fixed inputs, and
// monotonic: dropping messages from the front of the slice never
// decreases the value RemainingTokens reports.
type CostEstimator interface {
	// ContextSize returns the model's context window size in tokens.
	ContextSize(model string) (int, error)

	// RemainingTokens returns how many tokens the model could still
	// generate if msgs were sent as the prompt, i.e. the context size
	// minus the prompt's token cost. The result may be negative when
	// the prompt alone overflows the window.
	RemainingTokens(ctx context.Context, model string, msgs []chat.Message) (int, error)
}

// UnsupportedModelError is returned by a CostEstimator that has no
// tokenizer rules or context size registered for the requested model.
// It is fatal to the split in progress; retrying cannot change the outcome.
type UnsupportedModelError struct {
	Model string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model %q: no tokenizer rules or context size registered", e.Model)
}
