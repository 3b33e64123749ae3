package splitter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jg-phare/chatsplit/pkg/chat"
)

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "gpt-3.5-turbo"

	// DefaultMaxTurns is used when Config.MaxTurns is zero.
	DefaultMaxTurns = 1024

	// MaxTurnsLimit is the platform ceiling on window length. Configured
	// values above it are clamped.
	MaxTurnsLimit = 2048

	// RecommendedMinCompletionTokens is the smallest completion
	// reservation that leaves a model useful room to answer. Configs
	// below it work but produce a diagnostic.
	RecommendedMinCompletionTokens = 256
)

// Config controls how a Splitter selects the trailing window.
type Config struct {
	// Model selects the tokenizer rules and context size the estimator
	// applies. If empty, DefaultModel is used.
	Model string

	// MaxCompletionTokens is the number of tokens reserved for the
	// model's reply. If zero, half the model's context window is used.
	MaxCompletionTokens int

	// MaxTurns caps how many messages the recent window may hold,
	// regardless of token budget. If zero, DefaultMaxTurns is used.
	// Values above MaxTurnsLimit are clamped.
	MaxTurns int

	// Logger receives diagnostics about out-of-range configuration.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Splitter partitions a conversation log into an outdated prefix and a
// recent suffix that fits the configured turn and token bounds. It holds
// no per-conversation state; one Splitter may be shared across goroutines
// as long as its estimator is safe for concurrent use.
type Splitter struct {
	estimator           CostEstimator
	model               string
	maxCompletionTokens int
	maxTurns            int
	logger              *slog.Logger
}

// New creates a Splitter backed by the given estimator. Out-of-range
// configuration values are logged and adjusted rather than rejected.
// New panics if estimator is nil.
func New(estimator CostEstimator, cfg Config) *Splitter {
	if estimator == nil {
		panic("splitter: nil estimator")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	maxTokens := cfg.MaxCompletionTokens
	switch {
	case maxTokens < 0:
		logger.Warn("negative completion reservation, using the model default",
			"max_completion_tokens", maxTokens)
		maxTokens = 0
	case maxTokens > 0 && maxTokens < RecommendedMinCompletionTokens:
		logger.Warn("completion reservation below the recommended minimum",
			"max_completion_tokens", maxTokens,
			"recommended_min", RecommendedMinCompletionTokens)
	}

	maxTurns := cfg.MaxTurns
	switch {
	case maxTurns < 0:
		logger.Warn("negative max turns, using the default",
			"max_turns", maxTurns, "default", DefaultMaxTurns)
		maxTurns = DefaultMaxTurns
	case maxTurns == 0:
		maxTurns = DefaultMaxTurns
	case maxTurns > MaxTurnsLimit:
		logger.Warn("max turns above the platform ceiling, clamping",
			"max_turns", maxTurns, "limit", MaxTurnsLimit)
		maxTurns = MaxTurnsLimit
	}

	return &Splitter{
		estimator:           estimator,
		model:               model,
		maxCompletionTokens: maxTokens,
		maxTurns:            maxTurns,
		logger:              logger,
	}
}

// Split is the outcome of partitioning a conversation log.
type Split struct {
	// Outdated is the prefix that no longer fits the window. Both
	// halves are views into the input slice; their concatenation is
	// the input, in order.
	Outdated []chat.Message

	// Recent is the trailing window to send to the completion service.
	Recent []chat.Message

	// Remaining is the completion budget left after pricing Recent,
	// measured by a final estimator call at the chosen boundary. It may
	// be negative when a single message overflows the window, and is
	// zero for an empty conversation.
	Remaining int

	// BudgetSatisfied reports whether Remaining covers the configured
	// completion reservation. It is false only when even the most
	// recent message alone busts the budget; Recent then still holds
	// that one message rather than being emptied.
	BudgetSatisfied bool
}

// Split partitions msgs into an outdated prefix and a recent suffix.
// The suffix holds at most the configured number of turns and, whenever
// achievable within that candidate set, leaves at least the configured
// completion reservation unused in the model's context window.
//
// ctx is handed to the estimator on every probe; the search itself has
// no cancellation points. Split never mutates msgs.
func (s *Splitter) Split(ctx context.Context, msgs []chat.Message) (Split, error) {
	if err := chat.ValidateMessages(msgs); err != nil {
		return Split{}, err
	}
	if len(msgs) == 0 {
		return Split{BudgetSatisfied: true}, nil
	}

	limit, err := s.completionLimit()
	if err != nil {
		return Split{}, err
	}

	base := s.turnBoundary(len(msgs))
	k, remaining, satisfied, err := s.tokenBoundary(ctx, msgs[base:], limit)
	if err != nil {
		return Split{}, err
	}

	j := base + k
	return Split{
		Outdated:        msgs[:j],
		Recent:          msgs[j:],
		Remaining:       remaining,
		BudgetSatisfied: satisfied,
	}, nil
}

// Recent returns only the trailing window of msgs, discarding the
// outdated prefix.
func (s *Splitter) Recent(ctx context.Context, msgs []chat.Message) ([]chat.Message, error) {
	res, err := s.Split(ctx, msgs)
	if err != nil {
		return nil, err
	}
	return res.Recent, nil
}

// SplitRecords partitions application records the same way Split
// partitions their canonical forms. The returned halves are views into
// records, so callers keep their own representation on both sides of
// the boundary.
func SplitRecords[M chat.Convertible](ctx context.Context, s *Splitter, records []M) (outdated, recent []M, err error) {
	msgs, err := chat.ConvertMessages(records)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.Split(ctx, msgs)
	if err != nil {
		return nil, nil, err
	}
	j := len(res.Outdated)
	return records[:j], records[j:], nil
}

// completionLimit resolves the effective completion reservation for
// this split, defaulting to half the model's context window and never
// exceeding the whole window.
func (s *Splitter) completionLimit() (int, error) {
	contextSize, err := s.estimator.ContextSize(s.model)
	if err != nil {
		return 0, err
	}
	limit := s.maxCompletionTokens
	if limit == 0 {
		return contextSize / 2, nil
	}
	return min(limit, contextSize), nil
}

// turnBoundary returns the smallest index i such that n-i messages fit
// the turn ceiling. No estimator calls are made.
func (s *Splitter) turnBoundary(n int) int {
	if n <= s.maxTurns {
		return 0
	}
	return n - s.maxTurns
}

// tokenBoundary finds the smallest index k such that msgs[k:] leaves at
// least limit tokens of completion budget, by binary search over the
// monotonic budget predicate. When no index satisfies the limit it
// returns len(msgs)-1, keeping the window non-empty; satisfied reports
// the miss. msgs must be non-empty.
func (s *Splitter) tokenBoundary(ctx context.Context, msgs []chat.Message, limit int) (k, remaining int, satisfied bool, err error) {
	m := len(msgs)

	// Most rounds the whole candidate window still fits. Probing index 0
	// first answers those in a single estimator call.
	rem, err := s.estimator.RemainingTokens(ctx, s.model, msgs)
	if err != nil {
		return 0, 0, false, err
	}
	if rem >= limit {
		return 0, rem, true, nil
	}
	if m == 1 {
		// Even this one message busts the budget. Keep it and report.
		return 0, rem, false, nil
	}

	// The budget predicate is false at 0, so the crossing lies in
	// [1, m-1] if it exists at all.
	lo, hi := 1, m-1
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		rem, err := s.estimator.RemainingTokens(ctx, s.model, msgs[mid:])
		if err != nil {
			return 0, 0, false, err
		}
		if rem >= limit {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	// Evaluate the boundary fresh instead of reusing a probe from the
	// search. The result becomes the reported budget, and a
	// nondeterministic or non-monotonic estimator is caught here.
	rem, err = s.estimator.RemainingTokens(ctx, s.model, msgs[lo:])
	if err != nil {
		return 0, 0, false, err
	}
	if rem < limit {
		if lo < m-1 {
			panic(fmt.Sprintf(
				"splitter: estimator contract violated: messages[%d:] reports %d remaining tokens, search required at least %d",
				lo, rem, limit))
		}
		return lo, rem, false, nil
	}
	return lo, rem, true, nil
}
