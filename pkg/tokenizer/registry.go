package tokenizer

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/jg-phare/chatsplit/pkg/splitter"
)

// ModelSpec binds a family of model identifiers to tokenizer rules.
type ModelSpec struct {
	// Pattern is matched against model identifiers, either exactly or
	// as a glob ("gpt-4o*").
	Pattern string `yaml:"pattern"`

	// ContextSize is the family's context window in tokens.
	ContextSize int `yaml:"context_size"`

	// Encoding names the tiktoken encoding the family uses.
	Encoding string `yaml:"encoding"`
}

// Encoding names accepted by the built-in registry.
const (
	EncodingCL100K = "cl100k_base"
	EncodingO200K  = "o200k_base"
)

func defaultSpecs() []ModelSpec {
	return []ModelSpec{
		{Pattern: "o1*", ContextSize: 200_000, Encoding: EncodingO200K},
		{Pattern: "gpt-4o*", ContextSize: 128_000, Encoding: EncodingO200K},
		{Pattern: "gpt-4-turbo*", ContextSize: 128_000, Encoding: EncodingCL100K},
		{Pattern: "gpt-4-32k*", ContextSize: 32_768, Encoding: EncodingCL100K},
		{Pattern: "gpt-4*", ContextSize: 8_192, Encoding: EncodingCL100K},
		{Pattern: "gpt-3.5-turbo-16k*", ContextSize: 16_384, Encoding: EncodingCL100K},
		{Pattern: "gpt-3.5-turbo*", ContextSize: 4_096, Encoding: EncodingCL100K},
	}
}

// Register adds spec to the registry, replacing any entry with the same
// pattern.
func (t *Tokenizer) Register(spec ModelSpec) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.specs {
		if t.specs[i].Pattern == spec.Pattern {
			t.specs[i] = spec
			return
		}
	}
	t.specs = append(t.specs, spec)
}

// Resolve returns the registered spec governing model. An exact pattern
// beats any glob; among globs the longest pattern wins, with later
// registrations breaking ties.
func (t *Tokenizer) Resolve(model string) (ModelSpec, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var (
		best     ModelSpec
		bestRank = -1
	)
	for _, spec := range t.specs {
		rank := -1
		if spec.Pattern == model {
			rank = 1 << 30
		} else if ok, err := doublestar.Match(spec.Pattern, model); err == nil && ok {
			rank = len(spec.Pattern)
		}
		if rank < 0 || rank < bestRank {
			continue
		}
		best, bestRank = spec, rank
	}
	if bestRank < 0 {
		return ModelSpec{}, &splitter.UnsupportedModelError{Model: model}
	}
	return best, nil
}

// Specs returns a snapshot of the registry.
func (t *Tokenizer) Specs() []ModelSpec {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]ModelSpec(nil), t.specs...)
}
