package llmrouter

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// CompletionRequest is the ILLMClient.complete() call shape from spec.md §4.6.
type CompletionRequest struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// CompletionResult is one provider's answer.
type CompletionResult struct {
	Text     string
	Provider string
}

// Provider is the ILLMClient capability interface: the one operation every
// chain member must support. Embeddings for get_reasoning_vector go through
// a single shared embedder (see router.go), not per-provider, so every
// reasoning vector lives in the same space as retrieval embeddings.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CallTimeout bounds every provider attempt within the chain.
const CallTimeout = 30 * time.Second

// RuleBasedProvider is the terminal, always-present fallback: a
// regex-driven extractor that never fails. The router appends it to the
// chain if the configured chain omits it, per spec.md §4.6.
type RuleBasedProvider struct {
	dimensions int
}

func NewRuleBasedProvider(dimensions int) *RuleBasedProvider {
	return &RuleBasedProvider{dimensions: dimensions}
}

func (r *RuleBasedProvider) Name() string { return "rule_based" }

var totalLineRe = regexp.MustCompile(`(?i)total[^\d]{0,20}([\d,]+\.\d{2})`)

// Complete applies a small set of regexes a human analyst would reach for
// absent any model: it never errors, guaranteeing the chain always
// terminates successfully.
func (r *RuleBasedProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResult, error) {
	match := totalLineRe.FindStringSubmatch(req.Prompt)
	text := "{}"
	if len(match) > 1 {
		text = fmt.Sprintf(`{"total": "%s"}`, match[1])
	}
	return CompletionResult{Text: text, Provider: r.Name()}, nil
}

// DeterministicHashVector hashes text into a fixed-dimension vector; it is
// the shared embedder's own terminal fallback when every real embedding
// provider is unavailable, keeping get_reasoning_vector total rather than
// forcing a zero vector on every non-fatal embedding failure.
func DeterministicHashVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	if dim == 0 {
		return vec
	}
	h := uint32(2166136261)
	for i := 0; i < len(text); i++ {
		h ^= uint32(text[i])
		h *= 16777619
		vec[int(h)%dim] += 1
	}
	return vec
}
