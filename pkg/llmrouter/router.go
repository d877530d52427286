package llmrouter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

// Embedder is the narrow capability the router needs to compute reasoning
// vectors; satisfied by retrieval.IEmbedder without importing that package
// (retrieval already depends on this package's providers being wired in at
// the composition root, so the dependency only goes one way).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// chainMember pairs a provider with its own circuit breaker.
type chainMember struct {
	provider Provider
	breaker  *Breaker
}

// Router iterates an ordered provider chain, skipping open breakers, and
// always succeeds because the chain's last member is a RuleBasedProvider.
type Router struct {
	members  []chainMember
	embedder Embedder
}

// NewRouter builds a router from an ordered list of providers. If none of
// them is a *RuleBasedProvider, one is appended so the chain always
// terminates successfully, per spec.md §4.6.
func NewRouter(providers []Provider, embedder Embedder, breakerCfg BreakerConfig) *Router {
	hasTerminal := false
	for _, p := range providers {
		if _, ok := p.(*RuleBasedProvider); ok {
			hasTerminal = true
			break
		}
	}
	if !hasTerminal {
		dim := 0
		if embedder != nil {
			dim = embedder.Dimensions()
		}
		providers = append(providers, NewRuleBasedProvider(dim))
	}

	members := make([]chainMember, len(providers))
	for i, p := range providers {
		members[i] = chainMember{provider: p, breaker: NewBreaker(breakerCfg)}
	}
	return &Router{members: members, embedder: embedder}
}

// Complete iterates active (non-open) providers in order, trying each under
// CallTimeout, recording success/failure in its breaker, and returning the
// first success.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	var lastErr error
	for _, m := range r.members {
		if !m.breaker.Allow() {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, CallTimeout)
		result, err := m.provider.Complete(callCtx, req)
		cancel()
		if err != nil {
			m.breaker.RecordFailure()
			lastErr = err
			slog.Warn("llm provider failed, trying next in chain", "provider", m.provider.Name(), "error", err)
			continue
		}
		m.breaker.RecordSuccess()
		return result, nil
	}
	if lastErr == nil {
		lastErr = apperrors.New(apperrors.KindTransient, "no active providers in chain")
	}
	return CompletionResult{}, apperrors.Wrap(apperrors.KindTransient, "all llm providers exhausted", lastErr)
}

// GetReasoningVector runs the chain's completion for prompt, then embeds
// "Reasoning: <prompt>\nConclusion: <completion>" through the single shared
// embedder so every reasoning vector lives in the embedder's dimension D.
// On total failure it returns the zero vector; SAMR treats a zero vector as
// maximally divergent rather than this function raising.
func (r *Router) GetReasoningVector(ctx context.Context, prompt string) ([]float32, error) {
	dim := 0
	if r.embedder != nil {
		dim = r.embedder.Dimensions()
	}
	result, err := r.Complete(ctx, CompletionRequest{Prompt: prompt})
	if err != nil {
		slog.Warn("reasoning vector completion failed, returning zero vector", "error", err)
		return make([]float32, dim), nil
	}
	text := fmt.Sprintf("Reasoning: %s\nConclusion: %s", prompt, result.Text)
	if r.embedder == nil {
		return DeterministicHashVector(text, dim), nil
	}
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		slog.Warn("shared embedder failed, returning zero vector", "error", err)
		return make([]float32, dim), nil
	}
	return vec, nil
}

// Status returns {provider_name: {state, failure_count}}, per spec.md §4.6.
func (r *Router) Status() map[string]Status {
	out := make(map[string]Status, len(r.members))
	for _, m := range r.members {
		out[m.provider.Name()] = m.breaker.Status()
	}
	return out
}
