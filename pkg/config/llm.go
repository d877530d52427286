package config

import (
	"fmt"
	"sync"
	"time"
)

// LLMProviderConfig configures one chain member of the LLM router (C6).
// Type selects which concrete llmrouter.Provider to construct; Model,
// APIKeyEnv, and the embed fields are provider-specific and ignored by
// providers that don't need them (e.g. rule_based).
type LLMProviderConfig struct {
	Type       string `yaml:"type" validate:"required"`
	Model      string `yaml:"model,omitempty"`
	APIKeyEnv  string `yaml:"api_key_env,omitempty"`
	EmbedModel string `yaml:"embed_model,omitempty"`
	EmbedDim   int    `yaml:"embed_dim,omitempty"`
}

// BreakerConfig tunes the per-provider circuit breaker.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold,omitempty" validate:"omitempty,min=1"`
	CooldownSeconds  int `yaml:"cooldown_seconds,omitempty" validate:"omitempty,min=1"`
}

// LLMConfig is the router's whole configuration surface: the ordered
// failover chain plus each member's settings, per spec.md §6's
// "LLM chain [...], provider timeouts, circuit thresholds".
type LLMConfig struct {
	ChainOrder  []string                     `yaml:"chain_order" validate:"required,min=1"`
	Providers   map[string]LLMProviderConfig `yaml:"providers"`
	CallTimeout time.Duration                `yaml:"call_timeout,omitempty"`
	Breaker     BreakerConfig                `yaml:"breaker,omitempty"`
}

// LLMProviderRegistry stores resolved provider configurations with
// thread-safe lookup, mirroring the teacher's registry idiom.
type LLMProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]LLMProviderConfig
}

// NewLLMProviderRegistry builds a registry over a defensive copy of providers.
func NewLLMProviderRegistry(providers map[string]LLMProviderConfig) *LLMProviderRegistry {
	copied := make(map[string]LLMProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &LLMProviderRegistry{providers: copied}
}

// Get retrieves a provider configuration by name.
func (r *LLMProviderRegistry) Get(name string) (LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return LLMProviderConfig{}, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return p, nil
}

// GetAll returns a copy of every registered provider configuration.
func (r *LLMProviderRegistry) GetAll() map[string]LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]LLMProviderConfig, len(r.providers))
	for k, v := range r.providers {
		out[k] = v
	}
	return out
}

// Has reports whether name is a registered provider.
func (r *LLMProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Len returns the number of registered providers.
func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
