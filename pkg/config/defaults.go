package config

import "github.com/NeoOne601/ventro/pkg/domain"

// Defaults contains system-wide default configurations used when a
// component doesn't specify its own value.
type Defaults struct {
	// RateLimitStrategy is the bucket-key strategy applied when a request
	// carries no tier-specific override.
	RateLimitStrategy domain.RateLimitStrategy `yaml:"rate_limit_strategy,omitempty"`

	// SecretsProvider selects the backend ResolveProvider falls back to.
	SecretsProvider domain.SecretsProvider `yaml:"secrets_provider,omitempty"`
}
