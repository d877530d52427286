package config

import (
	"time"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/ratelimit"
)

// BuiltinConfig holds the defaults applied before user YAML is merged in,
// mirroring the teacher's GetBuiltinConfig contract.
type BuiltinConfig struct {
	LLMProviders map[string]LLMProviderConfig
	RateLimit    RateLimitConfig
	SAMR         SAMRConfig
	Secrets      SecretsConfig
	Upload       UploadConfig
	Retention    *RetentionConfig
	Jobs         JobsConfig
	Server       ServerConfig
}

// GetBuiltinConfig returns Ventro's shipped defaults. User YAML overrides
// these field-by-field in load(); nothing here is a hard requirement.
func GetBuiltinConfig() BuiltinConfig {
	limitsFromDefaults := ratelimit.DefaultLimits()
	limits := make(map[string]LimitConfig, len(limitsFromDefaults))
	for tier, l := range limitsFromDefaults {
		limits[string(tier)] = LimitConfig{
			Requests:        l.Requests,
			WindowSeconds:   int(l.Window / time.Second),
			BurstMultiplier: l.BurstMultiplier,
		}
	}

	return BuiltinConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"openai":    {Type: "openai", Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY", EmbedModel: "text-embedding-3-small", EmbedDim: 1536},
			"anthropic": {Type: "anthropic", Model: "claude-3-5-sonnet-latest", APIKeyEnv: "ANTHROPIC_API_KEY"},
			"rule_based": {Type: "rule_based"},
		},
		RateLimit: RateLimitConfig{
			Strategy: domain.StrategyPerIPAndUser,
			Limits:   limits,
		},
		SAMR: SAMRConfig{
			Enabled:              true,
			DivergenceThreshold:  0.85,
			PerturbationStrength: 0.1,
		},
		Secrets: SecretsConfig{Provider: domain.SecretsEnv},
		Upload: UploadConfig{
			SupportedFormats: []string{"pdf", "png", "jpg", "jpeg", "tiff"},
			MaxSizeMB:        25,
		},
		Retention: DefaultRetentionConfig(),
		Jobs:      DefaultJobsConfig(),
		Server: ServerConfig{
			ListenAddr:       ":8080",
			AllowedWSOrigins: []string{"http://localhost:5173"},
		},
	}
}
