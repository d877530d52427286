package config

import (
	"fmt"
	"os"

	"github.com/NeoOne601/ventro/pkg/domain"
)

// Validator validates configuration comprehensively with clear error messages
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first error)
func (v *Validator) ValidateAll() error {
	if err := v.validateLLM(); err != nil {
		return fmt.Errorf("LLM validation failed: %w", err)
	}

	if err := v.validateRateLimit(); err != nil {
		return fmt.Errorf("rate limit validation failed: %w", err)
	}

	if err := v.validateSAMR(); err != nil {
		return fmt.Errorf("SAMR validation failed: %w", err)
	}

	if err := v.validateSecrets(); err != nil {
		return fmt.Errorf("secrets validation failed: %w", err)
	}

	if err := v.validateFileEncryption(); err != nil {
		return fmt.Errorf("file encryption validation failed: %w", err)
	}

	if err := v.validateUpload(); err != nil {
		return fmt.Errorf("upload validation failed: %w", err)
	}

	if err := v.validateJobs(); err != nil {
		return fmt.Errorf("jobs validation failed: %w", err)
	}

	if err := v.validateRetention(); err != nil {
		return fmt.Errorf("retention validation failed: %w", err)
	}

	if err := v.validateServer(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateLLM() error {
	llm := v.cfg.LLM
	if llm == nil {
		return fmt.Errorf("LLM configuration is nil")
	}

	if len(llm.ChainOrder) == 0 {
		return NewValidationError("llm", "", "chain_order", fmt.Errorf("at least one provider required"))
	}

	for _, name := range llm.ChainOrder {
		provider, ok := llm.Providers[name]
		if !ok {
			return NewValidationError("llm", name, "chain_order", fmt.Errorf("provider referenced in chain_order but not defined"))
		}
		if provider.Type == "" {
			return NewValidationError("llm_provider", name, "type", fmt.Errorf("type required"))
		}
		if provider.Type != "rule_based" && provider.Model == "" {
			return NewValidationError("llm_provider", name, "model", fmt.Errorf("model required for provider type %s", provider.Type))
		}
		if provider.APIKeyEnv != "" {
			if value := os.Getenv(provider.APIKeyEnv); value == "" {
				return NewValidationError("llm_provider", name, "api_key_env", fmt.Errorf("environment variable %s is not set", provider.APIKeyEnv))
			}
		}
	}

	if llm.CallTimeout <= 0 {
		return NewValidationError("llm", "", "call_timeout", fmt.Errorf("must be positive"))
	}
	if llm.Breaker.FailureThreshold < 1 {
		return NewValidationError("llm", "", "breaker.failure_threshold", fmt.Errorf("must be at least 1"))
	}
	if llm.Breaker.CooldownSeconds < 1 {
		return NewValidationError("llm", "", "breaker.cooldown_seconds", fmt.Errorf("must be at least 1"))
	}

	return nil
}

func (v *Validator) validateRateLimit() error {
	rl := v.cfg.RateLimit
	if rl == nil {
		return fmt.Errorf("rate limit configuration is nil")
	}

	if !isValidRateLimitStrategy(rl.Strategy) {
		return NewValidationError("rate_limit", "", "strategy", fmt.Errorf("invalid strategy: %s", rl.Strategy))
	}

	for tier, limit := range rl.Limits {
		if limit.Requests < 1 {
			return NewValidationError("rate_limit", tier, "requests", fmt.Errorf("must be at least 1"))
		}
		if limit.WindowSeconds < 1 {
			return NewValidationError("rate_limit", tier, "window_seconds", fmt.Errorf("must be at least 1"))
		}
		if limit.BurstMultiplier < 1 {
			return NewValidationError("rate_limit", tier, "burst_multiplier", fmt.Errorf("must be at least 1"))
		}
	}

	if _, err := rl.ToLimiterConfig(); err != nil {
		return NewValidationError("rate_limit", "", "whitelist", err)
	}

	return nil
}

func (v *Validator) validateSAMR() error {
	s := v.cfg.SAMR
	if s == nil {
		return fmt.Errorf("SAMR configuration is nil")
	}

	if !s.Enabled {
		return nil
	}

	if s.DivergenceThreshold < 0 || s.DivergenceThreshold > 1 {
		return NewValidationError("samr", "", "divergence_threshold", fmt.Errorf("must be between 0 and 1, got %v", s.DivergenceThreshold))
	}
	if s.PerturbationStrength < 0 || s.PerturbationStrength > 1 {
		return NewValidationError("samr", "", "perturbation_strength", fmt.Errorf("must be between 0 and 1, got %v", s.PerturbationStrength))
	}

	return nil
}

func (v *Validator) validateSecrets() error {
	s := v.cfg.Secrets
	if s == nil {
		return fmt.Errorf("secrets configuration is nil")
	}

	if !isValidSecretsProvider(s.Provider) {
		return NewValidationError("secrets", "", "provider", fmt.Errorf("invalid provider: %s", s.Provider))
	}

	return nil
}

func (v *Validator) validateFileEncryption() error {
	fe := v.cfg.FileEncryption
	if fe == nil {
		return fmt.Errorf("file encryption configuration is nil")
	}

	if fe.MasterKeyEnv == "" {
		return NewValidationError("file_encryption", "", "master_key_env", fmt.Errorf("required"))
	}

	if fe.Production {
		if value := os.Getenv(fe.MasterKeyEnv); value == "" {
			return NewValidationError("file_encryption", "", "master_key_env", fmt.Errorf("environment variable %s is not set, but production=true requires a master key", fe.MasterKeyEnv))
		}
	}

	return nil
}

func (v *Validator) validateUpload() error {
	u := v.cfg.Upload
	if u == nil {
		return fmt.Errorf("upload configuration is nil")
	}

	if len(u.SupportedFormats) == 0 {
		return NewValidationError("upload", "", "supported_formats", fmt.Errorf("at least one format required"))
	}
	if u.MaxSizeMB < 1 {
		return NewValidationError("upload", "", "max_size_mb", fmt.Errorf("must be at least 1"))
	}

	return nil
}

func (v *Validator) validateJobs() error {
	j := v.cfg.Jobs
	if j == nil {
		return fmt.Errorf("jobs configuration is nil")
	}

	if j.WorkerCount < 1 || j.WorkerCount > 50 {
		return fmt.Errorf("worker_count must be between 1 and 50, got %d", j.WorkerCount)
	}
	if j.MaxConcurrentTasks < 1 {
		return fmt.Errorf("max_concurrent_tasks must be at least 1, got %d", j.MaxConcurrentTasks)
	}
	if j.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", j.PollInterval)
	}
	if j.PollIntervalJitter < 0 {
		return fmt.Errorf("poll_interval_jitter must be non-negative, got %v", j.PollIntervalJitter)
	}
	if j.PollIntervalJitter >= j.PollInterval {
		return fmt.Errorf("poll_interval_jitter must be less than poll_interval, got jitter=%v interval=%v", j.PollIntervalJitter, j.PollInterval)
	}
	if j.SoftTimeout <= 0 {
		return fmt.Errorf("soft_timeout must be positive, got %v", j.SoftTimeout)
	}
	if j.HardTimeout <= j.SoftTimeout {
		return fmt.Errorf("hard_timeout must be greater than soft_timeout, got hard=%v soft=%v", j.HardTimeout, j.SoftTimeout)
	}
	if j.OrphanDetectionInterval <= 0 {
		return fmt.Errorf("orphan_detection_interval must be positive, got %v", j.OrphanDetectionInterval)
	}
	if j.OrphanThreshold <= 0 {
		return fmt.Errorf("orphan_threshold must be positive, got %v", j.OrphanThreshold)
	}
	if j.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive, got %v", j.HeartbeatInterval)
	}
	if j.HeartbeatInterval >= j.OrphanThreshold {
		return fmt.Errorf("heartbeat_interval must be less than orphan_threshold to prevent false orphan detection, got heartbeat=%v threshold=%v", j.HeartbeatInterval, j.OrphanThreshold)
	}
	if j.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", j.MaxAttempts)
	}
	if j.BackoffBase <= 0 {
		return fmt.Errorf("backoff_base must be positive, got %v", j.BackoffBase)
	}
	if j.BackoffMax < j.BackoffBase {
		return fmt.Errorf("backoff_max must be at least backoff_base, got max=%v base=%v", j.BackoffMax, j.BackoffBase)
	}

	return nil
}

func (v *Validator) validateRetention() error {
	r := v.cfg.Retention
	if r == nil {
		return fmt.Errorf("retention configuration is nil")
	}

	if r.SessionRetentionDays < 1 {
		return fmt.Errorf("session_retention_days must be at least 1, got %d", r.SessionRetentionDays)
	}
	if r.EventTTL <= 0 {
		return fmt.Errorf("event_ttl must be positive, got %v", r.EventTTL)
	}
	if r.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup_interval must be positive, got %v", r.CleanupInterval)
	}

	return nil
}

func isValidRateLimitStrategy(s domain.RateLimitStrategy) bool {
	switch s {
	case domain.StrategyPerIP, domain.StrategyPerUser, domain.StrategyPerOrg, domain.StrategyPerIPAndUser, domain.StrategyGlobal:
		return true
	default:
		return false
	}
}

func isValidSecretsProvider(p domain.SecretsProvider) bool {
	switch p {
	case domain.SecretsEnv, domain.SecretsVault, domain.SecretsAWS, domain.SecretsAuto:
		return true
	default:
		return false
	}
}

func (v *Validator) validateServer() error {
	s := v.cfg.Server
	if s == nil {
		return fmt.Errorf("server configuration is nil")
	}

	if s.ListenAddr == "" {
		return NewValidationError("server", "", "listen_addr", fmt.Errorf("required"))
	}

	return nil
}
