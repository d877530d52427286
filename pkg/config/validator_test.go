package config

import (
	"testing"
	"time"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfigForTest(t *testing.T) *Config {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")

	builtin := GetBuiltinConfig()
	return &Config{
		Defaults: &Defaults{RateLimitStrategy: domain.StrategyPerIPAndUser, SecretsProvider: domain.SecretsEnv},
		LLM: &LLMConfig{
			ChainOrder:  []string{"openai", "rule_based"},
			Providers:   builtin.LLMProviders,
			CallTimeout: 30 * time.Second,
			Breaker:     BreakerConfig{FailureThreshold: 5, CooldownSeconds: 30},
		},
		RateLimit:           &builtin.RateLimit,
		SAMR:                &builtin.SAMR,
		Secrets:             &builtin.Secrets,
		FileEncryption:      &FileEncryptionConfig{MasterKeyEnv: "VENTRO_FILE_MASTER_KEY"},
		Upload:              &builtin.Upload,
		Jobs:                &builtin.Jobs,
		Retention:           builtin.Retention,
		Server:              &builtin.Server,
		LLMProviderRegistry: NewLLMProviderRegistry(builtin.LLMProviders),
	}
}

func TestValidatorValidateAllAcceptsBuiltinConfig(t *testing.T) {
	cfg := validConfigForTest(t)
	v := NewValidator(cfg)
	require.NoError(t, v.ValidateAll())
}

func TestValidateLLMRejectsEmptyChainOrder(t *testing.T) {
	cfg := validConfigForTest(t)
	cfg.LLM.ChainOrder = nil

	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidateLLMRejectsUnsetAPIKeyEnv(t *testing.T) {
	cfg := validConfigForTest(t)
	cfg.LLM.Providers = map[string]LLMProviderConfig{
		"openai": {Type: "openai", Model: "gpt-4o-mini", APIKeyEnv: "DEFINITELY_UNSET_VAR"},
	}
	cfg.LLM.ChainOrder = []string{"openai"}
	cfg.LLMProviderRegistry = NewLLMProviderRegistry(cfg.LLM.Providers)

	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidateSAMRRejectsOutOfRangeThreshold(t *testing.T) {
	cfg := validConfigForTest(t)
	cfg.SAMR.DivergenceThreshold = 1.5

	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidateSAMRSkipsThresholdCheckWhenDisabled(t *testing.T) {
	cfg := validConfigForTest(t)
	cfg.SAMR.Enabled = false
	cfg.SAMR.DivergenceThreshold = 1.5

	require.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidateJobsRejectsHeartbeatExceedingOrphanThreshold(t *testing.T) {
	cfg := validConfigForTest(t)
	cfg.Jobs.HeartbeatInterval = cfg.Jobs.OrphanThreshold

	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidateFileEncryptionRequiresKeyWhenProduction(t *testing.T) {
	cfg := validConfigForTest(t)
	cfg.FileEncryption = &FileEncryptionConfig{MasterKeyEnv: "VENTRO_UNSET_MASTER_KEY", Production: true}

	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidateRateLimitRejectsInvalidStrategy(t *testing.T) {
	cfg := validConfigForTest(t)
	cfg.RateLimit.Strategy = "bogus"

	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}
