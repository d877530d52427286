package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStatsReportsProviderCount(t *testing.T) {
	cfg := &Config{
		LLMProviderRegistry: NewLLMProviderRegistry(map[string]LLMProviderConfig{
			"openai":    {Type: "openai"},
			"anthropic": {Type: "anthropic"},
		}),
	}

	assert.Equal(t, 2, cfg.Stats().LLMProviders)
}

func TestConfigGetLLMProviderDelegatesToRegistry(t *testing.T) {
	cfg := &Config{
		LLMProviderRegistry: NewLLMProviderRegistry(map[string]LLMProviderConfig{
			"openai": {Type: "openai", Model: "gpt-4o-mini"},
		}),
	}

	p, err := cfg.GetLLMProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.Model)

	_, err = cfg.GetLLMProvider("missing")
	assert.Error(t, err)
}

func TestConfigConfigDirReturnsLoadedPath(t *testing.T) {
	cfg := &Config{configDir: "/etc/ventro"}
	assert.Equal(t, "/etc/ventro", cfg.ConfigDir())
}
