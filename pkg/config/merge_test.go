package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLLMProvidersUserOverridesBuiltin(t *testing.T) {
	builtin := map[string]LLMProviderConfig{
		"openai":    {Type: "openai", Model: "gpt-4o-mini"},
		"anthropic": {Type: "anthropic", Model: "claude-3-5-sonnet-latest"},
	}
	user := map[string]LLMProviderConfig{
		"openai": {Type: "openai", Model: "gpt-4o"},
		"custom": {Type: "openai", Model: "custom-model"},
	}

	merged := mergeLLMProviders(builtin, user)

	assert.Equal(t, "gpt-4o", merged["openai"].Model)
	assert.Equal(t, "claude-3-5-sonnet-latest", merged["anthropic"].Model)
	assert.Equal(t, "custom-model", merged["custom"].Model)
	assert.Len(t, merged, 3)
}
