package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMProviderRegistryGetAllReturnsDefensiveCopy(t *testing.T) {
	reg := NewLLMProviderRegistry(map[string]LLMProviderConfig{
		"openai": {Type: "openai", Model: "gpt-4o-mini"},
	})

	all := reg.GetAll()
	all["openai"] = LLMProviderConfig{Type: "mutated"}

	p, err := reg.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Type)
}

func TestLLMProviderRegistryGetUnknownReturnsErrLLMProviderNotFound(t *testing.T) {
	reg := NewLLMProviderRegistry(nil)

	_, err := reg.Get("missing")
	assert.ErrorIs(t, err, ErrLLMProviderNotFound)
}

func TestLLMProviderRegistryHasAndLen(t *testing.T) {
	reg := NewLLMProviderRegistry(map[string]LLMProviderConfig{
		"openai":    {Type: "openai"},
		"anthropic": {Type: "anthropic"},
	})

	assert.True(t, reg.Has("openai"))
	assert.False(t, reg.Has("groq"))
	assert.Equal(t, 2, reg.Len())
}

func TestLLMProviderRegistryConstructorCopiesInput(t *testing.T) {
	src := map[string]LLMProviderConfig{"openai": {Type: "openai"}}
	reg := NewLLMProviderRegistry(src)

	src["openai"] = LLMProviderConfig{Type: "mutated"}

	p, err := reg.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Type)
}
