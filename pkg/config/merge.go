package config

// mergeLLMProviders merges built-in and user-defined LLM provider configurations.
// User-defined providers override built-in providers with the same name.
func mergeLLMProviders(builtinProviders map[string]LLMProviderConfig, userProviders map[string]LLMProviderConfig) map[string]LLMProviderConfig {
	result := make(map[string]LLMProviderConfig, len(builtinProviders)+len(userProviders))

	for name, provider := range builtinProviders {
		result[name] = provider
	}

	for name, userProvider := range userProviders {
		result[name] = userProvider
	}

	return result
}

// mergeRateLimitTiers merges built-in and user-defined rate-limit tiers.
// User-defined tiers override built-in tiers with the same name.
func mergeRateLimitTiers(builtinLimits map[string]LimitConfig, userLimits map[string]LimitConfig) map[string]LimitConfig {
	result := make(map[string]LimitConfig, len(builtinLimits)+len(userLimits))

	for tier, limit := range builtinLimits {
		result[tier] = limit
	}

	for tier, userLimit := range userLimits {
		result[tier] = userLimit
	}

	return result
}
