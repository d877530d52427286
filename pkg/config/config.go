package config

// Config is the umbrella configuration object returned by Initialize and
// used throughout the application.
type Config struct {
	configDir string

	Defaults       *Defaults
	LLM            *LLMConfig
	RateLimit      *RateLimitConfig
	SAMR           *SAMRConfig
	Secrets        *SecretsConfig
	FileEncryption *FileEncryptionConfig
	Upload         *UploadConfig
	Jobs           *JobsConfig
	Retention      *RetentionConfig
	Server         *ServerConfig

	LLMProviderRegistry *LLMProviderRegistry
}

// ConfigStats contains statistics about loaded configuration.
type ConfigStats struct {
	LLMProviders int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		LLMProviders: c.LLMProviderRegistry.Len(),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetLLMProvider retrieves an LLM provider configuration by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}
