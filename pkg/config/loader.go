package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// VentroYAMLConfig represents the complete ventro.yaml file structure. Every
// section is optional; anything left unset falls back to GetBuiltinConfig's
// defaults during merge.
type VentroYAMLConfig struct {
	Defaults       *Defaults             `yaml:"defaults"`
	LLM            *LLMConfig            `yaml:"llm"`
	RateLimit      *RateLimitConfig      `yaml:"rate_limit"`
	SAMR           *SAMRConfig           `yaml:"samr"`
	Secrets        *SecretsConfig        `yaml:"secrets"`
	FileEncryption *FileEncryptionConfig `yaml:"file_encryption"`
	Upload         *UploadConfig         `yaml:"upload"`
	Jobs           *JobsConfig           `yaml:"jobs"`
	Retention      *RetentionConfig      `yaml:"retention"`
	Server         *ServerConfig         `yaml:"server"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load ventro.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined configurations
//  5. Build in-memory registries
//  6. Apply default values for unset sections
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully", "llm_providers", stats.LLMProviders)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadVentroYAML()
	if err != nil {
		return nil, NewLoadError("ventro.yaml", err)
	}

	builtin := GetBuiltinConfig()

	// Defaults
	defaults := yamlCfg.Defaults
	if defaults == nil {
		defaults = &Defaults{}
	}
	if defaults.RateLimitStrategy == "" {
		defaults.RateLimitStrategy = builtin.RateLimit.Strategy
	}
	if defaults.SecretsProvider == "" {
		defaults.SecretsProvider = builtin.Secrets.Provider
	}

	// LLM: merge provider map, fall back to built-in chain order/timeout/breaker
	llm := yamlCfg.LLM
	if llm == nil {
		llm = &LLMConfig{}
	}
	llm.Providers = mergeLLMProviders(builtin.LLMProviders, llm.Providers)
	if len(llm.ChainOrder) == 0 {
		llm.ChainOrder = []string{"openai", "anthropic", "rule_based"}
	}
	if llm.CallTimeout == 0 {
		llm.CallTimeout = defaultLLMCallTimeout
	}
	if llm.Breaker.FailureThreshold == 0 {
		llm.Breaker.FailureThreshold = defaultBreakerFailureThreshold
	}
	if llm.Breaker.CooldownSeconds == 0 {
		llm.Breaker.CooldownSeconds = defaultBreakerCooldownSeconds
	}
	llmProviderRegistry := NewLLMProviderRegistry(llm.Providers)

	// Rate limit
	rateLimit := yamlCfg.RateLimit
	if rateLimit == nil {
		rateLimit = &RateLimitConfig{}
	}
	if rateLimit.Strategy == "" {
		rateLimit.Strategy = builtin.RateLimit.Strategy
	}
	rateLimit.Limits = mergeRateLimitTiers(builtin.RateLimit.Limits, rateLimit.Limits)

	// SAMR
	samr := yamlCfg.SAMR
	if samr == nil {
		samr = &builtin.SAMR
	} else {
		if samr.DivergenceThreshold == 0 {
			samr.DivergenceThreshold = builtin.SAMR.DivergenceThreshold
		}
		if samr.PerturbationStrength == 0 {
			samr.PerturbationStrength = builtin.SAMR.PerturbationStrength
		}
	}

	// Secrets
	secrets := yamlCfg.Secrets
	if secrets == nil {
		secrets = &builtin.Secrets
	}

	// File encryption
	fileEnc := yamlCfg.FileEncryption
	if fileEnc == nil {
		fileEnc = &FileEncryptionConfig{MasterKeyEnv: "VENTRO_FILE_MASTER_KEY"}
	}

	// Upload
	upload := yamlCfg.Upload
	if upload == nil {
		upload = &builtin.Upload
	}

	// Jobs: start from the built-in defaults, then let any user-set,
	// non-zero field override them (mirrors the teacher's own queue-config
	// merge step).
	jobsCfg := builtin.Jobs
	if yamlCfg.Jobs != nil {
		if err := mergo.Merge(&jobsCfg, yamlCfg.Jobs, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge jobs config: %w", err)
		}
	}

	// Retention
	retention := *builtin.Retention
	if yamlCfg.Retention != nil {
		if err := mergo.Merge(&retention, yamlCfg.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retention config: %w", err)
		}
	}

	// Server
	server := yamlCfg.Server
	if server == nil {
		server = &builtin.Server
	} else if len(server.AllowedWSOrigins) == 0 {
		server.AllowedWSOrigins = builtin.Server.AllowedWSOrigins
	}

	return &Config{
		configDir:           configDir,
		Defaults:            defaults,
		LLM:                 llm,
		RateLimit:           rateLimit,
		SAMR:                samr,
		Secrets:             secrets,
		FileEncryption:      fileEnc,
		Upload:              upload,
		Jobs:                &jobsCfg,
		Retention:           &retention,
		Server:              server,
		LLMProviderRegistry: llmProviderRegistry,
	}, nil
}

const (
	defaultLLMCallTimeout          = 30 * time.Second
	defaultBreakerFailureThreshold = 5
	defaultBreakerCooldownSeconds  = 30
)

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables using {{.VAR}} template syntax. ExpandEnv
	// passes through original data on parse/execution errors, allowing the
	// YAML parser to handle the content (or fail with a clearer message).
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadVentroYAML() (*VentroYAMLConfig, error) {
	var cfg VentroYAMLConfig
	if err := l.loadYAML("ventro.yaml", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
