package config

import "github.com/NeoOne601/ventro/pkg/domain"

// SecretsConfig selects C1/C4's secrets backend, per spec.md §6's
// "secrets provider ∈ {env, vault, aws, auto}".
type SecretsConfig struct {
	Provider domain.SecretsProvider `yaml:"provider" validate:"required"`
}

// FileEncryptionConfig configures C4's envelope encryption service.
type FileEncryptionConfig struct {
	// MasterKeyEnv names the environment variable holding the base64
	// 32-byte master key; resolved through the configured SecretsConfig
	// provider rather than read directly when Provider != "env".
	MasterKeyEnv string `yaml:"master_key_env" validate:"required"`
	Production   bool   `yaml:"production"`
}

// UploadConfig bounds what /documents/upload accepts, per spec.md §6's
// "supported upload formats".
type UploadConfig struct {
	SupportedFormats []string `yaml:"supported_formats" validate:"required,min=1"`
	MaxSizeMB        int      `yaml:"max_size_mb" validate:"required,min=1"`
}
