package fileenc

import (
	"context"
	"os"

	"github.com/NeoOne601/ventro/pkg/apperrors"
	"github.com/NeoOne601/ventro/pkg/domain"
)

// SecretsProvider is the ISecretsProvider capability interface from
// spec.md §9: resolve a named secret from whichever backend is configured.
type SecretsProvider interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// EnvSecretsProvider reads secrets from process environment variables.
type EnvSecretsProvider struct{}

func (EnvSecretsProvider) GetSecret(_ context.Context, name string) (string, error) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return "", apperrors.New(apperrors.KindNotFound, "secret not set: "+name)
	}
	return val, nil
}

// ResolveProvider picks a concrete SecretsProvider for the configured
// strategy. "auto" prefers a managed backend when its SDK client is
// supplied and otherwise falls back to the environment.
func ResolveProvider(kind domain.SecretsProvider, managed SecretsProvider) SecretsProvider {
	switch kind {
	case domain.SecretsEnv:
		return EnvSecretsProvider{}
	case domain.SecretsVault, domain.SecretsAWS:
		if managed != nil {
			return managed
		}
		return EnvSecretsProvider{}
	case domain.SecretsAuto:
		if managed != nil {
			return managed
		}
		return EnvSecretsProvider{}
	default:
		return EnvSecretsProvider{}
	}
}
