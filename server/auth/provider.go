package auth

import (
	"github.com/gear6io/lakeshare/pkg/errors"
	"github.com/gear6io/lakeshare/server/config"
)

// ErrConfigurationMissing marks incomplete identity-provider settings. It
// is a startup condition: provider registration is skipped entirely and no
// request ever sees it.
var ErrConfigurationMissing = errors.MustNewCode("auth.configuration_missing")

// ProviderPreset is one member of the closed set of supported identity
// providers. The set is fixed at compile time and selected by a single
// config discriminator read once at startup; nothing mutates it afterwards.
type ProviderPreset struct {
	Name         string
	Scopes       []string
	SubjectClaim string
	RoleClaim    string
}

var providerPresets = map[string]ProviderPreset{
	"okta": {
		Name:         "okta",
		Scopes:       []string{"openid", "profile", "email", "groups"},
		SubjectClaim: "sub",
		RoleClaim:    "groups",
	},
	"azure-ad": {
		Name:         "azure-ad",
		Scopes:       []string{"openid", "profile", "email"},
		SubjectClaim: "oid",
		RoleClaim:    "roles",
	},
	"oidc": {
		Name:         "oidc",
		Scopes:       []string{"openid", "profile", "email"},
		SubjectClaim: "sub",
		RoleClaim:    "roles",
	},
}

// ResolveProvider selects the preset named by the config discriminator.
// It returns (nil, nil) when no provider is configured, and a
// configuration_missing error when a provider is named but its settings
// are incomplete; callers skip registration in both cases.
func ResolveProvider(cfg *config.AuthConfig) (*ProviderPreset, error) {
	if cfg == nil || cfg.Provider == "" {
		return nil, nil
	}

	preset, ok := providerPresets[cfg.Provider]
	if !ok {
		return nil, errors.New(ErrConfigurationMissing, "unknown identity provider", nil).AddContext("provider", cfg.Provider)
	}

	if cfg.IssuerURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New(ErrConfigurationMissing, "identity provider settings are incomplete", nil).AddContext("provider", cfg.Provider)
	}

	return &preset, nil
}
