package providers

import (
	"github.com/samber/do/v2"

	"github.com/fairytaleapp/fairytale-server/internal/auth"
	"github.com/fairytaleapp/fairytale-server/internal/config"
)

// ProvideTokenService provides the access token issuer.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return auth.NewTokenService([]byte(cfg.Auth.SigningKey), cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenDuration), nil
}

// ProvideGoogleVerifier provides the Google ID token verifier.
func ProvideGoogleVerifier(i do.Injector) (auth.GoogleVerifier, error) {
	return auth.NewGoogleTokenVerifier(), nil
}
