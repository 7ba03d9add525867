package providers

import (
	"github.com/samber/do/v2"

	"github.com/heyrat/heyrat-server/internal/auth"
	"github.com/heyrat/heyrat-server/internal/config"
	"github.com/heyrat/heyrat-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if len(cfg.Auth.AccessTokenKey) > 0 {
		return AuthKey(cfg.Auth.AccessTokenKey), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.KeyPath())
	if err != nil {
		return nil, err
	}
	cfg.Auth.AccessTokenKey = key

	log.Info("Authentication key loaded",
		"path", cfg.Data.KeyPath(),
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(authKey, cfg.Auth.AccessTokenDuration)
}

// ProvidePasswordHasher provides the argon2id password hasher.
func ProvidePasswordHasher(i do.Injector) (*auth.PasswordHasher, error) {
	return auth.DefaultPasswordHasher(), nil
}

// GoogleHandle holds the Google provider, or nil when it is not configured.
type GoogleHandle struct {
	*auth.GoogleProvider
}

// ProvideGoogle provides the Google OAuth provider when credentials are set.
func ProvideGoogle(i do.Injector) (*GoogleHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Google.Enabled() {
		log.Warn("Google login is not configured; /auth/google will answer 503",
			"hint", "set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET",
		)
		return &GoogleHandle{}, nil
	}

	log.Info("Google login enabled", "callback_url", cfg.Google.CallbackURL)

	return &GoogleHandle{
		GoogleProvider: auth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL),
	}, nil
}
