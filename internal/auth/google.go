package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/heyrat/heyrat-server/internal/domain"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleProvider runs the OAuth 2.0 authorization code flow against Google
// and turns the result into an ExternalProfile.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// GoogleOption customizes a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithEndpoint overrides the authorization and token endpoints.
func WithEndpoint(ep oauth2.Endpoint) GoogleOption {
	return func(p *GoogleProvider) { p.config.Endpoint = ep }
}

// WithUserInfoURL overrides the userinfo endpoint.
func WithUserInfoURL(u string) GoogleOption {
	return func(p *GoogleProvider) { p.userInfoURL = u }
}

// NewGoogleProvider creates a provider for the given OAuth client.
func NewGoogleProvider(clientID, clientSecret, callbackURL string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewState returns an unguessable value to bind a callback to its login attempt.
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL returns the provider consent URL for state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// Exchange trades an authorization code for a token and fetches the profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*domain.ExternalProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // best-effort detail
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, errors.New("userinfo missing subject")
	}

	profile := &domain.ExternalProfile{
		Provider: domain.ProviderGoogle,
		ID:       info.Sub,
		Name:     info.Name,
	}
	// Unverified addresses must not link to existing accounts.
	if info.EmailVerified {
		profile.Email = info.Email
	}
	return profile, nil
}
