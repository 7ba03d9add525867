package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/heyrat/heyrat-server/internal/id"
)

const (
	tokenIssuer   = "heyrat-server"
	tokenAudience = "heyrat-web"
)

// ErrInvalidToken is returned for tokens that fail decryption or claim checks.
var ErrInvalidToken = errors.New("invalid access token")

// Claims are the verified contents of an access token.
type Claims struct {
	UserID    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and verifies PASETO v4.local access tokens.
type TokenService struct {
	key      paseto.V4SymmetricKey
	duration time.Duration
	now      func() time.Time
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, duration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	if duration <= 0 {
		return nil, errors.New("token duration must be positive")
	}

	symmetric, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("create PASETO symmetric key: %w", err)
	}

	return &TokenService{key: symmetric, duration: duration, now: time.Now}, nil
}

// Issue creates an encrypted access token whose subject is userID.
func (s *TokenService) Issue(userID string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.duration)

	tokenID, err := id.Generate("token")
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token ID: %w", err)
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(userID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)
	token.SetJti(tokenID)

	return token.V4Encrypt(s.key, nil), expires, nil
}

// Verify decrypts a token and checks issuer, audience and validity window.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.key, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	subject, err := token.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := &Claims{UserID: subject}
	claims.TokenID, _ = token.GetJti()          //nolint:errcheck // optional claim
	claims.IssuedAt, _ = token.GetIssuedAt()    //nolint:errcheck // optional claim
	claims.ExpiresAt, _ = token.GetExpiration() //nolint:errcheck // checked by ValidAt
	return claims, nil
}

// Duration returns the configured token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}
