// Package service implements the application operations behind the API:
// identity and sessions, posts and likes, and the feed.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heyrat/heyrat-server/internal/auth"
	"github.com/heyrat/heyrat-server/internal/domain"
	domainerrors "github.com/heyrat/heyrat-server/internal/errors"
	"github.com/heyrat/heyrat-server/internal/id"
	"github.com/heyrat/heyrat-server/internal/normalize"
	"github.com/heyrat/heyrat-server/internal/store"
	"github.com/heyrat/heyrat-server/internal/validation"
)

// DisplayNamePath is where users are sent to finish account setup.
const DisplayNamePath = "/profile/display-name"

// IdentityService maps local and external credentials to user accounts and
// issues sessions for them.
type IdentityService struct {
	store     store.Users
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenService
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewIdentityService creates an identity service.
func NewIdentityService(
	users store.Users,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	validator *validation.Validator,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{
		store:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterRequest contains local sign-up credentials.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest contains local sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DisplayNameRequest sets the public handle of the current user.
type DisplayNameRequest struct {
	DisplayName string `json:"displayName" validate:"displayname"`
}

// Session is an issued access token for a user.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// ResolveExternal finds or creates the account for a provider identity.
// An existing account with the same email and no provider id is linked, and
// loses its password: local registration never proved the email. An account
// already linked to another Google id is signed in unchanged.
func (s *IdentityService) ResolveExternal(ctx context.Context, profile domain.ExternalProfile) (*domain.User, error) {
	email := normalize.Email(profile.Email)
	if email == "" {
		return nil, domainerrors.ValidationWithDetails("email is required",
			map[string]string{"email": "provider did not return a verified email"})
	}
	if profile.ID == "" {
		return nil, domainerrors.Validation("provider account id is required")
	}

	user, err := s.resolveExternal(ctx, profile.ID, email)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a race with a concurrent first login; the winner's row is there now.
		user, err = s.resolveExternal(ctx, profile.ID, email)
	}
	if err != nil {
		return nil, s.storeError(err)
	}
	return user, nil
}

func (s *IdentityService) resolveExternal(ctx context.Context, googleID, email string) (*domain.User, error) {
	now := s.now()

	user, err := s.store.FindUserByGoogleIDOrEmail(ctx, googleID, email)
	switch {
	case err == nil:
		if user.GoogleID != "" {
			if user.GoogleID != googleID {
				s.logger.Warn("email matched an account linked to another google id",
					"user_id", user.ID)
			}
			return user, nil
		}
		if err := s.store.LinkGoogleID(ctx, user.ID, googleID, now); err != nil {
			return nil, err
		}
		dropped := user.HasPassword()
		user.GoogleID = googleID
		user.PasswordHash = ""
		user.UpdatedAt = now
		s.logger.Info("linked google account", "user_id", user.ID, "password_cleared", dropped)
		return user, nil

	case errors.Is(err, store.ErrNotFound):
		user = &domain.User{
			GoogleID:  googleID,
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("created user from google login", "user_id", user.ID)
		return user, nil

	default:
		return nil, err
	}
}

// RegisterLocal creates an email and password account.
func (s *IdentityService) RegisterLocal(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Email = normalize.Email(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	now := s.now()
	user := &domain.User{
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("email already registered")
		}
		return nil, s.storeError(err)
	}

	s.logger.Info("registered local user", "user_id", user.ID)
	return user, nil
}

// LoginLocal checks an email and password pair.
func (s *IdentityService) LoginLocal(ctx context.Context, req LoginRequest) (*domain.User, error) {
	req.Email = normalize.Email(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}
	if err != nil {
		return nil, s.storeError(err)
	}
	if !user.HasPassword() || !s.hasher.Verify(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}
	return user, nil
}

// ResolveLocal finds or creates a passwordless account by email. It backs
// development sign-in only.
func (s *IdentityService) ResolveLocal(ctx context.Context, email string) (*domain.User, error) {
	email = normalize.Email(email)
	if err := s.validator.Var("email", email, "required,email"); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, s.storeError(err)
	}

	now := s.now()
	user = &domain.User{Email: email, CreatedAt: now, UpdatedAt: now}
	err = s.create(ctx, user)
	if errors.Is(err, store.ErrAlreadyExists) {
		user, err = s.store.GetUserByEmail(ctx, email)
	}
	if err != nil {
		return nil, s.storeError(err)
	}
	return user, nil
}

// SetDisplayName sets the user's public handle. It can be set once, and
// handles are unique regardless of case.
func (s *IdentityService) SetDisplayName(ctx context.Context, userID string, req DisplayNameRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	name := normalize.Text(req.DisplayName)

	err := s.store.SetDisplayName(ctx, userID, name, normalize.FoldKey(name), s.now())
	switch {
	case errors.Is(err, store.ErrDisplayNameSet):
		return nil, domainerrors.Conflict("display name already set")
	case errors.Is(err, store.ErrAlreadyExists):
		return nil, domainerrors.Conflict("display name taken")
	case errors.Is(err, store.ErrNotFound):
		return nil, domainerrors.Unauthenticated("user no longer exists")
	case err != nil:
		return nil, s.storeError(err)
	}

	return s.GetUser(ctx, userID)
}

// GetUser loads a user by id.
func (s *IdentityService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("user not found")
	}
	if err != nil {
		return nil, s.storeError(err)
	}
	return user, nil
}

// IssueSession records the sign-in and returns an access token for user.
func (s *IdentityService) IssueSession(ctx context.Context, user *domain.User) (*Session, error) {
	now := s.now()
	if err := s.store.TouchLogin(ctx, user.ID, now); err != nil {
		return nil, s.storeError(err)
	}
	user.LastLoginAt = now

	token, expires, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

// Authenticate resolves an access token to its user.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domainerrors.Unauthenticated("invalid or expired session")
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Unauthenticated("session user no longer exists")
	}
	if err != nil {
		return nil, s.storeError(err)
	}
	return user, nil
}

// RequireDisplayName fails with SETUP_INCOMPLETE when user has no display name.
func RequireDisplayName(user *domain.User) error {
	if user.RequiresDisplayName() {
		return domainerrors.SetupIncomplete("choose a display name first", DisplayNamePath)
	}
	return nil
}

func (s *IdentityService) create(ctx context.Context, user *domain.User) error {
	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return err
	}
	user.ID = userID
	return s.store.CreateUser(ctx, user)
}

// storeError passes domain errors through and hides everything else behind
// a logged storage error.
func (s *IdentityService) storeError(err error) error {
	return storageError(s.logger, err)
}

func storageError(logger *slog.Logger, err error) error {
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return err
	}
	logger.Error("storage operation failed", "error", err)
	return domainerrors.Storage(err)
}
