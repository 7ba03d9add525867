package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyrat/heyrat-server/internal/auth"
	"github.com/heyrat/heyrat-server/internal/domain"
	domainerrors "github.com/heyrat/heyrat-server/internal/errors"
	"github.com/heyrat/heyrat-server/internal/service"
)

const stateMaxAge = 10 * time.Minute

// defaultLanding is where users land after signing in with nowhere to return to.
const defaultLanding = "/feed"

func (s *Server) registerAuthRoutes() {
	limit := huma.Middlewares{s.rateLimit(s.authLimiter)}

	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/auth/register",
		Summary:       "Register",
		Description:   "Creates a local account and signs it in",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   limit,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/auth/login",
		Summary:     "Log in",
		Description: "Authenticates with email and password and sets the session cookie",
		Tags:        []string{"Authentication"},
		Middlewares: limit,
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/auth/logout",
		Summary:     "Log out",
		Description: "Clears the session cookie",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)

	if s.opts.DevLogin {
		huma.Register(s.api, huma.Operation{
			OperationID: "devLogin",
			Method:      http.MethodPost,
			Path:        "/api/auth/dev-login",
			Summary:     "Passwordless development login",
			Description: "Finds or creates the account for an email and signs it in. Only available when AUTH_DEV_LOGIN is enabled.",
			Tags:        []string{"Authentication"},
			Middlewares: limit,
		}, s.handleDevLogin)
	}

	s.router.With(RateLimitMiddleware(s.authLimiter, s.logger)).Get("/auth/google", s.handleGoogleStart)
	s.router.With(RateLimitMiddleware(s.authLimiter, s.logger)).Get("/auth/google/callback", s.handleGoogleCallback)
}

// === DTOs ===

// SessionResponse is returned by every sign-in operation.
type SessionResponse struct {
	Token               string       `json:"token" doc:"Access token, also set as the session cookie"`
	ExpiresAt           time.Time    `json:"expiresAt" doc:"Token expiry"`
	User                *domain.User `json:"user" doc:"Signed-in user"`
	RequiresDisplayName bool         `json:"requiresDisplayName" doc:"Whether the user must choose a display name before posting"`
	Redirect            string       `json:"redirect" doc:"Where the browser should go next"`
}

// SessionOutput wraps the session response with its cookies.
type SessionOutput struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      SessionResponse
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	ReturnTo string `cookie:"heyrat_return_to"`
	Body     service.RegisterRequest
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	ReturnTo string `cookie:"heyrat_return_to"`
	Body     service.LoginRequest
}

// DevLoginRequest names the account to sign in as.
type DevLoginRequest struct {
	Email string `json:"email" doc:"Account email"`
}

// DevLoginInput wraps the dev login request for Huma.
type DevLoginInput struct {
	ReturnTo string `cookie:"heyrat_return_to"`
	Body     DevLoginRequest
}

// LogoutResponse confirms the session was cleared.
type LogoutResponse struct {
	LoggedOut bool `json:"loggedOut"`
}

// LogoutOutput wraps the logout response with the expired cookie.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      LogoutResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*SessionOutput, error) {
	user, err := s.services.Identity.RegisterLocal(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user, input.ReturnTo)
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
	user, err := s.services.Identity.LoginLocal(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user, input.ReturnTo)
}

func (s *Server) handleDevLogin(ctx context.Context, input *DevLoginInput) (*SessionOutput, error) {
	user, err := s.services.Identity.ResolveLocal(ctx, input.Body.Email)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user, input.ReturnTo)
}

func (s *Server) handleLogout(_ context.Context, _ *struct{}) (*LogoutOutput, error) {
	return &LogoutOutput{
		SetCookie: *s.cookie(sessionCookie, "", -1),
		Body:      LogoutResponse{LoggedOut: true},
	}, nil
}

// startSession issues a session for user and decides where to send the browser.
func (s *Server) startSession(ctx context.Context, user *domain.User, returnTo string) (*SessionOutput, error) {
	session, err := s.services.Identity.IssueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	cookies := []http.Cookie{*s.sessionCookie(session)}
	redirect := landingPath(user, returnTo)
	if redirect != service.DisplayNamePath {
		cookies = append(cookies, *s.cookie(returnToCookie, "", -1))
	}

	return &SessionOutput{
		SetCookie: cookies,
		Body: SessionResponse{
			Token:               session.Token,
			ExpiresAt:           session.ExpiresAt,
			User:                session.User,
			RequiresDisplayName: user.RequiresDisplayName(),
			Redirect:            redirect,
		},
	}, nil
}

func (s *Server) sessionCookie(session *service.Session) *http.Cookie {
	return s.cookie(sessionCookie, session.Token, time.Until(session.ExpiresAt))
}

// landingPath is where a freshly signed-in user goes. Users without a
// display name finish setup first; the return path cookie survives for later.
func landingPath(user *domain.User, returnTo string) string {
	if user.RequiresDisplayName() {
		return service.DisplayNamePath
	}
	if p := safeReturnPath(returnTo); p != "" {
		return p
	}
	return defaultLanding
}

// handleGoogleStart redirects the browser to Google's consent screen.
func (s *Server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		s.writeError(w, domainerrors.Unavailable("Google login is not configured"))
		return
	}

	state := auth.NewState()
	http.SetCookie(w, s.cookie(stateCookie, state, stateMaxAge))
	http.Redirect(w, r, s.google.AuthCodeURL(state), http.StatusFound)
}

// handleGoogleCallback completes the OAuth flow and signs the user in.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		s.writeError(w, domainerrors.Unavailable("Google login is not configured"))
		return
	}

	stateCookieValue, err := r.Cookie(stateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || stateCookieValue.Value != state {
		s.writeError(w, domainerrors.Unauthenticated("invalid OAuth state"))
		return
	}
	http.SetCookie(w, s.cookie(stateCookie, "", -1))

	if reason := r.URL.Query().Get("error"); reason != "" {
		s.logger.Info("google login declined", "reason", reason)
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		s.writeError(w, domainerrors.Validation("missing authorization code"))
		return
	}

	profile, err := s.google.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Warn("google code exchange failed", "error", err)
		s.writeError(w, domainerrors.Unauthenticated("google sign-in failed"))
		return
	}

	user, err := s.services.Identity.ResolveExternal(r.Context(), *profile)
	if err != nil {
		s.writeError(w, err)
		return
	}
	session, err := s.services.Identity.IssueSession(r.Context(), user)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var returnTo string
	if c, err := r.Cookie(returnToCookie); err == nil {
		returnTo = c.Value
	}
	redirect := landingPath(user, returnTo)

	http.SetCookie(w, s.sessionCookie(session))
	if redirect != service.DisplayNamePath {
		http.SetCookie(w, s.cookie(returnToCookie, "", -1))
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}
