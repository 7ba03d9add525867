package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyrat/heyrat-server/internal/domain"
	domainerrors "github.com/heyrat/heyrat-server/internal/errors"
	"github.com/heyrat/heyrat-server/internal/service"
)

// Cookie names.
const (
	sessionCookie  = "heyrat_session"
	returnToCookie = "heyrat_return_to"
	stateCookie    = "heyrat_oauth_state"
)

// loginPath is the browser sign-in page.
const loginPath = "/auth/login"

type ctxKey string

const userKey ctxKey = "user"

// userFromContext returns the signed-in user, or nil for anonymous requests.
func userFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}

// viewerID returns the signed-in user id or "" for anonymous requests.
func viewerID(ctx context.Context) string {
	if u := userFromContext(ctx); u != nil {
		return u.ID
	}
	return ""
}

// requireUser returns the signed-in user or UNAUTHENTICATED.
func requireUser(ctx context.Context) (*domain.User, error) {
	u := userFromContext(ctx)
	if u == nil {
		return nil, domainerrors.Unauthenticated("authentication required")
	}
	return u, nil
}

// sessionToken reads the access token from the session cookie or a Bearer header.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// authenticate attaches the session user to the request context when the
// token is valid. Requests without a valid session continue anonymously;
// handlers decide whether that is allowed.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.services.Identity.Authenticate(r.Context(), token)
		if err != nil {
			s.logger.Debug("ignoring invalid session", "error", err, "path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth rejects anonymous callers before huma parses the request, so a
// malformed body never hides the 401. With setup set, users without a display
// name get SETUP_INCOMPLETE as well.
func (s *Server) requireAuth(setup bool) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		user := userFromContext(ctx.Context())
		if user == nil {
			err := domainerrors.Unauthenticated("authentication required")
			_ = huma.WriteErr(s.api, ctx, err.HTTPStatus(), err.Message, err)
			return
		}
		if setup {
			if err := service.RequireDisplayName(user); err != nil {
				var derr *domainerrors.Error
				if domainerrors.As(err, &derr) {
					_ = huma.WriteErr(s.api, ctx, derr.HTTPStatus(), derr.Message, derr)
					return
				}
			}
		}
		next(ctx)
	}
}

// requireBrowserUser sends anonymous browser navigation to the login page,
// remembering where it was headed.
func (s *Server) requireBrowserUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		http.SetCookie(w, s.cookie(returnToCookie, returnPath(r), returnToMaxAge))
		http.Redirect(w, r, loginPath, http.StatusFound)
	})
}

// returnPath is the path to come back to after signing in. Non-GET requests
// return to the referring page.
func returnPath(r *http.Request) string {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.URL.RequestURI()
	}
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
		if p := safeReturnPath(ref.RequestURI()); p != "" {
			return p
		}
	}
	return "/"
}

// safeReturnPath accepts only same-site relative paths.
func safeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return ""
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return p
}
