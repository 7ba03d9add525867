// Package api provides the HTTP server and handlers for Heyrat.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/heyrat/heyrat-server/internal/auth"
	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/ratelimit"
	"github.com/heyrat/heyrat-server/internal/search"
	"github.com/heyrat/heyrat-server/internal/service"
	"github.com/heyrat/heyrat-server/internal/store"
)

const returnToMaxAge = 10 * time.Minute

// Services groups the application services used by handlers.
type Services struct {
	Identity *service.IdentityService
	Posts    *service.PostService
	Feed     *service.FeedService
}

// Options configures transport-level behavior.
type Options struct {
	CookieSecure    bool
	SessionDuration time.Duration
	DevLogin        bool
	CORSOrigins     []string
	AuthPerMinute   int
	WritePerMinute  int
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Store    store.Store
	Library  *corpus.Library
	Search   *search.Index
	Services *Services
	// Google is nil when Google login is not configured.
	Google  *auth.GoogleProvider
	Options Options
	Logger  *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	library  *corpus.Library
	search   *search.Index
	services *Services
	google   *auth.GoogleProvider
	opts     Options
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger

	authLimiter  *ratelimit.KeyedRateLimiter
	writeLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(deps Deps) *Server {
	s := &Server{
		store:        deps.Store,
		library:      deps.Library,
		search:       deps.Search,
		services:     deps.Services,
		google:       deps.Google,
		opts:         deps.Options,
		router:       chi.NewRouter(),
		logger:       deps.Logger,
		authLimiter:  ratelimit.PerMinute(deps.Options.AuthPerMinute),
		writeLimiter: ratelimit.PerMinute(deps.Options.WritePerMinute),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Heyrat API", "1.0.0")
	humaConfig.Info.Description = "Persian poetry corpus, shared feed and likes."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
		"cookie": {
			Type: "apiKey",
			In:   "cookie",
			Name: sessionCookie,
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources.
func (s *Server) Close() {
	s.authLimiter.Stop()
	s.writeLimiter.Stop()
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	if len(s.opts.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	s.router.Use(s.authenticate)
}

func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerPostRoutes()
	s.registerFeedRoutes()
	s.registerPoetRoutes()
	s.registerSearchRoutes()
	s.registerPageRoutes()
}

// requestLogger logs one line per request with the chi request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// cookie builds an HttpOnly cookie scoped to the whole site.
func (s *Server) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	}
	if maxAge < 0 {
		c.MaxAge = -1
	}
	return c
}
