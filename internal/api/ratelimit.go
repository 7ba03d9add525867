package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/heyrat/heyrat-server/internal/errors"
	"github.com/heyrat/heyrat-server/internal/http/response"
	"github.com/heyrat/heyrat-server/internal/ratelimit"
)

const rateLimitMessage = "Too many requests. Please try again later."

// RateLimitMiddleware rate limits plain chi routes by client IP.
// Returns 429 Too Many Requests when limit is exceeded.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r.RemoteAddr)
			if !limiter.Allow(key) {
				logger.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
				response.Error(w, domainerrors.RateLimited(rateLimitMessage), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimit is the huma operation middleware equivalent of RateLimitMiddleware.
func (s *Server) rateLimit(limiter *ratelimit.KeyedRateLimiter) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key := clientIP(ctx.RemoteAddr())
		if !limiter.Allow(key) {
			s.logger.Warn("rate limit exceeded", "ip", key, "operation", ctx.Operation().OperationID)
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, rateLimitMessage,
				domainerrors.RateLimited(rateLimitMessage))
			return
		}
		next(ctx)
	}
}

// clientIP strips the port from a remote address. middleware.RealIP has
// already applied X-Forwarded-For and X-Real-IP by the time this runs.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// writeError writes err as an error envelope outside huma.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	response.Error(w, err, s.logger)
}
