package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/heyrat/heyrat-server/internal/api"
	"github.com/heyrat/heyrat-server/internal/config"
	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/logger"
	"github.com/heyrat/heyrat-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	googleHandle := do.MustInvoke[*GoogleHandle](i)
	lib := do.MustInvoke[*corpus.Library](i)

	services := &api.Services{
		Identity: do.MustInvoke[*service.IdentityService](i),
		Posts:    do.MustInvoke[*service.PostService](i),
		Feed:     do.MustInvoke[*service.FeedService](i),
	}

	handler := api.NewServer(api.Deps{
		Store:    storeHandle.Store,
		Library:  lib,
		Search:   searchHandle.Index,
		Services: services,
		Google:   googleHandle.GoogleProvider,
		Options: api.Options{
			CookieSecure:    cfg.Auth.CookieSecure,
			SessionDuration: cfg.Auth.AccessTokenDuration,
			DevLogin:        cfg.Auth.DevLogin,
			CORSOrigins:     cfg.Server.CORSOrigins,
			AuthPerMinute:   cfg.RateLimit.AuthPerMinute,
			WritePerMinute:  cfg.RateLimit.WritePerMinute,
		},
		Logger: log.WithComponent("http").Logger,
	})

	if cfg.Auth.DevLogin {
		log.Warn("Passwordless dev login is enabled; never run this in production")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "public_url", cfg.Server.PublicURL)

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
