package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"github.com/samber/do/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/auth"
	"github.com/bookbuddyapp/bookbuddy-server/internal/config"
	"github.com/bookbuddyapp/bookbuddy-server/internal/logger"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
	"github.com/bookbuddyapp/bookbuddy-server/internal/web"
)

// RendererHandle wraps the template renderer. In development with a
// template directory, templates are reloaded when they change on disk.
type RendererHandle struct {
	*web.Renderer
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *RendererHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

// ProvideRenderer provides the HTML template renderer.
func ProvideRenderer(i do.Injector) (*RendererHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	renderer, err := web.NewRenderer(cfg.Web.TemplateDir, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	if cfg.Web.TemplateDir == "" {
		return &RendererHandle{Renderer: renderer}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := renderer.Watch(ctx); err != nil {
			log.Warn("Template watcher stopped", "error", err)
		}
	}()

	log.Info("Loading templates from disk", "dir", cfg.Web.TemplateDir)

	return &RendererHandle{Renderer: renderer, cancel: cancel}, nil
}

// WebServerHandle wraps the web handler with shutdown capability.
type WebServerHandle struct {
	*web.Server
}

// Shutdown implements do.Shutdownable.
func (h *WebServerHandle) Shutdown() error {
	return h.Server.Shutdown()
}

// ProvideWebServer provides the HTTP handler serving pages and the API.
func ProvideWebServer(i do.Injector) (*WebServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	authKey := do.MustInvoke[AuthKey](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	rendererHandle := do.MustInvoke[*RendererHandle](i)

	services := &web.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Resets:     do.MustInvoke[*service.PasswordResetService](i),
		Books:      do.MustInvoke[*service.BookService](i),
		Reviews:    do.MustInvoke[*service.ReviewService](i),
		Favourites: do.MustInvoke[*service.FavouriteService](i),
		History:    do.MustInvoke[*service.HistoryService](i),
		Profiles:   do.MustInvoke[*service.ProfileService](i),
		Settings:   do.MustInvoke[*service.SettingsService](i),
		Search:     do.MustInvoke[*service.SearchService](i),
	}

	flashKey, err := auth.DeriveKey(authKey, flashCookiePurpose, 32)
	if err != nil {
		return nil, fmt.Errorf("derive flash key: %w", err)
	}

	proxies := make([]netip.Prefix, 0, len(cfg.Server.TrustedProxies))
	for _, raw := range cfg.Server.TrustedProxies {
		prefix, err := config.ParseProxy(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		proxies = append(proxies, prefix)
	}

	server := web.NewServer(services, rendererHandle.Renderer, web.Options{
		BaseURL:        cfg.Server.BaseURL,
		SecureCookies:  cfg.Auth.SecureCookies,
		FlashKey:       flashKey,
		AuthRatePerMin: cfg.Auth.LoginRatePerMinute,
		AuthBurst:      cfg.Auth.LoginBurst,
		TrustedProxies: proxies,
		HealthChecks: map[string]web.HealthCheck{
			"database": storeHandle.Ping,
			"search": func(context.Context) error {
				_, err := indexHandle.DocumentCount()
				return err
			},
		},
	}, log.Logger)

	return &WebServerHandle{Server: server}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable. In-flight requests
// get up to drain to finish.
type HTTPServerHandle struct {
	*http.Server
	drain time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.drain)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	webHandle := do.MustInvoke[*WebServerHandle](i)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      webHandle.Server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "url", cfg.Server.BaseURL)

	return &HTTPServerHandle{Server: srv, drain: cfg.Server.DrainTimeout}, nil
}
