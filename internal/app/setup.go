// Package app wires the cart service together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/shopcart/internal/cart"
	"github.com/abgdnv/shopcart/internal/catalog"
	"github.com/abgdnv/shopcart/internal/config"
	"github.com/abgdnv/shopcart/internal/notify"
	"github.com/abgdnv/shopcart/internal/transport/rest"
	"github.com/abgdnv/shopcart/pkg/messaging"
	"github.com/abgdnv/shopcart/pkg/server"
	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	Manager *cart.Manager
	// Metrics is mounted at MetricsPath when set.
	Metrics     http.Handler
	MetricsPath string
	Logger      *slog.Logger
}

// NewNotifier returns the notifier chain of the service: the per-request collector feeding
// HTTP responses, the log, and the notification events.
func NewNotifier(publisher messaging.Publisher, logger *slog.Logger) cart.Notifier {
	return notify.Fanout{
		notify.ContextCollector{},
		notify.NewLog(logger),
		notify.NewEvents(publisher, logger),
	}
}

// SetupDependencies builds the cart manager over the given storage and loads the saved cart.
func SetupDependencies(ctx context.Context, cfg *config.Config, store cart.Storage, publisher messaging.Publisher,
	metrics http.Handler, logger *slog.Logger) (*Dependencies, error) {
	return SetupDependenciesWithCatalog(ctx, cfg, catalog.New(cfg.Catalog, cfg.Resilience, logger), store, publisher, metrics, logger)
}

// SetupDependenciesWithCatalog is SetupDependencies with an explicit catalog client.
// Used by E2E tests.
func SetupDependenciesWithCatalog(ctx context.Context, cfg *config.Config, catalogClient *catalog.Client, store cart.Storage,
	publisher messaging.Publisher, metrics http.Handler, logger *slog.Logger) (*Dependencies, error) {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	manager, err := cart.NewManager(ctx, cart.Dependencies{
		Stock:     catalogClient,
		Products:  catalogClient,
		Storage:   store,
		Notifier:  NewNotifier(publisher, logger),
		Publisher: publisher,
		Logger:    logger,
	}, cart.WithStorageKey(cfg.Storage.Key))
	if err != nil {
		return nil, fmt.Errorf("failed to create cart manager: %w", err)
	}
	return &Dependencies{
		Manager:     manager,
		Metrics:     metrics,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Logger:      logger,
	}, nil
}

// SetupHttpHandler initializes the routes and middleware of the cart service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewHandler(deps.Manager, deps.Logger).RegisterRoutes(mux)
	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Method(http.MethodGet, path, deps.Metrics)
	}
}

// SetupHttpServer creates and configures an HTTP server for the cart service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
