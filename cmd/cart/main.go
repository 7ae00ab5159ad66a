package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abgdnv/shopcart/internal/app"
	"github.com/abgdnv/shopcart/internal/config"
	"github.com/abgdnv/shopcart/internal/storage"
	"github.com/abgdnv/shopcart/pkg/bootstrap"
	"github.com/abgdnv/shopcart/pkg/config/configloader"
	"github.com/abgdnv/shopcart/pkg/messaging"
	natsclient "github.com/abgdnv/shopcart/pkg/nats"
	"github.com/abgdnv/shopcart/pkg/server"
	"github.com/abgdnv/shopcart/pkg/telemetry"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const serviceName = "cart"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, connects the storage and broker, loads the saved cart and serves
// HTTP, gRPC health and pprof until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shutdown tracer provider", "error", err)
			}
		}()
	}
	mp, metricsHandler, err := telemetry.NewMeterProvider(serviceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown meter provider", "error", err)
		}
	}()

	backends, closeBackends, err := connectStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackends()
	store, err := storage.New(cfg.Storage.Driver, backends, logger)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := connectPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	deps, err := app.SetupDependencies(ctx, cfg, store, publisher, metricsHandler, logger)
	if err != nil {
		return err
	}
	httpServer := app.SetupHttpServer(deps, cfg)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.GrpcServer.Enabled {
		healthServer := health.NewServer()
		grpcServer := server.NewGRPCServer(logger, cfg.GrpcServer.ReflectionEnabled, server.HealthRegistration(healthServer))
		g.Go(func() error {
			lis, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
			if err != nil {
				return fmt.Errorf("failed to listen for gRPC: %w", err)
			}
			healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
			logger.Info("gRPC server listening", slog.String("addr", lis.Addr().String()))
			return grpcServer.Serve(lis)
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down gRPC server...")
			healthServer.Shutdown()
			grpcServer.GracefulStop()
			return nil
		})
	}

	if cfg.PProf.Enabled {
		pprofServer := &http.Server{
			Addr:              cfg.PProf.Addr,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// connectStorage opens the connection the configured storage driver needs.
func connectStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Backends, func(), error) {
	switch cfg.Storage.Driver {
	case storage.DriverPostgres:
		if cfg.Storage.Postgres.Migrate {
			if err := storage.Migrate(cfg.Storage.Postgres.URL); err != nil {
				return storage.Backends{}, nil, err
			}
			logger.Info("Database migrations applied")
		}
		pool, err := bootstrap.NewDbPool(ctx, cfg.Storage.Postgres.URL, cfg.Storage.Postgres.Timeout)
		if err != nil {
			return storage.Backends{}, nil, err
		}
		logger.Info("Successfully connected to the database!")
		return storage.Backends{Pool: pool}, pool.Close, nil
	case storage.DriverRedis:
		client, err := bootstrap.NewRedisClient(ctx, cfg.Storage.Redis)
		if err != nil {
			return storage.Backends{}, nil, err
		}
		logger.Info("Successfully connected to redis!")
		return storage.Backends{Redis: client}, func() {
			if err := client.Close(); err != nil {
				logger.Error("Failed to close redis client", "error", err)
			}
		}, nil
	default:
		return storage.Backends{}, func() {}, nil
	}
}

// connectPublisher connects to NATS and makes sure the cart stream exists. Without NATS,
// events are dropped.
func connectPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Nats.Enabled {
		logger.Info("NATS is disabled, cart events will not be published")
		return messaging.NoopPublisher{}, func() {}, nil
	}
	nc, err := natsclient.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if _, err := natsclient.EnsureStream(ctx, js, cfg.Nats.Stream, messaging.CartSubjects); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Connected to NATS", "url", nc.ConnectedUrl(), "stream", cfg.Nats.Stream)
	return natsclient.NewNatsPublisher(js), func() {
		if err := nc.Drain(); err != nil {
			logger.Error("Failed to drain NATS connection", "error", err)
		}
	}, nil
}
