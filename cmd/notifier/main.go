package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abgdnv/shopcart/internal/config"
	"github.com/abgdnv/shopcart/internal/probes"
	"github.com/abgdnv/shopcart/internal/subscriber"
	"github.com/abgdnv/shopcart/pkg/bootstrap"
	"github.com/abgdnv/shopcart/pkg/config/configloader"
	"github.com/abgdnv/shopcart/pkg/messaging"
	"github.com/abgdnv/shopcart/pkg/nats"
	"golang.org/x/sync/errgroup"
)

const serviceName = "notifier"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run starts the notification consumer, the probe files and optionally the pprof server.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.NotifierConfig](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	natsConn, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create NATS connection: %w", err)
	}
	defer natsConn.Close()
	js, err := nats.NewJetStreamContext(natsConn)
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}
	if _, err := nats.EnsureStream(ctx, js, cfg.Nats.Stream, messaging.CartSubjects); err != nil {
		return err
	}

	probe := probes.New(cfg.Probes, logger)
	defer probe.MarkNotReady()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("NATS subscriber started")
		sink := subscriber.LogSink{Logger: logger.With("component", "toast")}
		err := subscriber.Start(gCtx, js, cfg.Nats.Stream, cfg.Subscriber, sink, logger, func() {
			if err := probe.MarkReady(); err != nil {
				logger.Error("Failed to mark ready", "error", err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("subscriber failed", "error", err)
			return err
		}
		logger.Info("subscriber stopped gracefully.")
		return nil
	})

	g.Go(func() error {
		return probe.RunLiveness(gCtx)
	})

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
			logger.Info("Shutting down pprof server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) {
			return fmt.Errorf("errgroup encountered an error: %w", err)
		}
	}

	return nil
}
