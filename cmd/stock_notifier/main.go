// Package main runs the stock notifier, which consumes stock changed events and reports low stock.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/abgdnv/inventory/internal/notifier/config"
	"github.com/abgdnv/inventory/internal/notifier/subscriber"
	"github.com/abgdnv/inventory/pkg/bootstrap"
	"github.com/abgdnv/inventory/pkg/config/configloader"
	"github.com/abgdnv/inventory/pkg/nats"
	"github.com/abgdnv/inventory/pkg/probes"
	"github.com/abgdnv/inventory/pkg/telemetry"
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

// run starts the NATS subscriber, the probes and, when enabled, the metrics and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	tel, err := telemetry.New(ctx, "stock-notifier", cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	natsConn, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create NATS connection: %w", err)
	}
	defer natsConn.Close()
	js, err := nats.NewJetStreamContext(natsConn)
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	handler, err := subscriber.NewHandler(cfg.Notifier.LowStockThreshold, logger)
	if err != nil {
		return fmt.Errorf("failed to create stock handler: %w", err)
	}
	probe := probes.New(cfg.Probes, logger)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("NATS subscriber started", slog.String("stream", cfg.Subscriber.Stream))
		err := subscriber.Start(gCtx, js, cfg.Subscriber, handler, probe.MarkReady, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("subscriber failed", "error", err)
			return err
		}
		logger.Info("subscriber stopped gracefully.")
		return nil
	})

	g.Go(func() error {
		if err := probe.RunLiveness(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("liveness probe failed: %w", err)
		}
		return nil
	})

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, tel.MetricsHandler)
		metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		serveHTTP(g, gCtx, "Metrics", metricsServer, cfg.Shutdown.Timeout, logger)
	}

	if cfg.PProf.Enabled {
		pprofServer := &http.Server{Addr: cfg.PProf.Addr, ReadHeaderTimeout: 5 * time.Second}
		serveHTTP(g, gCtx, "Pprof", pprofServer, cfg.Shutdown.Timeout, logger)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

func serveHTTP(g *errgroup.Group, ctx context.Context, name string, srv *http.Server, timeout time.Duration, logger *slog.Logger) {
	g.Go(func() error {
		logger.Info(name+" server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server failed: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down " + name + " server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
