package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/quake-data-explorer/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-data-explorer/internal/adapter/kafka"
	"github.com/couchcryptid/quake-data-explorer/internal/catalog"
	"github.com/couchcryptid/quake-data-explorer/internal/config"
	"github.com/couchcryptid/quake-data-explorer/internal/observability"
	"github.com/couchcryptid/quake-data-explorer/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Rebuild hooks run under ctx, so a signal stops in-flight publishes.
	opts := []catalog.Option{
		catalog.WithContext(ctx),
		catalog.WithFilterCacheSize(cfg.FilterCacheSize),
	}

	// Publishing of prepared events is feature-flagged via KAFKA_ENABLED.
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		opts = append(opts, catalog.WithRebuildHook(publisher.Hook()))
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	src := source.NewFile(cfg.DataPath)
	cat := catalog.New(src, cfg.CacheTTL, clockwork.NewRealClock(), logger, metrics, opts...)

	// A failed warm-up is not fatal: /readyz reports not ready and the next
	// request retries the load.
	if _, err := cat.Get(ctx); err != nil {
		logger.Warn("initial catalog load failed", "path", cfg.DataPath, "format", src.Format(), "error", err)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, cat, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := cat.Wait(shutdownCtx); err != nil {
		logger.Error("rebuild hooks did not finish", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
