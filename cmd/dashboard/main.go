package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/risk-replay-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/risk-replay-dashboard/internal/adapter/kafka"

	"github.com/couchcryptid/risk-replay-dashboard/internal/adapter/csvfile"
	"github.com/couchcryptid/risk-replay-dashboard/internal/config"
	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
	"github.com/couchcryptid/risk-replay-dashboard/internal/observability"
	"github.com/couchcryptid/risk-replay-dashboard/internal/replay"
	"github.com/couchcryptid/risk-replay-dashboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	loader := store.NewLoader(func() ([]domain.Event, error) {
		res, err := csvfile.Read(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		metrics.EventsLoaded.Set(float64(len(res.Events)))
		metrics.ParseFallbacks.Add(float64(res.NullTimestamps))
		logger.Info("dataset loaded",
			"path", cfg.DataFile,
			"events", len(res.Events),
			"null_timestamps", res.NullTimestamps,
			"encoding", res.Encoding,
		)
		return res.Events, nil
	})

	// A missing file is a valid (empty) state: the service comes up and
	// reports zero events instead of crash-looping.
	events, err := loader.Load()
	switch {
	case errors.Is(err, domain.ErrSourceNotFound):
		logger.Warn("data file not found, starting with an empty timeline", "path", cfg.DataFile)
	case err != nil:
		logger.Error("failed to load data file", "path", cfg.DataFile, "error", err)
		os.Exit(1)
	}

	raw := store.New(events, store.GranularityRaw, cfg.NativeIntervalMinutes)
	dense := store.Densify(raw, cfg.DenseIntervalMinutes)
	logger.Info("timelines built",
		"raw_events", raw.Len(),
		"dense_events", dense.Len(),
		"regions", raw.RegionCount(),
	)

	scoring, err := config.LoadScoring(cfg.ScoringFile)
	if err != nil {
		logger.Error("failed to load scoring config", "error", err)
		os.Exit(1)
	}

	hub := httpadapter.NewHub(logger)
	sinks := []replay.SnapshotSink{hub}

	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger, metrics)
		sinks = append(sinks, publisher)
		logger.Info("kafka alert publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("kafka alert publishing disabled")
	}

	session := replay.NewSession(raw, dense, replay.Options{
		TickInterval:   cfg.TickInterval,
		AdvanceMinutes: cfg.AdvanceMinutes,
		PreloadMinutes: cfg.PreloadMinutes,
		WindowMinutes:  cfg.WindowMinutes,
		Weights:        scoring.Weights,
		Alerts:         scoring.AlertConfig(),
		Granularity:    store.Granularity(cfg.Granularity),
	}, sinks, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, session, hub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start replay session.
	go func() {
		if err := session.Run(ctx); err != nil {
			logger.Error("replay session error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
