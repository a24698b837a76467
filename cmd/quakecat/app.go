package main

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-catalog/internal/adapter/jma"
	kafkaadapter "github.com/couchcryptid/quake-catalog/internal/adapter/kafka"
	"github.com/couchcryptid/quake-catalog/internal/catalog"
	"github.com/couchcryptid/quake-catalog/internal/config"
	"github.com/couchcryptid/quake-catalog/internal/observability"
	"github.com/couchcryptid/quake-catalog/internal/pipeline"
)

// app holds the wiring shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	pipeline *pipeline.Pipeline
	writer   *kafkaadapter.Writer
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("run_id", uuid.NewString())
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()
	clk := clockwork.NewRealClock()

	store := catalog.NewStore(cfg.CatalogDir)
	loader := catalog.NewCachedLoader(store, cfg.CatalogCacheSize, metrics)
	aggregator := catalog.NewAggregator(store, loader, logger, metrics)
	client := jma.NewClient(cfg.JMABaseURL, cfg.JMATimeout, cfg.JMAUserAgent, logger, metrics, jma.WithClientClock(clk))

	a := &app{cfg: cfg, logger: logger, metrics: metrics}

	opts := []pipeline.Option{pipeline.WithClock(clk)}
	if cfg.KafkaEnabled {
		a.writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(a.writer))
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Debug("kafka publishing disabled")
	}

	a.pipeline = pipeline.New(client, store, aggregator, logger, metrics, opts...)
	return a, nil
}

// close releases publishers and dumps batch metrics when configured.
func (a *app) close() {
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			a.logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := observability.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
		a.logger.Error("metrics textfile write error", "path", a.cfg.MetricsTextfile, "error", err)
	}
}
