package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"feedrelay/internal/broker"
	"feedrelay/internal/comparison"
	"feedrelay/internal/config"
	"feedrelay/internal/delivery"
	"feedrelay/internal/ratelimit"
	"feedrelay/internal/server"
	"feedrelay/internal/service"
	"feedrelay/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	rabbitMQ, err := broker.NewRabbitMQ(broker.Config{
		URL:              cfg.RabbitMQ.URL,
		Exchange:         cfg.RabbitMQ.Exchange,
		EventsQueue:      cfg.RabbitMQ.EventsQueue,
		DeliveryQueue:    cfg.RabbitMQ.DeliveryQueue,
		ResultsQueue:     cfg.RabbitMQ.ResultsQueue,
		FeedDeletedQueue: cfg.RabbitMQ.FeedDeletedQueue,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	// Stores
	comparisonStore := postgres.NewComparisonStore(db)
	counterStore := postgres.NewCounterStore(db)
	recordStore := postgres.NewDeliveryRecordStore(db)
	txManager := postgres.NewTransactionManager(db)

	// Pipeline
	engine := comparison.NewEngine(comparisonStore, logger)
	previewEngine := comparison.NewEngine(comparison.ReadOnly(comparisonStore), logger)
	limiter := ratelimit.NewLimiter(counterStore)
	orchestrator := delivery.NewOrchestrator(
		delivery.PlainRenderer{},
		rabbitMQ,
		recordStore,
		cfg.Pipeline.MaxPartChars,
		logger,
	)
	pipeline := service.NewPipeline(engine, previewEngine, limiter, orchestrator, logger)
	resultHandler := delivery.NewResultHandler(recordStore, logger)

	purgeFeed := func(ctx context.Context, feedID string) error {
		return txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := comparisonStore.ClearFeed(txCtx, feedID); err != nil {
				return err
			}
			return counterStore.Clear(txCtx, feedID)
		})
	}

	srv := server.New(cfg.Server.Addr, cfg.Server.APIKey, pipeline, recordStore, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting feed relay",
		"workers", cfg.Pipeline.Workers,
		"max_part_chars", cfg.Pipeline.MaxPartChars,
	)

	errCh := make(chan error, 4)
	go func() { errCh <- rabbitMQ.ConsumeEvents(ctx, pipeline, cfg.Pipeline.Workers) }()
	go func() { errCh <- rabbitMQ.ConsumeResults(ctx, resultHandler) }()
	go func() { errCh <- rabbitMQ.ConsumeFeedDeleted(ctx, purgeFeed) }()
	go func() { errCh <- srv.Run(ctx, cfg.Server.ShutdownTimeout) }()

	if err := <-errCh; err != nil && err != context.Canceled {
		logger.Error("relay error", "error", err)
		cancel()
		os.Exit(1)
	}
	cancel()
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
