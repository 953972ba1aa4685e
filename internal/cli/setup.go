package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Conveyor/internal/cache"
	"github.com/shaiso/Conveyor/internal/checkpoint"
	"github.com/shaiso/Conveyor/internal/coordinator"
	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/executor"
	"github.com/shaiso/Conveyor/internal/llm"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/storage"
)

// appOptions — флаги, влияющие на сборку зависимостей.
type appOptions struct {
	// noCache — не использовать durable content cache
	// (memoization живёт только в памяти процесса).
	noCache bool

	// noCheckpointing — не сохранять состояние между запусками.
	noCheckpointing bool

	// workers — конкурентность внутри узла (0 — значение по умолчанию).
	workers int
}

// App — собранный набор зависимостей для одной команды.
type App struct {
	Coordinator *coordinator.Coordinator
	Cache       cache.Cache
	Checkpoints checkpoint.Store
	Logger      *slog.Logger

	pool   *pgxpool.Pool
	mqConn *mq.Connection
}

// Close освобождает соединения.
func (a *App) Close() {
	if a.mqConn != nil {
		a.mqConn.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// openStores подключает content cache и checkpoint store.
// Пул Postgres открывается только если хотя бы одно из хранилищ durable.
func openStores(ctx context.Context, logger *slog.Logger, opts appOptions) (cache.Cache, checkpoint.Store, *pgxpool.Pool, error) {
	var contentCache cache.Cache = cache.NewMemoryCache()
	var store checkpoint.Store = checkpoint.NewMemoryStore()

	if opts.noCache && opts.noCheckpointing {
		return contentCache, store, nil, nil
	}

	pool, err := storage.NewPool(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if !opts.noCache {
		contentCache, err = cache.NewPostgresCache(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
	}
	if !opts.noCheckpointing {
		store, err = checkpoint.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
	}

	logger.Info("database connected")
	return contentCache, store, pool, nil
}

// newApp собирает полный конвейер: хранилища, модель, engine, coordinator.
//
// RabbitMQ необязателен: при недоступном брокере события просто
// не публикуются.
func newApp(ctx context.Context, logger *slog.Logger, opts appOptions) (*App, error) {
	contentCache, store, pool, err := openStores(ctx, logger, opts)
	if err != nil {
		return nil, err
	}

	model, err := llm.NewFromEnv()
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, fmt.Errorf("configure model: %w", err)
	}

	var publisher *mq.Publisher
	var mqConn *mq.Connection

	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}
	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, events will not be published", "error", err)
		mqConn = nil
	} else {
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		publisher = mq.NewPublisher(mqConn, logger)
	}

	retry := executor.RetryConfigFromEnv()

	eng := engine.New(engine.Config{
		Extractor: executor.NewExtractor(executor.ExtractorConfig{
			Cache:   contentCache,
			LLM:     model,
			Workers: opts.workers,
			Retry:   retry,
			Logger:  logger,
		}),
		Classifier: executor.NewClassifier(executor.ClassifierConfig{
			Cache:   contentCache,
			LLM:     model,
			Workers: opts.workers,
			Retry:   retry,
			Logger:  logger,
		}),
		Reporter:    executor.NewReporter(executor.ReporterConfig{Logger: logger}),
		Checkpoints: store,
		Publisher:   publisher,
		Logger:      logger,
	})

	return &App{
		Coordinator: coordinator.New(eng, store, logger),
		Cache:       contentCache,
		Checkpoints: store,
		Logger:      logger,
		pool:        pool,
		mqConn:      mqConn,
	}, nil
}

// newStorageApp собирает только хранилища — для команд, не выполняющих
// workflow (status, reset, cache). Модель и брокер не подключаются.
func newStorageApp(ctx context.Context, logger *slog.Logger) (*App, error) {
	contentCache, store, pool, err := openStores(ctx, logger, appOptions{})
	if err != nil {
		return nil, err
	}

	return &App{
		Coordinator: coordinator.New(nil, store, logger),
		Cache:       contentCache,
		Checkpoints: store,
		Logger:      logger,
		pool:        pool,
	}, nil
}
