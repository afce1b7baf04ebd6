package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"FeedScanner/internal/config"
	"FeedScanner/internal/domain"
	"FeedScanner/internal/httpapi"
	"FeedScanner/internal/infrastructure/notify"
	"FeedScanner/internal/infrastructure/parser"
	"FeedScanner/internal/infrastructure/scheduler"
	"FeedScanner/internal/infrastructure/storage"
	"FeedScanner/internal/logging"
	"FeedScanner/internal/metrics"
	"FeedScanner/internal/ports"
	"FeedScanner/internal/scanner"
	"FeedScanner/internal/usecase"
)

const stopTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	repository  ports.ContentRepository
	broker      *notify.Broker
	coordinator *usecase.Coordinator
	scheduler   *usecase.Scheduler
	registry    *prometheus.Registry

	closers []func() error
}

// New connects every adapter described by cfg. Call Close when done.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	repository, err := a.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	a.repository = repository

	client := parser.NewHTTPClient(cfg.Ingestion.FetchTimeout)
	registry := scanner.NewRegistry(
		parser.NewRSSScanner(client, cfg.Ingestion.UserAgent),
		parser.NewHTMLScanner(client, cfg.Ingestion.UserAgent),
	)
	fetcher := parser.NewStrategySource(registry, baseLogger.With("component", "source"))

	notifier, err := a.buildNotifier(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(a.registry)

	a.coordinator = usecase.NewCoordinator(usecase.CoordinatorDeps{
		Sources:      cfg.SourceDescriptors(),
		Fetcher:      fetcher,
		Repository:   repository,
		Notifier:     notifier,
		Observer:     recorder,
		Logger:       baseLogger.With("component", "coordinator"),
		MaxItems:     cfg.Ingestion.MaxItemsPerSource,
		FetchTimeout: cfg.Ingestion.FetchTimeout,
		Concurrency:  cfg.Ingestion.Concurrency,
	})

	driver := scheduler.NewCronScheduler(
		cfg.Scheduler.CronExpression,
		cfg.Scheduler.Location(),
		cfg.Scheduler.StartupDelay,
		baseLogger.With("component", "cron"),
	)
	a.scheduler = usecase.NewScheduler(driver, a.coordinator, baseLogger.With("component", "scheduler"))

	return a, nil
}

func (a *Application) openRepository(ctx context.Context) (ports.ContentRepository, error) {
	switch a.cfg.Database.Driver {
	case config.DriverMemory:
		a.logger.Warn("using in-memory content store; data is lost on restart")
		return storage.NewMemoryRepository(), nil
	case config.DriverPostgres, "":
		db, err := storage.OpenAndMigrate(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return storage.NewPostgresRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", a.cfg.Database.Driver)
	}
}

func (a *Application) buildNotifier(ctx context.Context) (*notify.Fanout, error) {
	nc := a.cfg.Notifications
	a.broker = notify.NewBroker(nc.SSE.ClientBuffer, a.logger.With("component", "sse"))
	fanout := notify.NewFanout().Add("sse", a.broker)

	if nc.Redis.Address != "" {
		client, err := notify.ConnectRedis(ctx, notify.RedisOptions{
			Address:  nc.Redis.Address,
			Password: nc.Redis.Password,
			DB:       nc.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		fanout.Add("redis", notify.NewRedisPublisher(client, nc.Redis.Channel, a.logger.With("component", "redis")))
	}

	if nc.Telegram.Enabled() {
		fanout.Add("telegram", notify.NewTelegramNotifier(nc.Telegram.BotToken, nc.Telegram.ChatID))
	}

	a.logger.Info("notification sinks configured", "sinks", fanout.Names())
	return fanout, nil
}

// Handler returns the HTTP API for this application.
func (a *Application) Handler() *gin.Engine {
	return httpapi.NewRouter(httpapi.Deps{
		Content:      a.repository,
		Trigger:      a.scheduler,
		Stream:       a.broker,
		Metrics:      promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		Logger:       a.logger.With("component", "http"),
		AllowOrigins: a.cfg.HTTP.AllowOrigins,
	})
}

// Run starts the scheduler and serves HTTP until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	go func() {
		<-ctx.Done()
		a.broker.Close()
	}()

	server := httpapi.NewServer(a.cfg.HTTP.Address, a.Handler(), a.logger.With("component", "http"))
	runErr := server.Run(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return errors.Join(runErr, a.scheduler.Stop(stopCtx))
}

// RunOnce executes a single ingestion cycle.
func (a *Application) RunOnce(ctx context.Context) (domain.CycleReport, error) {
	return a.scheduler.RunNow(ctx)
}

// Close releases connections opened by New.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
