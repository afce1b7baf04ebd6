package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"FeedScanner/internal/app"
	"FeedScanner/internal/config"
	"FeedScanner/internal/infrastructure/storage"
	"FeedScanner/internal/logging"
)

func rootApp() *cli.App {
	return &cli.App{
		Name:  "feedscanner",
		Usage: "Ingest and classify developer content feeds",
		Description: `FeedScanner polls the configured RSS/Atom feeds and HTML listings,
classifies every new item (tags, difficulty, reading time, summary), stores it
and broadcasts it to live subscribers.

Flags can generally be set via environment variables, e.g.:

--config => FEEDSCANNER_CONFIG=config.yaml
--log-level => LOG_LEVEL=debug`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				EnvVars: []string{config.PathEnv},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			ingestCmd(),
			migrateCmd(),
			rollbackCmd(),
			sourcesCmd(),
		},
		Action: func(ctx *cli.Context) error {
			return serve(ctx)
		},
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Usage:       "Run the scheduler and the HTTP API",
		Description: `Runs an ingestion cycle shortly after start and then on the configured cron expression, while serving the content API, the live stream and metrics.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "address",
				Usage:   "HTTP listen address",
				EnvVars: []string{"HTTP_ADDRESS"},
			},
		},
		Action: serve,
	}
}

func serve(ctx *cli.Context) error {
	cfg, logger, err := load(ctx)
	if err != nil {
		return err
	}
	if addr := ctx.String("address"); addr != "" {
		cfg.HTTP.Address = addr
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(runCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	logger.Info("feedscanner starting", "sources", len(cfg.Sources), "cron", cfg.Scheduler.CronExpression)
	if err := application.Run(runCtx); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	logger.Info("feedscanner stopped")
	return nil
}

func ingestCmd() *cli.Command {
	return &cli.Command{
		Name:        "ingest",
		Usage:       "Run a single ingestion cycle and print the report",
		Description: `Fetches every configured source once, stores new items and prints the cycle report as JSON.`,
		Action: func(ctx *cli.Context) error {
			cfg, logger, err := load(ctx)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.RunOnce(runCtx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(ctx.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Applies the embedded migrations to the configured Postgres database.`,
		Action: func(ctx *cli.Context) error {
			cfg, logger, err := load(ctx)
			if err != nil {
				return err
			}
			db, err := storage.OpenAndMigrate(ctx.Context, cfg.Database.DSN)
			if err != nil {
				return err
			}
			logger.Info("migrations applied")
			return db.Close()
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migration",
		Description: `Rolls back the last database migration`,
		Action: func(ctx *cli.Context) error {
			cfg, logger, err := load(ctx)
			if err != nil {
				return err
			}
			if err := storage.Rollback(cfg.Database.DSN); err != nil {
				return err
			}
			logger.Info("last migration rolled back")
			return nil
		},
	}
}

func sourcesCmd() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "List the configured sources",
		Action: func(ctx *cli.Context) error {
			cfg, _, err := load(ctx)
			if err != nil {
				return err
			}
			for _, src := range cfg.SourceDescriptors() {
				fmt.Fprintf(ctx.App.Writer, "%-20s %-5s %s [%s]\n", src.Name, src.Kind, src.URL, strings.Join(src.Tags, ", "))
			}
			return nil
		},
	}
}

func load(ctx *cli.Context) (config.Config, *slog.Logger, error) {
	bootstrap := logging.New("info", "console")
	cfg := config.Load(ctx.String("config"), bootstrap)
	if level := ctx.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
