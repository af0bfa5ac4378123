package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockroom/internal/config"
	"stockroom/internal/server"
	"stockroom/internal/services"
	"stockroom/pkg/logging"
	"stockroom/pkg/rabbitmq"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	logger, err := logging.NewLogger(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	app := newApp(cfg, logger, os.Stdin, os.Stdout)
	if err := app.Run(os.Args); err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, err)
			return exit.ExitCode()
		}
		logger.Error("command_failed", zap.Error(err))
		return 1
	}
	return 0
}

// newApp builds the command line. cfg supplies the flag defaults.
func newApp(cfg config.Config, logger *zap.Logger, in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "stockroom",
		Usage:     "stock control service and point-of-sale console",
		Reader:    in,
		Writer:    out,
		ErrWriter: out,
		// run maps errors to exit codes.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: cfg.InventoryURL, Usage: "inventory service base URL"},
			&cli.StringFlag{Name: "token", Value: cfg.InventoryToken, Usage: "bearer token for mutating routes"},
			&cli.DurationFlag{Name: "timeout", Value: cfg.RequestTimeout, Usage: "per-request timeout"},
			&cli.StringFlag{Name: "mode", Value: cfg.SellMode, Usage: "how sales are persisted: sell or upsert"},
		},
		Commands: []*cli.Command{
			serveCommand(cfg, logger),
			listCommand(logger),
			addCommand(logger),
			editCommand(logger),
			sellCommand(logger),
			deleteCommand(logger),
			scanCommand(logger),
			salesCommand(logger),
			loginCommand(logger),
		},
	}
}

func serveCommand(cfg config.Config, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the inventory service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Value: cfg.AppPort, Usage: "listen address"},
			&cli.StringFlag{Name: "db-driver", Value: cfg.DBDriver, Usage: "sqlite, postgres or memory"},
			&cli.StringFlag{Name: "dsn", Value: cfg.DatabaseDSN, Usage: "database DSN"},
		},
		Action: func(c *cli.Context) error {
			cfg.AppPort = c.String("port")
			cfg.DBDriver = c.String("db-driver")
			cfg.DatabaseDSN = c.String("dsn")

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

// serve runs the inventory service until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	repos, err := server.OpenRepositories(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open repositories: %w", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			logger.Warn("database_close_failed", zap.Error(err))
		}
	}()

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			return fmt.Errorf("initialize RabbitMQ client: %w", err)
		}
		defer mqClient.Close()
		publisher = mqClient

		if err := mqClient.ConsumeStockEvents(services.LowStockHandler(cfg.LowStockThreshold, logger)); err != nil {
			logger.Warn("stock_event_consumer_failed", zap.Error(err))
		}
	} else {
		logger.Info("rabbitmq_disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := server.New(server.Options{
		Repositories: repos,
		Publisher:    publisher,
		Registry:     registry,
		Logger:       logger,
		JWTSecret:    cfg.JWTSecret,
		AuthEnabled:  cfg.AuthEnabled,
		AccessLog:    true,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_starting",
			zap.String("addr", cfg.AppPort),
			zap.String("db_driver", cfg.DBDriver),
			zap.Bool("auth", cfg.AuthEnabled),
		)
		errCh <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server_shutting_down")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server_exited")
	return nil
}
