package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/printdesk/printdesk/cmd/printdesk/cli"
	"github.com/printdesk/printdesk/internal/accounts"
	"github.com/printdesk/printdesk/internal/app"
	"github.com/printdesk/printdesk/internal/observability"
	"github.com/printdesk/printdesk/internal/printfit"
	"github.com/printdesk/printdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && cli.IsCommand(os.Args[1]) {
		code := operatorEnv().Run(ctx, os.Args[1:])
		stop()
		os.Exit(code)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	backends, err := app.OpenBackends(ctx, cfg, logger, "printdesk-api")
	if err != nil {
		logger.Error("open backends", slog.Any("error", err))
		os.Exit(1)
	}
	defer backends.Close(logger)

	accountsService := backends.AccountsService(cfg, logger)
	accountsHandler := accounts.NewHandler(logger, accountsService)
	printFitHandler := printfit.NewHandler(logger)
	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accountsHandler,
		PrintFitHandler: printFitHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// operatorEnv connects backends only for the commands that need them.
func operatorEnv() cli.Env {
	return cli.Env{
		Statements: func(ctx context.Context) (cli.StatementService, func(), error) {
			cfg, err := app.LoadConfig()
			if err != nil {
				return nil, nil, err
			}
			logger := app.NewLogger(cfg)
			backends, err := app.OpenBackends(ctx, cfg, logger, "printdesk-cli")
			if err != nil {
				return nil, nil, err
			}
			return backends.AccountsService(cfg, logger), func() { backends.Close(logger) }, nil
		},
		Jobs: func() cli.JobQueue {
			cfg, err := app.LoadConfig()
			if err != nil {
				slog.Default().Warn("load config, using default redis address", slog.Any("error", err))
				cfg = &app.Config{RedisAddr: "127.0.0.1:6379"}
			}
			return cli.NewJobsCLI(cfg.RedisAddr)
		},
	}
}
