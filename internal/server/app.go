// Package server assembles and runs the application: configuration,
// database with migrations, object storage, the service layer, and the
// HTTP endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"campaignspace/internal/logging"
	"campaignspace/internal/server/config"
	"campaignspace/internal/server/httpapi"
	"campaignspace/internal/server/notify"
	"campaignspace/internal/server/objstore"
	"campaignspace/internal/server/pipeline"
	"campaignspace/internal/server/registry"
	"campaignspace/internal/server/repositories/repomanager"
	"campaignspace/internal/server/workspace"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	notifier notify.Notifier
	handler  *httpapi.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := objstore.NewS3Client(ctx, cfg.S3Region, cfg.S3RootUser, cfg.S3RootPassword, cfg.S3BaseEndpoint)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.AMQPURL != "" {
		n, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.NotifyQueue)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("notifier init error: %w", err)
		}
		notifier = n
	}

	reg := registry.NewService(rm.Campaigns(db), rm.FileRecords(db), notifier, logger)
	pipe := pipeline.NewService(store, &http.Client{Timeout: cfg.FetchTimeout}, cfg.S3InputBucket, cfg.S3OutputBucket, logger)
	ws := workspace.NewService(reg, rm.FileRecords(db), store, pipe, notifier, logger, cfg.S3InputBucket, cfg.S3OutputBucket)

	handler := httpapi.NewHandler(ws, reg, []byte(cfg.SecretKey), logger)

	return &App{config: cfg, logger: logger, db: db, notifier: notifier, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.handler.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, "http server error", "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if closer, ok := app.notifier.(*notify.AMQPNotifier); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error(ctx, "notifier close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
