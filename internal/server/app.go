// Package server initializes and runs the backing service: it opens the
// database, applies migrations, wires the blob store and snippet
// service, and serves the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkotlyar/snipstash/internal/logging"
	"github.com/dkotlyar/snipstash/internal/server/config"
	"github.com/dkotlyar/snipstash/internal/server/httpapi"
	"github.com/dkotlyar/snipstash/internal/server/repositories/repomanager"
	"github.com/dkotlyar/snipstash/internal/server/services"
	"github.com/dkotlyar/snipstash/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *http.Server
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs := storage.NewS3Storage(c)
	svc := services.NewSnippetService(db, rm, blobs)

	server := &http.Server{
		Addr:    c.BindAddr,
		Handler: httpapi.New(svc),
	}

	return &App{config: c, logger: logger, db: db, server: server}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, fmt.Sprintf("HTTP API listening on %s", app.config.BindAddr))
		errCh <- app.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			app.logger.Error(ctx, err.Error())
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, err.Error())
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
