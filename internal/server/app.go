// Package server initializes and runs the rulehub server: it opens the
// database, applies migrations, wires the token engine and services, and
// serves the HTTP API with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/avealov/rulehub/internal/logging"
	"github.com/avealov/rulehub/internal/password"
	"github.com/avealov/rulehub/internal/server/config"
	"github.com/avealov/rulehub/internal/server/httpapi"
	"github.com/avealov/rulehub/internal/server/mail"
	"github.com/avealov/rulehub/internal/server/repositories/repomanager"
	"github.com/avealov/rulehub/internal/server/services"
	"github.com/avealov/rulehub/internal/server/tokens"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	cache  *tokens.Cache
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var cache *tokens.Cache
	if cfg.RedisAddr != "" {
		cache, err = tokens.NewCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		logger.Info(ctx, "access token cache enabled", "addr", cfg.RedisAddr)
	}

	engine := tokens.NewEngine(db, rm, cache, logger)
	hasher := password.NewBcrypt(cfg.BcryptCost)

	var mailer mail.Sender
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		logger.Warn(ctx, "smtp host not configured, mail goes to the log")
		mailer = mail.NewLogSender(logger)
	}

	authService := services.NewAuthService(db, rm, engine, hasher, mailer, logger, cfg)
	userService := services.NewUserService(db, rm, engine, mailer, logger, cfg)
	commentService := services.NewCommentService(db, rm)

	srv := httpapi.NewServer(authService, userService, commentService, db, logger)

	return &App{config: cfg, logger: logger, db: db, cache: cache, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	httpServer := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown error", "error", err)
	}

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error(shutdownCtx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err)
	}

	return nil
}
