// Команда server поднимает локальный бэкенд телеметрии для проверки агента и admin.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoGogDBD/sysmon-uploader/internal/config"
	"github.com/RoGogDBD/sysmon-uploader/internal/config/db"
	"github.com/RoGogDBD/sysmon-uploader/internal/handler"
	"github.com/RoGogDBD/sysmon-uploader/internal/repository"
	"github.com/RoGogDBD/sysmon-uploader/internal/service"
	"github.com/RoGogDBD/sysmon-uploader/internal/version"
	"go.uber.org/zap"
)

// Коды завершения процесса.
const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// app собранный бэкенд: роутер, хранилище и фоновые задачи.
type app struct {
	router http.Handler
	snaps  *service.Snapshots
	close  func()
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, err := config.LoadServerConfig(args)
	if err != nil {
		fmt.Fprintf(stderr, "server: %v\n", err)
		return exitConfig
	}

	logger, err := config.Initialize(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "server: %v\n", err)
		return exitConfig
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting server", version.Fields()...)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return exitConfig
	}

	a, err := setup(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize backend", zap.Error(err))
		return exitFailure
	}
	defer a.close()

	snapCtx, cancelSnaps := context.WithCancel(context.Background())
	snapsDone := make(chan struct{})
	go func() {
		defer close(snapsDone)
		service.RunSnapshots(snapCtx, a.snaps, logger)
	}()
	defer func() {
		cancelSnaps()
		<-snapsDone
	}()

	srv := &http.Server{
		Addr:              cfg.Address.String(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("address", srv.Addr), zap.Bool("tls", cfg.TLSEnabled()))
		if cfg.TLSEnabled() {
			serveErr <- srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			return exitFailure
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
	}
	return exitOK
}

// setup выбирает хранилище, восстанавливает снимок, создаёт администратора и аудит.
//
// При заданном DSN используется PostgreSQL, снимки в файл не ведутся.
func setup(ctx context.Context, cfg *config.ServerConfig, logger *zap.Logger) (*app, error) {
	a := &app{close: func() {}}

	var storage repository.Storage
	if cfg.DatabaseDSN != "" {
		pool, err := db.InitDB(ctx, cfg.DatabaseDSN, cfg.MigrationsPath, logger)
		if err != nil {
			return nil, err
		}
		pg := repository.NewPostgresStorage(pool)
		a.close = pg.Close
		storage = pg
	} else {
		logger.Info("no DSN provided, using in-memory storage", zap.String("snapshot", cfg.StoreFile))
		mem := repository.NewMemStorage()
		if cfg.Restore && cfg.StoreFile != "" {
			if err := repository.LoadFromFile(mem, cfg.StoreFile); err != nil && !os.IsNotExist(err) {
				logger.Warn("failed to restore snapshot", zap.Error(err))
			}
		}
		a.snaps = &service.Snapshots{Storage: mem, FilePath: cfg.StoreFile, Interval: cfg.StoreInterval}
		storage = mem
	}

	if cfg.AdminUser != "" {
		created, err := repository.EnsureAdmin(ctx, storage, cfg.AdminUser, cfg.AdminPassword)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info("admin user created", zap.String("username", cfg.AdminUser))
		}
	}

	audit := repository.NewAuditManager(logger)
	if cfg.AuditFile != "" {
		obs, err := repository.NewFileAuditObserver(cfg.AuditFile)
		if err != nil {
			a.close()
			return nil, err
		}
		audit.Attach(obs)
	}
	if cfg.AuditURL != "" {
		audit.Attach(repository.NewHTTPAuditObserver(cfg.AuditURL))
	}

	h := handler.NewHandler(storage, logger)
	h.SetKey(cfg.Key)
	h.SetAudit(audit)

	a.router = service.NewRouter(h, a.snaps, logger)
	return a, nil
}
