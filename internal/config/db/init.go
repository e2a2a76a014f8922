package db

import (
	"context"
	"fmt"

	"github.com/RoGogDBD/sysmon-uploader/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// InitDB подключается к PostgreSQL и применяет миграции из migrationsPath.
//
// Подключение и миграции повторяются при временных ошибках (config.RetryWithBackoff).
func InitDB(ctx context.Context, dsn, migrationsPath string, logger *zap.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := config.RetryWithBackoff(ctx, func() error {
		var innerErr error
		pool, innerErr = pgxpool.New(ctx, dsn)
		if innerErr != nil {
			return innerErr
		}
		if innerErr = pool.Ping(ctx); innerErr != nil {
			pool.Close()
			return innerErr
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db after retries: %w", err)
	}

	logger.Info("connected to PostgreSQL")

	if err := config.RetryWithBackoff(ctx, func() error {
		return RunMigrations(dsn, migrationsPath, logger)
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations after retries: %w", err)
	}

	return pool, nil
}
