package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// RunMigrations выполняет миграции базы данных PostgreSQL с помощью golang-migrate.
//
// Миграции берутся из каталога dir. Отсутствие новых миграций (ErrNoChange) ошибкой не считается.
func RunMigrations(dsn, dir string, logger *zap.Logger) error {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	logger.Info("applying migrations", zap.String("dir", dir))

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to apply, database is up-to-date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("migrations applied")
	return nil
}
