package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/migrate"
)

// Файлы вида <timestamp>_<name>.tx.up.sql, каждый выполняется в своей транзакции.
//
//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded SQL migrations.
func Migrations() (*migrate.Migrations, error) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	migrations := migrate.NewMigrations()
	if err := migrations.Discover(sub); err != nil {
		return nil, fmt.Errorf("failed to discover migrations: %w", err)
	}
	return migrations, nil
}

// Migrate applies pending migrations through bun's migrator on top of the existing pool.
// The migration lock keeps two concurrent runs from applying the same group twice.
func Migrate(ctx context.Context, sqlDB *sql.DB, logger *slog.Logger) (err error) {
	migrations, err := Migrations()
	if err != nil {
		return err
	}

	// bun.DB не закрываем: он закрыл бы общий *sql.DB репозиториев.
	bunDB := bun.NewDB(sqlDB, pgdialect.New())
	migrator := migrate.NewMigrator(bunDB, migrations)

	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migration tables: %w", err)
	}
	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if unlockErr := migrator.Unlock(ctx); unlockErr != nil && err == nil {
			err = fmt.Errorf("failed to release migration lock: %w", unlockErr)
		}
	}()

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	if group.IsZero() {
		logger.Info("No new migrations to run")
		return nil
	}
	logger.Info("Migrations applied", slog.String("group", group.String()))
	return nil
}
