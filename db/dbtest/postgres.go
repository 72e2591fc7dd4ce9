// Package dbtest starts a throwaway Postgres for integration tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Dosada05/mafia-overlay/db"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const imageName = "postgres:16-alpine"

// StartPostgres runs a Postgres container, applies the migrations and returns an open pool.
// The returned stop function closes the pool and terminates the container.
func StartPostgres(ctx context.Context) (*sql.DB, func(), error) {
	container, err := postgres.Run(ctx,
		imageName,
		postgres.WithDatabase("mafia"),
		postgres.WithUsername("mafia"),
		postgres.WithPassword("mafia"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		if container != nil {
			_ = container.Terminate(ctx)
		}
		return nil, nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	pool, err := db.Connect(dsn, 30*time.Second)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("failed to connect to postgres container: %w", err)
	}

	if err := db.Migrate(ctx, pool, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("failed to migrate postgres container: %w", err)
	}

	stop := func() {
		pool.Close()
		if err := container.Terminate(context.Background()); err != nil {
			slog.Error("failed to terminate postgres container", slog.Any("error", err))
		}
	}
	return pool, stop, nil
}
