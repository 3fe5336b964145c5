package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrate applies all pending migrations for the store's driver.
func (s *Store) Migrate(ctx context.Context) error {
	var (
		dialect database.Dialect
		dir     string
	)
	switch s.DB.DriverName() {
	case "sqlite":
		dialect, dir = database.DialectSQLite3, "migrations/sqlite"
	case "pgx":
		dialect, dir = database.DialectPostgres, "migrations/postgres"
	default:
		return fmt.Errorf("no migrations for driver %q", s.DB.DriverName())
	}

	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}
	provider, err := goose.NewProvider(dialect, s.DB.DB, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		slog.Info("Applied migration", "version", r.Source.Version, "file", r.Source.Path, "duration", r.Duration)
	}
	return nil
}
