// AngelaMos | 2026
// migrate.go

package core

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

// Migrate applies every pending goose migration in files and returns the
// names of the ones it ran. A Postgres session lock serializes replicas that
// start together, so each migration runs exactly once.
func Migrate(ctx context.Context, db *sqlx.DB, files fs.FS) ([]string, error) {
	provider, err := newMigrationProvider(db.DB, files)
	if err != nil {
		return nil, err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	ran := make([]string, 0, len(results))
	for _, r := range results {
		ran = append(ran, migrationName(r.Source))
	}
	return ran, nil
}

func newMigrationProvider(db *sql.DB, files fs.FS) (*goose.Provider, error) {
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, fmt.Errorf("create migration lock: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, files,
		goose.WithSessionLocker(locker),
	)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return provider, nil
}

func migrationName(src *goose.Source) string {
	return strings.TrimSuffix(path.Base(src.Path), ".sql")
}
