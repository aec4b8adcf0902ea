package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations creates the credentials table on a freshly opened vault
// database. Pass the writer handle; the reader shares the same in-memory data.
func RunMigrations(db *sql.DB) error {
	schema, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load credential schema: %w", err)
	}

	target, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("attach schema migrator to vault db: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", schema, "sqlite", target)
	if err != nil {
		return fmt.Errorf("prepare credential schema: %w", err)
	}

	// A second call against the same named database finds the schema current.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply credential schema: %w", err)
	}

	return nil
}
