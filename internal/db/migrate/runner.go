// Package migrate runs database migrations from embedded SQL files using golang-migrate.
package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"account-console/internal/db"
)

// ErrNoChange is returned when Up/Down has nothing to do (already at target version).
var ErrNoChange = migrate.ErrNoChange

// Run applies migrations in the given direction using the provided DSN.
// direction must be "up" or "down". Returns nil on success; ErrNoChange when already
// at the target version; other errors for DB or I/O failures.
func Run(dsn string, direction string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	conn, err := db.Open(dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer conn.Close()

	m, err := newMigrate(conn)
	if err != nil {
		return err
	}

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return ErrNoChange
	}
	return err
}

// Up applies all pending migrations on an open connection. Already up to date is not an error.
func Up(conn *db.DB) error {
	m, err := newMigrate(conn)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func newMigrate(conn *db.DB) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(db.MigrationFS, "migrations/"+conn.Dialect)
	if err != nil {
		return nil, fmt.Errorf("migrate source: %w", err)
	}

	var driver database.Driver
	switch conn.Dialect {
	case db.DialectPostgres:
		driver, err = postgres.WithInstance(conn.DB, &postgres.Config{})
	case db.DialectSQLite:
		driver, err = sqlite.WithInstance(conn.DB, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("migrate: unsupported dialect %q", conn.Dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, conn.Dialect, driver)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return m, nil
}
