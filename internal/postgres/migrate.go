package postgres

import (
	"database/sql"
	"embed"
	"errors"

	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, err
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", source, "postgres", driver)
}

// MigrateUp applies all pending schema migrations
func MigrateUp(db *sql.DB, log *logger.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to initialize migrations").
			Mark(ierr.ErrDatabase)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return ierr.WithError(err).
			WithHint("Failed to apply migrations").
			Mark(ierr.ErrDatabase)
	}

	version, dirty, _ := m.Version()
	log.Infow("database schema is up to date", "version", version, "dirty", dirty)
	return nil
}

// MigrateDown rolls back the given number of migrations
func MigrateDown(db *sql.DB, steps int, log *logger.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to initialize migrations").
			Mark(ierr.ErrDatabase)
	}

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return ierr.WithError(err).
			WithHint("Failed to roll back migrations").
			Mark(ierr.ErrDatabase)
	}

	log.Infow("rolled back migrations", "steps", steps)
	return nil
}

// MigrationVersion reports the applied schema version; zero when none is applied
func MigrationVersion(db *sql.DB) (uint, bool, error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, ierr.WithError(err).
			WithHint("Failed to initialize migrations").
			Mark(ierr.ErrDatabase)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, ierr.WithError(err).
			WithHint("Failed to read schema version").
			Mark(ierr.ErrDatabase)
	}
	return version, dirty, nil
}
