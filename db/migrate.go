package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations for one database.
//
// It owns a dedicated connection handle, separate from any *DB, because
// closing a golang-migrate instance closes the handle it was built on.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator prepares the embedded migrations matching cfg.DriverName.
// The caller must Close the returned Migrator.
func NewMigrator(cfg Config, logger *slog.Logger) (*Migrator, error) {
	dialect := DialectFor(cfg.DriverName)
	if dialect.Migrations == "" {
		return nil, fmt.Errorf("db: no migrations for driver %q", cfg.DriverName)
	}
	if logger == nil {
		logger = slog.Default()
	}

	src, err := iofs.New(migrationsFS, "migrations/"+dialect.Migrations)
	if err != nil {
		return nil, fmt.Errorf("db: migrations source: %w", err)
	}

	sqldb, err := sql.Open(cfg.DriverName, cfg.DSN)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("db: open: %w", err)
	}

	var drv database.Driver
	switch dialect.Migrations {
	case "sqlite3":
		drv, err = migratesqlite.WithInstance(sqldb, &migratesqlite.Config{})
	case "postgres":
		drv, err = migratepg.WithInstance(sqldb, &migratepg.Config{})
	case "mysql":
		drv, err = migratemysql.WithInstance(sqldb, &migratemysql.Config{})
	default:
		err = fmt.Errorf("unsupported migrations dialect %q", dialect.Migrations)
	}
	if err != nil {
		_ = src.Close()
		_ = sqldb.Close()
		return nil, fmt.Errorf("db: migrations database: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect.Migrations, drv)
	if err != nil {
		_ = src.Close()
		_ = drv.Close()
		return nil, fmt.Errorf("db: migrate init: %w", err)
	}
	m.Log = &migrateLogger{logger: logger}

	return &Migrator{m: m}, nil
}

// Up applies all pending migrations. Having nothing to apply is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: migrate up: %w", err)
	}
	return nil
}

// Steps applies n migrations, rolling back when n is negative.
func (mg *Migrator) Steps(n int) error {
	if err := mg.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: migrate steps %d: %w", n, err)
	}
	return nil
}

// Version reports the applied version. A database without any migration
// reports version 0.
func (mg *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Force sets the recorded version without running migrations, clearing the
// dirty flag.
func (mg *Migrator) Force(version int) error {
	return mg.m.Force(version)
}

// Drop removes every table in the database.
func (mg *Migrator) Drop() error {
	return mg.m.Drop()
}

// Close releases the migration source and the dedicated database handle.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool { return false }
