package db

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"

	// Registers "pgx" with database/sql. The lib/pq, mysql and sqlite3
	// drivers register themselves through the typed imports in errors.go.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ─────────────────────────────────────────────────────────────────────────────
// Dialect
// ─────────────────────────────────────────────────────────────────────────────

// Dialect describes the SQL flavour spoken by a driver.
type Dialect struct {
	// Name is the goqu dialect name ("sqlite3", "postgres", "mysql").
	Name string
	// BindType is the sqlx placeholder style.
	BindType int
	// Returning is true when INSERT ... RETURNING is the way to read back a
	// generated identity.
	Returning bool
	// Migrations names the embedded migrations directory for the dialect.
	Migrations string
}

// Rebind rewrites a query written with '?' placeholders into the dialect's
// placeholder style.
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.BindType, query)
}

// DialectFor returns the dialect of a registered driver, or a pass-through
// dialect derived from sqlx's bind type table for unknown drivers.
func DialectFor(driverName string) Dialect {
	if drv, err := LookupDriver(driverName); err == nil {
		return drv.Dialect()
	}
	return Dialect{Name: "default", BindType: sqlx.BindType(driverName)}
}

// ─────────────────────────────────────────────────────────────────────────────
// Driver
// ─────────────────────────────────────────────────────────────────────────────

// Driver encapsulates database-specific behaviour: DSN construction, error
// mapping and dialect.
type Driver interface {
	// Name returns the name the driver is registered under in database/sql.
	Name() string

	// DSN converts structured options into the driver's DSN string.
	DSN(opts DriverOptions) (string, error)

	// ErrorMapper returns a mapper tuned to this driver's error types.
	ErrorMapper() ErrorMapper

	// Dialect returns the SQL dialect spoken by the driver.
	Dialect() Dialect
}

// DriverOptions carries the common connection parameters in a driver-agnostic
// form.
type DriverOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "require", "verify-full", ...
	// Extra holds driver-specific key/value parameters.
	Extra map[string]string
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// RegisterDriver adds d to the registry, replacing any driver with the same
// name.
func RegisterDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[d.Name()] = d
}

// LookupDriver returns the registered Driver by name.
func LookupDriver(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("db: driver %q not registered", name)
	}
	return d, nil
}

// BuildDSN builds a DSN for driverName from structured options.
func BuildDSN(driverName string, opts DriverOptions) (string, error) {
	drv, err := LookupDriver(driverName)
	if err != nil {
		return "", err
	}
	dsn, err := drv.DSN(opts)
	if err != nil {
		return "", fmt.Errorf("db: DSN construction failed: %w", err)
	}
	return dsn, nil
}

func init() {
	RegisterDriver(SQLiteDriver{})
	RegisterDriver(PostgresDriver{})
	RegisterDriver(PgxDriver{})
	RegisterDriver(MySQLDriver{})
}

// sortedExtra returns the Extra keys in a stable order so equal options always
// produce equal DSNs.
func sortedExtra(extra map[string]string) []string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ─────────────────────────────────────────────────────────────────────────────
// SQLite (mattn/go-sqlite3)
// ─────────────────────────────────────────────────────────────────────────────

// SQLiteDriver is the mattn/go-sqlite3 adapter. It is the default store.
type SQLiteDriver struct{}

func (SQLiteDriver) Name() string { return "sqlite3" }

func (SQLiteDriver) DSN(o DriverOptions) (string, error) {
	if o.Database == "" {
		return "", fmt.Errorf("sqlite3 driver: Database (file path) is required")
	}
	if len(o.Extra) == 0 {
		return o.Database, nil
	}
	params := make([]string, 0, len(o.Extra))
	for _, k := range sortedExtra(o.Extra) {
		params = append(params, k+"="+o.Extra[k])
	}
	return o.Database + "?" + strings.Join(params, "&"), nil
}

func (SQLiteDriver) ErrorMapper() ErrorMapper { return driverMapper(mapSQLiteError) }

func (SQLiteDriver) Dialect() Dialect {
	return Dialect{Name: "sqlite3", BindType: sqlx.QUESTION, Migrations: "sqlite3"}
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL (lib/pq)
// ─────────────────────────────────────────────────────────────────────────────

// PostgresDriver is the lib/pq adapter.
type PostgresDriver struct{}

func (PostgresDriver) Name() string { return "postgres" }

func (PostgresDriver) DSN(o DriverOptions) (string, error) {
	return postgresURL(o)
}

func (PostgresDriver) ErrorMapper() ErrorMapper { return driverMapper(mapPQError) }

func (PostgresDriver) Dialect() Dialect {
	return Dialect{Name: "postgres", BindType: sqlx.DOLLAR, Returning: true, Migrations: "postgres"}
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL (pgx stdlib)
// ─────────────────────────────────────────────────────────────────────────────

// PgxDriver is the jackc/pgx database/sql adapter. It shares the postgres
// dialect and migrations with PostgresDriver.
type PgxDriver struct{}

func (PgxDriver) Name() string { return "pgx" }

func (PgxDriver) DSN(o DriverOptions) (string, error) {
	return postgresURL(o)
}

func (PgxDriver) ErrorMapper() ErrorMapper { return driverMapper(mapPGXError) }

func (PgxDriver) Dialect() Dialect {
	return Dialect{Name: "postgres", BindType: sqlx.DOLLAR, Returning: true, Migrations: "postgres"}
}

// postgresURL renders options as a postgres:// URL, the one form understood
// by lib/pq, pgx and golang-migrate alike.
func postgresURL(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("postgres driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 5432
	}
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	for _, k := range sortedExtra(o.Extra) {
		q.Set(k, o.Extra[k])
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", o.Host, port),
		Path:     "/" + o.Database,
		RawQuery: q.Encode(),
	}
	if o.User != "" {
		u.User = url.UserPassword(o.User, o.Password)
	}
	return u.String(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MySQL (go-sql-driver/mysql)
// ─────────────────────────────────────────────────────────────────────────────

// MySQLDriver is the go-sql-driver/mysql adapter.
type MySQLDriver struct{}

func (MySQLDriver) Name() string { return "mysql" }

func (MySQLDriver) DSN(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("mysql driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		o.User, o.Password, o.Host, port, o.Database)
	for _, k := range sortedExtra(o.Extra) {
		dsn += fmt.Sprintf("&%s=%s", k, o.Extra[k])
	}
	return dsn, nil
}

func (MySQLDriver) ErrorMapper() ErrorMapper { return driverMapper(mapMySQLError) }

func (MySQLDriver) Dialect() Dialect {
	return Dialect{Name: "mysql", BindType: sqlx.QUESTION, Migrations: "mysql"}
}
