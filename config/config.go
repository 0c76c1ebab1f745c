// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Skryldev/restfull-books/db"
)

// Config is the full service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig describes the store. DSN, when set, is used verbatim;
// otherwise it is built from the structured fields by the driver registry.
type DatabaseConfig struct {
	Driver   string            `yaml:"driver"`
	DSN      string            `yaml:"dsn"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Name     string            `yaml:"name"` // database name, or file path for sqlite3
	SSLMode  string            `yaml:"sslmode"`
	Params   map[string]string `yaml:"params"`

	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `yaml:"conn_max_idle_time"`
	QueryTimeout       time.Duration `yaml:"query_timeout"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"`
	LogArgs            bool          `yaml:"log_args"`

	// ConnectAttempts bounds the start-up wait for the database.
	ConnectAttempts int           `yaml:"connect_attempts"`
	ConnectDelay    time.Duration `yaml:"connect_delay"`

	AutoMigrate bool `yaml:"auto_migrate"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Default returns the configuration used when nothing is set: an SQLite file
// in the working directory, served on :8080.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:             "sqlite3",
			Name:               "restfull_books.db",
			Params:             map[string]string{"_busy_timeout": "5000"},
			QueryTimeout:       5 * time.Second,
			SlowQueryThreshold: 200 * time.Millisecond,
			ConnectAttempts:    5,
			ConnectDelay:       2 * time.Second,
			AutoMigrate:        true,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path (skipped when empty), then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Database.DSN = v
	}
	if v, ok := lookup("DB_DRIVER"); ok && v != "" {
		c.Database.Driver = v
	}
	if v, ok := lookup("HTTP_ADDR"); ok && v != "" {
		c.HTTP.Addr = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		c.Log.Format = v
	}
	if v, ok := lookup("AUTO_MIGRATE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: AUTO_MIGRATE: %w", err)
		}
		c.Database.AutoMigrate = b
	}
	return nil
}

func (c *Config) validate() error {
	if c.Database.Driver == "" {
		return errors.New("config: database.driver is required")
	}
	if c.HTTP.Addr == "" {
		return errors.New("config: http.addr is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format %q must be json or text", c.Log.Format)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// DB converts the database section into a db.Config carrying hooks.
func (c *Config) DB(hooks ...db.Hook) (db.Config, error) {
	d := c.Database

	dsn := d.DSN
	if dsn == "" {
		var err error
		dsn, err = db.BuildDSN(d.Driver, db.DriverOptions{
			Host:     d.Host,
			Port:     d.Port,
			User:     d.User,
			Password: d.Password,
			Database: d.Name,
			SSLMode:  d.SSLMode,
			Extra:    d.Params,
		})
		if err != nil {
			return db.Config{}, fmt.Errorf("config: %w", err)
		}
	}

	maxOpen := d.MaxOpenConns
	if maxOpen == 0 && d.Driver == "sqlite3" {
		// SQLite allows a single writer.
		maxOpen = 1
	}

	return db.Config{
		DSN:             dsn,
		DriverName:      d.Driver,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
		DefaultTimeout:  d.QueryTimeout,
		Hooks:           hooks,
	}, nil
}

// NewLogger builds the process logger described by the log section.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}
