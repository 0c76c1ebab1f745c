package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/restfull-books/config"
)

func TestRootCommand_RejectsArgs(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"serve"})
	assert.Error(t, cmd.Execute())
}

func TestRun_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  format: xml\n"), 0o600))

	err := run(context.Background(), path)
	assert.ErrorContains(t, err, "log.format")
}

func TestOpenDatabase_Migrates(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "server.db"))
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := config.Load("")
	require.NoError(t, err)
	logger, err := cfg.NewLogger(os.Stderr)
	require.NoError(t, err)

	database, err := openDatabase(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer database.Close()

	var n int
	require.NoError(t, database.QueryRow(context.Background(), `SELECT COUNT(*) FROM books`).Scan(&n))
	assert.Zero(t, n)
}
