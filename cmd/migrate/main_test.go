package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func useTempDatabase(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "migrate.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("AUTO_MIGRATE", "")
}

func TestMigrateCommands(t *testing.T) {
	useTempDatabase(t)

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version: 0  dirty: false")

	_, err = execute(t, "", "up")
	require.NoError(t, err)
	out, _ = execute(t, "", "version")
	assert.Contains(t, out, "version: 2  dirty: false")

	_, err = execute(t, "", "down")
	require.NoError(t, err)
	out, _ = execute(t, "", "version")
	assert.Contains(t, out, "version: 1  dirty: false")

	_, err = execute(t, "", "force", "2")
	require.NoError(t, err)
	out, _ = execute(t, "", "version")
	assert.Contains(t, out, "version: 2  dirty: false")
}

func TestMigrateArgs(t *testing.T) {
	useTempDatabase(t)

	_, err := execute(t, "", "down", "zero")
	assert.Error(t, err)

	_, err = execute(t, "", "force", "x")
	assert.Error(t, err)

	_, err = execute(t, "", "up", "extra")
	assert.Error(t, err)
}

func TestDrop_RequiresConfirmation(t *testing.T) {
	useTempDatabase(t)
	_, err := execute(t, "", "up")
	require.NoError(t, err)

	out, err := execute(t, "no\n", "drop")
	require.NoError(t, err)
	assert.Contains(t, out, "aborted")
	out, _ = execute(t, "", "version")
	assert.Contains(t, out, "version: 2")

	_, err = execute(t, "", "drop", "--yes")
	require.NoError(t, err)
	out, _ = execute(t, "", "version")
	assert.Contains(t, out, "version: 0")
}
