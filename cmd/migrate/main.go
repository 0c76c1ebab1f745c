// Command migrate manages the embedded schema migrations outside of the
// server's start-up path.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Skryldev/restfull-books/config"
	"github.com/Skryldev/restfull-books/db"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("migrate: " + err.Error())
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the restfull-books database schema",
		Long: `Manage the restfull-books database schema.

The database is taken from the same config file and environment as the
server (DATABASE_URL, DB_DRIVER). Migrations are compiled into the binary.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(
		newUpCommand(opts),
		newDownCommand(opts),
		newVersionCommand(opts),
		newForceCommand(opts),
		newDropCommand(opts),
	)
	return cmd
}

// withMigrator loads configuration, opens a Migrator and closes it after fn.
func withMigrator(opts *rootOptions, fn func(*db.Migrator, *slog.Logger) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	dbCfg, err := cfg.DB()
	if err != nil {
		return err
	}

	m, err := db.NewMigrator(dbCfg, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m, logger)
}

func newUpCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withMigrator(opts, func(m *db.Migrator, logger *slog.Logger) error {
				if err := m.Up(); err != nil {
					return err
				}
				logger.Info("migrations: up completed")
				return nil
			})
		},
	}
}

func newDownCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "down [N]",
		Short: "Roll back N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("down: invalid steps argument %q", args[0])
				}
				steps = n
			}
			return withMigrator(opts, func(m *db.Migrator, logger *slog.Logger) error {
				if err := m.Steps(-steps); err != nil {
					return err
				}
				logger.Info("migrations: down completed", "steps", steps)
				return nil
			})
		},
	}
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(opts, func(m *db.Migrator, _ *slog.Logger) error {
				v, dirty, err := m.Version()
				if err != nil {
					return fmt.Errorf("version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d  dirty: %v\n", v, dirty)
				return nil
			})
		},
	}
}

func newForceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "force V",
		Short: "Set the recorded version without migrating (clears dirty state)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("force: invalid version %q", args[0])
			}
			return withMigrator(opts, func(m *db.Migrator, logger *slog.Logger) error {
				if err := m.Force(v); err != nil {
					return fmt.Errorf("force: %w", err)
				}
				logger.Info("migrations: forced", "version", v)
				return nil
			})
		},
	}
}

func newDropCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop all tables (dev only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				fmt.Fprintln(cmd.ErrOrStderr(), "WARNING: drop will destroy all tables. Type 'yes' to confirm:")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(answer) != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}
			return withMigrator(opts, func(m *db.Migrator, logger *slog.Logger) error {
				if err := m.Drop(); err != nil {
					return fmt.Errorf("drop: %w", err)
				}
				logger.Info("migrations: all tables dropped")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
