package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Lekka141/VaultConnect/internal/config"
	"github.com/Lekka141/VaultConnect/internal/server/storage/postgres"
	"github.com/Lekka141/VaultConnect/internal/server/storage/sqlite"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|version|force N]",
		Short: "Manage the account store schema",
		Long: `Apply or inspect schema migrations. SQLite stores only support "up";
their migrations also run automatically when the server starts.`,
		Args:      cobra.RangeArgs(0, 2),
		ValidArgs: []string{"up", "down", "version", "force"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(cmd.Flags())
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.Storage.Validate(); err != nil {
				return err
			}

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}

			if cfg.Storage.Driver == config.DriverSQLite {
				return migrateSQLite(cmd, cfg.Storage.DSN, action)
			}
			return migratePostgresCmd(cmd, cfg.Storage.DSN, action, args)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func migrateSQLite(cmd *cobra.Command, dsn, action string) error {
	if action != "up" {
		return oops.Code("MIGRATION_UNSUPPORTED").Errorf("sqlite supports only \"up\", got %q", action)
	}

	s, err := sqlite.New(context.Background(), dsn)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	if err := s.Close(); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}

func migratePostgresCmd(cmd *cobra.Command, dsn, action string, args []string) (err error) {
	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	switch action {
	case "up":
		cmd.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return err
		}
		cmd.Println("Migrations completed successfully")
	case "down":
		if err := m.Down(); err != nil {
			return err
		}
		cmd.Println("All migrations rolled back")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		cmd.Printf("version %d (dirty: %t)\n", version, dirty)
	case "force":
		if len(args) != 2 {
			return oops.Code("INVALID_ARGUMENT").Errorf("force requires a version")
		}
		version, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return oops.Code("INVALID_ARGUMENT").With("version", args[1]).Wrap(convErr)
		}
		if err := m.Force(version); err != nil {
			return err
		}
		cmd.Printf("forced version %d\n", version)
	default:
		return oops.Code("INVALID_ARGUMENT").Errorf("unknown migrate action %q", action)
	}

	return nil
}
