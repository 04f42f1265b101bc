// Package cli implements the sitectl operator commands.
package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"sitecraft/internal/config"
	"sitecraft/internal/database"
)

// RootCommand assembles sitectl with all subcommands.
func RootCommand() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Operate a Sitecraft installation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dsn, "db", "", "Database connection string (overrides the DB_* environment)")

	open := func() (*sql.DB, error) { return openDB(dsn) }
	root.AddCommand(
		MigrateCommand(open),
		SeedCommand(open),
		CreateUserCommand(open),
		ExportCommand(open),
		SchemaCommand(),
	)
	return root
}

// opener returns a database handle; commands close it when done.
type opener func() (*sql.DB, error)

func openDB(dsn string) (*sql.DB, error) {
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		dsn = cfg.DSN()
	}
	return database.Connect(dsn)
}

// MigrateCommand applies pending migrations, or reports their status.
func MigrateCommand(open opener) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			defer db.Close()
			if status {
				return database.MigrationStatus(db)
			}
			return database.Migrate(db)
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "Print migration status instead of migrating")
	return cmd
}

// SeedCommand creates the development admin account on an empty database.
func SeedCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin user when no users exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			defer db.Close()
			return database.Seed(db)
		},
	}
}
