package main

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tomlord1122/todolist/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrationDB(cmd.Context(), database.Up)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrationDB(cmd.Context(), database.Down)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of every migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrationDB(cmd.Context(), func(ctx context.Context, db *sql.DB, log *zap.Logger) error {
			if err := database.Status(ctx, db, log); err != nil {
				return err
			}
			v, err := database.Version(ctx, db, log)
			if err != nil {
				return err
			}
			log.Info("current schema version", zap.Int64("version", v))
			return nil
		})
	},
}

func withMigrationDB(ctx context.Context, fn func(context.Context, *sql.DB, *zap.Logger) error) error {
	db, err := database.OpenDB(cfg.DB.ConnString())
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, db, logger)
}
