package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|status]",
	Short: "Apply or inspect the database schema migrations",
	Long: `Apply or inspect the embedded schema migrations against the configured database.

Examples:
  # Apply pending migrations
  timetable-cli migrate up

  # Show applied and pending migrations
  timetable-cli migrate status`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "status"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db.DB, logr)
	if err != nil {
		return err
	}

	switch args[0] {
	case "up":
		return migrator.Up(ctx)
	case "status":
		return migrator.Status(ctx)
	default:
		return fmt.Errorf("unknown migrate action %q, expected up or status", args[0])
	}
}
