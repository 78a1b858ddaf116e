package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thirdcoast.systems/mediapaths/internal/application"
	"thirdcoast.systems/mediapaths/internal/config"
	"thirdcoast.systems/mediapaths/internal/db"
)

func main() {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(sigCtx, 2*time.Minute)
	defer cancel()

	slog.Info("Starting media run history migrator", "target", migrationTarget())

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dbc, err := db.NewDatabaseConnection(ctx, pool)
	if err != nil {
		slog.Error("failed to create database connection", "error", err)
		os.Exit(1)
	}
	defer dbc.Close()

	if err := dbc.Migrate(ctx); err != nil {
		slog.Error("failed to migrate media run history schema", "error", err)
		os.Exit(1)
	}

	// A down migration may have removed the table; only report when it is readable.
	prev, err := dbc.Queries(ctx).LatestAssignmentRun(ctx)
	switch {
	case err != nil:
		slog.Info("media run history not readable after migration", "error", err)
	case prev == nil:
		slog.Info("media run history ready, no runs recorded yet")
	default:
		slog.Info("media run history ready", "last_run", prev.FinishedAt, "dry_run", prev.DryRun)
	}

	slog.Info("Media run history migrations completed")
}

// migrationTarget describes the goose bound applied by Migrate.
func migrationTarget() string {
	if v := os.Getenv("GOOSE_DOWN_TO"); v != "" {
		return "down to " + v
	}
	if v := os.Getenv("GOOSE_UP_TO"); v != "" {
		return "up to " + v
	}
	return "latest"
}
