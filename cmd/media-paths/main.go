package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"thirdcoast.systems/mediapaths/internal/application"
	"thirdcoast.systems/mediapaths/internal/config"
	"thirdcoast.systems/mediapaths/internal/db"
	"thirdcoast.systems/mediapaths/internal/mediapath"
	"thirdcoast.systems/mediapaths/internal/mediastore"
)

// errIncompleteCoverage is returned when full coverage was required but some
// entities could not be given every slot.
var errIncompleteCoverage = errors.New("media assignment left slots unassigned")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting media path assignment")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := conf.RequireMediaDir(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	store := mediastore.New(conf.MediaConfig.Dir, conf.MediaConfig.Extension, conf.MediaConfig.URLPrefix)
	if info, err := os.Stat(store.Root); err != nil || !info.IsDir() {
		slog.Error("media directory not found", "dir", store.Root, "error", err)
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

	if err := run(ctx, dbc, conf, store); err != nil {
		slog.Error("media path assignment failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Media path assignment completed", "dry_run", conf.MediaConfig.DryRun)
}

func run(ctx context.Context, dbc *db.DatabaseConnection, conf *config.Config, store *mediastore.Store) error {
	startedAt := time.Now()
	dryRun := conf.MediaConfig.DryRun

	logPreviousRun(ctx, dbc)

	jobs := []tableJob{userJob(conf.SchemaConfig), postJob(conf.SchemaConfig)}
	results := make([]*tableResult, 0, len(jobs))
	for _, job := range jobs {
		res, err := processTable(ctx, dbc, store, job, conf.MediaConfig.Categories, dryRun)
		if err != nil {
			return fmt.Errorf("%s: %w", job.Table, err)
		}
		printTableResult(os.Stdout, res)
		results = append(results, res)
	}

	recordRun(ctx, dbc, startedAt, dryRun, store.Root, results)

	if conf.MediaConfig.RequireFullCoverage {
		for _, res := range results {
			if res.Report.Unassigned() > 0 || res.Report.Invalid > 0 {
				return fmt.Errorf("%w: %s has %d unassigned slots and %d invalid ids",
					errIncompleteCoverage, res.Table, res.Report.Unassigned(), res.Report.Invalid)
			}
		}
	}
	return nil
}

// tableResult is what one table's pass produced.
type tableResult struct {
	Table     string           `json:"table"`
	DryRun    bool             `json:"dry_run"`
	PoolSizes map[string]int   `json:"pool_sizes"`
	Report    mediapath.Report `json:"report"`
	Updated   int              `json:"updated"`
	Missing   int              `json:"missing"`
	Coverage  *db.Coverage     `json:"coverage,omitempty"`
}

// processTable prepares columns, plans assignments and writes them, all in one
// transaction. Dry runs roll the transaction back after collecting coverage.
func processTable(ctx context.Context, dbc *db.DatabaseConnection, store *mediastore.Store, job tableJob, categories []string, dryRun bool) (*tableResult, error) {
	q, tx, err := dbc.NewWithTX(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, def := range job.Slots {
		created, err := q.EnsureTextColumn(ctx, job.Table, def.Column)
		if err != nil {
			return nil, err
		}
		if created {
			slog.Info("added media column", "table", job.Table, "column", def.Column)
		}
	}
	for _, def := range job.Slots {
		if !def.Backup {
			continue
		}
		created, err := q.BackupColumn(ctx, job.Table, def.Column)
		if err != nil {
			return nil, err
		}
		if created {
			slog.Info("backed up original values", "table", job.Table, "column", def.Column, "backup", db.BackupColumnName(def.Column))
		}
	}

	rows, err := q.ListEntities(ctx, job.Table, job.CategoryColumn)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	slots, err := loadSlots(store, job, categories)
	if err != nil {
		return nil, err
	}

	res := &tableResult{Table: job.Table, DryRun: dryRun, PoolSizes: make(map[string]int, len(slots))}
	for _, s := range slots {
		res.PoolSizes[s.Name] = len(s.Pool)
		slog.Info("media pool loaded", "table", job.Table, "slot", s.Name, "files", len(s.Pool), "categories", len(s.Index))
		if len(s.Pool) == 0 {
			slog.Warn("media pool empty, slot will be left unassigned", "table", job.Table, "slot", s.Name)
		}
	}

	slog.Info("assigning media", "table", job.Table, "entities", len(rows))
	assignments, report := mediapath.Plan(toEntities(rows), slots)
	res.Report = report
	for _, e := range report.Errors {
		slog.Warn("skipped entity", "table", job.Table, "error", e)
	}

	for _, a := range assignments {
		n, err := q.UpdateMediaColumns(ctx, job.Table, a.Key, columnValues(store, job, a))
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", a.Key, err)
		}
		if n == 0 {
			res.Missing++
			continue
		}
		res.Updated++
	}

	res.Coverage, err = q.CoverageStats(ctx, job.Table, job.columns())
	if err != nil {
		return nil, fmt.Errorf("coverage: %w", err)
	}

	if dryRun {
		slog.Info("dry run, rolling back", "table", job.Table, "would_update", res.Updated)
		return res, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func logPreviousRun(ctx context.Context, dbc *db.DatabaseConnection) {
	prev, err := dbc.Queries(ctx).LatestAssignmentRun(ctx)
	switch {
	case err != nil && db.IsUndefinedColumnErr(err):
		slog.Warn("run history table missing, run pg-migrator to record runs")
	case err != nil:
		slog.Warn("failed to read previous run", "error", err)
	case prev != nil:
		slog.Info("previous run", "finished_at", prev.FinishedAt, "dry_run", prev.DryRun, "media_dir", prev.MediaDir)
	}
}

func recordRun(ctx context.Context, dbc *db.DatabaseConnection, startedAt time.Time, dryRun bool, mediaDir string, results []*tableResult) {
	report := db.RunReport{}
	for _, r := range results {
		report[r.Table] = r
	}

	err := dbc.Queries(ctx).InsertAssignmentRun(ctx, &db.AssignmentRun{
		ID:         pgUUIDFromGoogle(uuid.New()),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		DryRun:     dryRun,
		MediaDir:   mediaDir,
		Report:     report,
	})
	if err != nil {
		if db.IsUndefinedColumnErr(err) {
			slog.Warn("run history table missing, run not recorded")
			return
		}
		slog.Warn("failed to record run", "error", err)
	}
}

func pgUUIDFromGoogle(u uuid.UUID) pgtype.UUID {
	var out pgtype.UUID
	copy(out.Bytes[:], u[:])
	out.Valid = true
	return out
}
