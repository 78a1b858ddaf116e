package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"thirdcoast.systems/mediapaths/internal/application"
	"thirdcoast.systems/mediapaths/internal/config"
	"thirdcoast.systems/mediapaths/internal/db"
	"thirdcoast.systems/mediapaths/internal/mediastore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting media storage check")

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
	if err := store.Ensure(); err != nil {
		slog.Error("failed to prepare media directories", "dir", store.Root, "error", err)
		os.Exit(1)
	}

	healthy, err := printStorage(os.Stdout, store, conf.MediaConfig.Categories)
	if err != nil {
		slog.Error("failed to verify media storage", "error", err)
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

	if err := printDatabaseCoverage(ctx, os.Stdout, dbc.Queries(ctx), conf.SchemaConfig); err != nil {
		slog.Error("failed to read database coverage", "error", err)
		os.Exit(1)
	}

	if !healthy {
		slog.Warn("media storage below expected file counts")
		os.Exit(2)
	}
	slog.Info("Media storage check completed")
}

// printStorage writes per-directory and per-category counts and reports
// whether every directory is healthy.
func printStorage(w io.Writer, store *mediastore.Store, categories []string) (bool, error) {
	statuses, err := store.Verify(mediastore.DefaultKinds)
	if err != nil {
		return false, err
	}

	healthy := true
	fmt.Fprintf(w, "Media directory: %s\n", store.Root)
	for _, st := range statuses {
		mark := "ok"
		if !st.Healthy() {
			mark = "LOW"
			healthy = false
		}
		fmt.Fprintf(w, "  [%s] %s: %d/%d files (%s)\n", mark, st.Dir, st.Actual, st.Expected, humanize.Bytes(st.Bytes))
	}

	title := cases.Title(language.English)
	for _, dir := range []string{mediastore.DirPosts, mediastore.DirThumbnails} {
		counts, err := store.CategoryCounts(dir, categories)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(w, "  %s by category:\n", dir)
		for _, c := range categories {
			fmt.Fprintf(w, "    %s: %d\n", title.String(c), counts[c])
		}
	}
	return healthy, nil
}

func printDatabaseCoverage(ctx context.Context, w io.Writer, q *db.Queries, s config.SchemaConfig) error {
	tables := []struct {
		name    string
		columns []string
	}{
		{s.UsersTable, []string{s.UserAvatarColumn, s.UserBackground}},
		{s.PostsTable, []string{s.PostMediaColumn, s.PostThumbnailColumn}},
	}

	fmt.Fprintln(w, "Database coverage:")
	for _, t := range tables {
		present := make([]string, 0, len(t.columns))
		for _, c := range t.columns {
			ok, err := q.ColumnExists(ctx, t.name, c)
			if err != nil {
				return fmt.Errorf("check %s.%s: %w", t.name, c, err)
			}
			if !ok {
				fmt.Fprintf(w, "  %s.%s: column missing\n", t.name, c)
				continue
			}
			present = append(present, c)
		}

		cov, err := q.CoverageStats(ctx, t.name, present)
		if err != nil {
			return fmt.Errorf("coverage %s: %w", t.name, err)
		}
		fmt.Fprintf(w, "  %s: %s rows\n", t.name, humanize.Comma(cov.Total))
		for _, c := range present {
			fmt.Fprintf(w, "    with %s: %s\n", c, humanize.Comma(cov.NonNull[c]))
		}
	}
	return nil
}
