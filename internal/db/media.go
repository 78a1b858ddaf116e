package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// EntityRow is a row that needs media: its id rendered as text and an
// optional category label.
type EntityRow struct {
	ID       string
	Category *string
}

const columnExists = `-- name: ColumnExists :one
SELECT EXISTS (
    SELECT 1 FROM information_schema.columns
    WHERE table_name = $1::text
      AND column_name = $2::text
      AND table_schema = COALESCE($3::text, current_schema())
)
`

func (q *Queries) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	schema, bare := tableSchema(table)
	var exists bool
	err := q.db.QueryRow(ctx, columnExists, bare, column, schema).Scan(&exists)
	return exists, err
}

// EnsureTextColumn adds a nullable TEXT column when it is missing and reports
// whether it was created.
func (q *Queries) EnsureTextColumn(ctx context.Context, table, column string) (bool, error) {
	exists, err := q.ColumnExists(ctx, table, column)
	if err != nil {
		return false, fmt.Errorf("check column %s.%s: %w", table, column, err)
	}
	if exists {
		return false, nil
	}
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", Ident(table), Ident(column))
	if _, err := q.db.Exec(ctx, sql); err != nil {
		return false, fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return true, nil
}

// BackupColumn creates <column>_backup and copies the current values into it.
// Values are copied only when the backup column is new, so re-runs never
// overwrite the preserved originals with assigned paths.
func (q *Queries) BackupColumn(ctx context.Context, table, column string) (bool, error) {
	backup := BackupColumnName(column)
	created, err := q.EnsureTextColumn(ctx, table, backup)
	if err != nil || !created {
		return false, err
	}
	sql := fmt.Sprintf("UPDATE %[1]s SET %[2]s = %[3]s WHERE %[3]s IS NOT NULL",
		Ident(table), Ident(backup), Ident(column))
	if _, err := q.db.Exec(ctx, sql); err != nil {
		return false, fmt.Errorf("copy %s.%s into %s: %w", table, column, backup, err)
	}
	return true, nil
}

// ListEntities returns every row of table ordered by id. categoryColumn may be
// empty for tables without categories.
func (q *Queries) ListEntities(ctx context.Context, table, categoryColumn string) ([]*EntityRow, error) {
	category := "NULL::text"
	if strings.TrimSpace(categoryColumn) != "" {
		category = Ident(categoryColumn) + "::text"
	}
	sql := fmt.Sprintf("SELECT id::text, %s FROM %s ORDER BY id", category, Ident(table))

	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*EntityRow
	for rows.Next() {
		var i EntityRow
		if err := rows.Scan(&i.ID, &i.Category); err != nil {
			return nil, err
		}
		items = append(items, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// buildUpdateMediaSQL renders an UPDATE that sets each column to its own
// parameter ($2...) for the row whose id equals $1. The id is compared
// uncast so the primary key index is used; pgx sends string keys in text
// format and Postgres converts them to the column type.
func buildUpdateMediaSQL(table string, columns []string) string {
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = fmt.Sprintf("%s = $%d", Ident(c), i+2)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", Ident(table), strings.Join(sets, ", "))
}

// UpdateMediaColumns writes values (column -> path) to the row with id.
// Columns absent from values are left untouched.
func (q *Queries) UpdateMediaColumns(ctx context.Context, table, id string, values map[string]string) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	columns := make([]string, 0, len(values))
	for c := range values {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	args := make([]any, 0, len(columns)+1)
	args = append(args, id)
	for _, c := range columns {
		args = append(args, values[c])
	}

	tag, err := q.db.Exec(ctx, buildUpdateMediaSQL(table, columns), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Coverage counts rows and non-null values per column.
type Coverage struct {
	Table   string           `json:"table"`
	Total   int64            `json:"total"`
	NonNull map[string]int64 `json:"non_null"`
}

func (q *Queries) CoverageStats(ctx context.Context, table string, columns []string) (*Coverage, error) {
	exprs := make([]string, 0, len(columns)+1)
	exprs = append(exprs, "COUNT(*)")
	for _, c := range columns {
		exprs = append(exprs, "COUNT("+Ident(c)+")")
	}
	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), Ident(table))

	counts := make([]int64, len(exprs))
	dest := make([]any, len(exprs))
	for i := range counts {
		dest[i] = &counts[i]
	}
	if err := q.db.QueryRow(ctx, sql).Scan(dest...); err != nil {
		return nil, err
	}

	cov := &Coverage{Table: table, Total: counts[0], NonNull: make(map[string]int64, len(columns))}
	for i, c := range columns {
		cov.NonNull[c] = counts[i+1]
	}
	return cov, nil
}

type AssignmentRun struct {
	ID         pgtype.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	MediaDir   string
	Report     RunReport
}

const insertAssignmentRun = `-- name: InsertAssignmentRun :exec
INSERT INTO media_assignment_runs (id, started_at, finished_at, dry_run, media_dir, report)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (q *Queries) InsertAssignmentRun(ctx context.Context, arg *AssignmentRun) error {
	_, err := q.db.Exec(ctx, insertAssignmentRun,
		arg.ID,
		arg.StartedAt,
		arg.FinishedAt,
		arg.DryRun,
		arg.MediaDir,
		arg.Report,
	)
	return err
}

const latestAssignmentRun = `-- name: LatestAssignmentRun :one
SELECT id, started_at, finished_at, dry_run, media_dir, report::text
FROM media_assignment_runs
ORDER BY finished_at DESC
LIMIT 1
`

// LatestAssignmentRun returns the most recent run, or nil when none exist.
func (q *Queries) LatestAssignmentRun(ctx context.Context) (*AssignmentRun, error) {
	var i AssignmentRun
	var report pgtype.Text
	err := q.db.QueryRow(ctx, latestAssignmentRun).Scan(
		&i.ID,
		&i.StartedAt,
		&i.FinishedAt,
		&i.DryRun,
		&i.MediaDir,
		&report,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := i.Report.ScanText(report); err != nil {
		return nil, fmt.Errorf("decode run report: %w", err)
	}
	return &i, nil
}
