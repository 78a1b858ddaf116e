package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func IsUndefinedColumnErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 42703 = undefined_column
		// 42P01 = undefined_table
		return pgErr.Code == "42703" || pgErr.Code == "42P01"
	}
	return false
}

// Ident quotes a possibly schema-qualified name ("public.users") for use in SQL.
func Ident(name string) string {
	return splitIdent(name).Sanitize()
}

func splitIdent(name string) pgx.Identifier {
	parts := strings.Split(strings.TrimSpace(name), ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			id = append(id, p)
		}
	}
	return id
}

// tableSchema returns the schema and bare table name; schema is nil when the
// name is unqualified.
func tableSchema(name string) (*string, string) {
	id := splitIdent(name)
	switch len(id) {
	case 0:
		return nil, ""
	case 1:
		return nil, id[0]
	default:
		schema := id[len(id)-2]
		return &schema, id[len(id)-1]
	}
}

// BackupColumnName is the column original values are preserved in.
func BackupColumnName(column string) string {
	return column + "_backup"
}
