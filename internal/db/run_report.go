package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// RunReport stores an assignment run summary in a JSONB column.
// Keys are table names; values are the per-table report objects.
type RunReport map[string]any

// Scan implements sql.Scanner for reading from the database.
func (r *RunReport) Scan(value any) error {
	if value == nil {
		*r = RunReport{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("db.RunReport.Scan: expected []byte or string, got %T", value)
	}
}

// Value implements driver.Valuer for writing to the database.
func (r RunReport) Value() (driver.Value, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(r))
}

// ScanText implements the pgtype.TextScanner interface for pgx v5.
func (r *RunReport) ScanText(v pgtype.Text) error {
	if !v.Valid {
		*r = RunReport{}
		return nil
	}
	return json.Unmarshal([]byte(v.String), r)
}
