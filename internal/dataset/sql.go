package dataset

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// LoadSQL runs query against db and returns the result set as a Table,
// keeping the column order reported by the driver.
func LoadSQL(ctx context.Context, db *sqlx.DB, query string, args ...any) (*Table, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sql: query: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sql: columns: %w", err)
	}

	columns := make([][]any, len(names))
	for rows.Next() {
		record, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("sql: scan: %w", err)
		}
		for j, v := range record {
			columns[j] = append(columns[j], normalizeSQLValue(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sql: rows: %w", err)
	}

	for j := range columns {
		if columns[j] == nil {
			columns[j] = []any{}
		}
	}
	return NewTable(names, columns...)
}

func normalizeSQLValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case float32:
		return float64(x)
	default:
		return x
	}
}
