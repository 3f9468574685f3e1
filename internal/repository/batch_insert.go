package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Postgres caps bind parameters per statement at 65535.
const maxBindParams = 65535

// chunkSizeFor clamps the requested rows per statement so that rows*columns
// stays under the parameter limit.
func chunkSizeFor(requested, columns int) int {
	limit := maxBindParams / columns
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}

// insertedKey is one row of a RETURNING id, <natural key> clause.
type insertedKey struct {
	ID  string
	Key string
}

// insertIgnoringConflicts writes rows in chunks of one multi-row INSERT each,
// skipping rows that collide on conflictColumn, and returns the generated id of
// every row that was actually written, keyed by its natural key.
func insertIgnoringConflicts(db *gorm.DB, table string, columns []string, conflictColumn string, rows [][]interface{}, chunkSize int) ([]insertedKey, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	size := chunkSizeFor(chunkSize, len(columns))

	var inserted []insertedKey
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}

		query, args := insertIgnoringStatement(table, columns, conflictColumn, rows[start:end])
		var returned []insertedKey
		if err := db.Raw(query, args...).Scan(&returned).Error; err != nil {
			return nil, fmt.Errorf("insert %s rows %d-%d: %w", table, start, end-1, err)
		}
		inserted = append(inserted, returned...)
	}
	return inserted, nil
}

func insertIgnoringStatement(table string, columns []string, conflictColumn string, chunk [][]interface{}) (string, []interface{}) {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	values := make([]string, len(chunk))
	args := make([]interface{}, 0, len(chunk)*len(columns))
	for i, row := range chunk {
		values[i] = placeholder
		args = append(args, row...)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO NOTHING RETURNING id::text AS id, %s AS key",
		table, strings.Join(columns, ", "), strings.Join(values, ", "), conflictColumn, conflictColumn,
	)
	return query, args
}
