// Package rows turns SQL result sets into the text records the dataset
// parser reads.
package rows

import (
	"database/sql"
	"fmt"
)

// Records reads every row of rs as text. The first record holds the column
// names and NULL cells become empty strings. capacity sizes the result when
// the row count is known.
func Records(rs *sql.Rows, capacity int64) ([][]string, error) {
	columns, err := rs.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	if capacity < 0 {
		capacity = 0
	}
	records := make([][]string, 0, capacity+1)
	records = append(records, columns)
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rs.Next() {
		if err := rs.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(records), err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			}
		}
		records = append(records, record)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return records, nil
}
