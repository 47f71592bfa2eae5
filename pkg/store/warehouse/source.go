// Package warehouse reads survey tables hosted in a SQL warehouse. A
// location names a table, e.g. databricks://main.sisvan.db_final or
// snowflake://SISVAN.PUBLIC.DB_REGION.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	sqlrows "github.com/de-tools/sisvan-atlas/pkg/store/rows"
	"github.com/rs/zerolog"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type source struct {
	db     *sql.DB
	scheme string
}

// NewSource returns a dataset source reading scheme:// locations from db.
func NewSource(db *sql.DB, scheme string) (dataset.Source, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &source{db: db, scheme: scheme}, nil
}

// Table returns the validated table name of location. Up to three dotted
// parts (catalog, schema, table) are accepted.
func Table(scheme, location string) (string, error) {
	name := strings.TrimPrefix(location, scheme+"://")
	parts := strings.Split(name, ".")
	if name == "" || len(parts) > 3 {
		return "", fmt.Errorf("%w: invalid %s table %q", dataset.ErrMalformed, scheme, location)
	}
	for _, p := range parts {
		if !identifier.MatchString(p) {
			return "", fmt.Errorf("%w: invalid %s table %q", dataset.ErrMalformed, scheme, location)
		}
	}
	return name, nil
}

// ReadQuery returns the statement reading every row of table.
func ReadQuery(table string) string {
	return "SELECT * FROM " + table
}

func (s *source) Fetch(ctx context.Context, location string) ([][]string, error) {
	table, err := Table(s.scheme, location)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, ReadQuery(table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	records, err := sqlrows.Records(rows, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("scheme", s.scheme).
		Str("table", table).
		Int("rows", len(records)-1).
		Msg("warehouse table read")
	return records, nil
}
