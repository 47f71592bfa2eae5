package survey

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/de-tools/sisvan-atlas/pkg/store/duckdb"
	sqlrows "github.com/de-tools/sisvan-atlas/pkg/store/rows"
	"github.com/rs/zerolog"
)

// Store reads survey tables through DuckDB's CSV reader, which accepts
// globs so several yearly exports can be served as one table.
type Store interface {
	dataset.Source
	CountRows(ctx context.Context, location string) (int64, error)
}

type surveyStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &surveyStore{db: db}, nil
}

// ReadQuery returns the statement used to read location as text columns.
func ReadQuery(path string) string {
	return fmt.Sprintf("SELECT * FROM read_csv_auto(%s, header = true, all_varchar = true)", quote(path))
}

func countQuery(path string) string {
	return fmt.Sprintf("SELECT count(*) FROM read_csv_auto(%s, header = true, all_varchar = true)", quote(path))
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func pathOf(location string) (string, error) {
	path := strings.TrimPrefix(location, duckdb.Scheme+"://")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty duckdb location", dataset.ErrMalformed)
	}
	return path, nil
}

// Fetch counts and reads location inside one transaction, reusing the one
// bound to ctx when present.
func (s *surveyStore) Fetch(ctx context.Context, location string) ([][]string, error) {
	path, err := pathOf(location)
	if err != nil {
		return nil, err
	}

	if duckdb.GetTransaction(ctx) == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin read of %s: %w", path, err)
		}
		defer func() { _ = tx.Rollback() }()
		ctx = duckdb.WithTransaction(ctx, tx)
	}

	n, err := s.CountRows(ctx, location)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("location", location).Int64("rows", n).Msg("reading survey table")

	rows, err := duckdb.QuerierFrom(ctx, s.db).QueryContext(ctx, ReadQuery(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer rows.Close()

	records, err := sqlrows.Records(rows, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

func (s *surveyStore) CountRows(ctx context.Context, location string) (int64, error) {
	path, err := pathOf(location)
	if err != nil {
		return 0, err
	}

	rows, err := duckdb.QuerierFrom(ctx, s.db).QueryContext(ctx, countQuery(path))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", path, err)
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to scan count of %s: %w", path, err)
		}
	}
	return n, rows.Err()
}
