package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

// Scheme is the dataset location scheme served by DuckDB, e.g.
// duckdb:///data/db_final.csv or duckdb:///data/exports/*.csv.
const Scheme = "duckdb"

const sessionSettings = `SET preserve_insertion_order = true;`

var bootQueries = []string{
	sessionSettings,
}

type Settings struct {
	// DbPath is the database file; empty or ":memory:" opens an in-memory database.
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	path := settings.DbPath
	if path == ":memory:" {
		path = ""
	}
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", path), func(exec driver.ExecerContext) error {
		bootQueries := append([]string{}, bootQueries...)

		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
