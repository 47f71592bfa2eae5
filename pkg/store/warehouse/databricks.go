package warehouse

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/databricks/databricks-sql-go"
)

// DatabricksScheme is the location scheme of tables in a Databricks SQL warehouse.
const DatabricksScheme = "databricks"

type DatabricksSettings struct {
	Host     string
	HTTPPath string
	Token    string
	Catalog  string
	Schema   string
}

// DatabricksDSN builds the databricks-sql-go connection string.
func DatabricksDSN(s DatabricksSettings) string {
	dsn := fmt.Sprintf("token:%s@%s%s", s.Token, s.Host, s.HTTPPath)

	params := url.Values{}
	if s.Catalog != "" {
		params.Set("catalog", s.Catalog)
	}
	if s.Schema != "" {
		params.Set("schema", s.Schema)
	}
	if qp := params.Encode(); qp != "" {
		dsn = dsn + "?" + qp
	}
	return dsn
}

func OpenDatabricks(s DatabricksSettings) (*sql.DB, error) {
	if s.Host == "" || s.HTTPPath == "" {
		return nil, fmt.Errorf("databricks host and http path are required")
	}
	db, err := sql.Open("databricks", DatabricksDSN(s))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Databricks: %w", err)
	}
	return db, nil
}
