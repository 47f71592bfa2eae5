package warehouse

import (
	"database/sql"
	"fmt"

	sf "github.com/snowflakedb/gosnowflake"
)

// SnowflakeScheme is the location scheme of Snowflake tables.
const SnowflakeScheme = "snowflake"

type SnowflakeSettings struct {
	Account   string
	User      string
	Password  string
	Database  string
	Warehouse string
	Role      string
}

func (s SnowflakeSettings) config() *sf.Config {
	return &sf.Config{
		Account:   s.Account,
		User:      s.User,
		Password:  s.Password,
		Database:  s.Database,
		Warehouse: s.Warehouse,
		Role:      s.Role,
	}
}

// SnowflakeDSN builds the gosnowflake connection string.
func SnowflakeDSN(s SnowflakeSettings) (string, error) {
	dsn, err := sf.DSN(s.config())
	if err != nil {
		return "", fmt.Errorf("invalid snowflake settings: %w", err)
	}
	return dsn, nil
}

func OpenSnowflake(s SnowflakeSettings) (*sql.DB, error) {
	dsn, err := SnowflakeDSN(s)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}
	return db, nil
}
