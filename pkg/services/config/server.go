// Package config reads the server settings and the dataset profiles.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// Profiles is the INI file with the dataset profiles.
	Profiles       string `mapstructure:"profiles" validate:"required"`
	DefaultProfile string `mapstructure:"default_profile"`
	// Geometry is the GeoJSON root used when a profile names none.
	Geometry string `mapstructure:"geometry"`
	// Catalog optionally replaces the embedded label catalog.
	Catalog string       `mapstructure:"catalog"`
	DuckDB  DuckDBConfig `mapstructure:"duckdb"`
	Retry   RetryConfig  `mapstructure:"retry"`
	AWS     AWSConfig    `mapstructure:"aws"`
	// Databricks and Snowflake are opened only when their host or account is set.
	Databricks DatabricksConfig `mapstructure:"databricks"`
	Snowflake  SnowflakeConfig  `mapstructure:"snowflake"`
}

type DuckDBConfig struct {
	// Path of the database file; empty keeps it in memory.
	Path string `mapstructure:"path"`
}

type RetryConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff"`
}

type AWSConfig struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

type DatabricksConfig struct {
	Host     string `mapstructure:"host"`
	HTTPPath string `mapstructure:"http_path"`
	Token    string `mapstructure:"token"`
	Catalog  string `mapstructure:"catalog"`
	Schema   string `mapstructure:"schema"`
}

type SnowflakeConfig struct {
	Account   string `mapstructure:"account"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Database  string `mapstructure:"database"`
	Warehouse string `mapstructure:"warehouse"`
	Role      string `mapstructure:"role"`
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func defaults(v *viper.Viper) {
	v.SetDefault("host", "")
	v.SetDefault("port", 8080)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("profiles", "profiles.ini")
	v.SetDefault("default_profile", "default")
	v.SetDefault("geometry", "geo")
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.backoff", 200*time.Millisecond)
}

// LoadConfig reads the YAML file at path, when given, and applies the
// SERVER_HOST, SERVER_PORT, DATABRICKS_TOKEN and SNOWFLAKE_PASSWORD
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	defaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.BindEnv("host", "SERVER_HOST"); err != nil {
		return nil, fmt.Errorf("failed to bind SERVER_HOST: %w", err)
	}
	if err := v.BindEnv("port", "SERVER_PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind SERVER_PORT: %w", err)
	}
	if err := v.BindEnv("databricks.token", "DATABRICKS_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABRICKS_TOKEN: %w", err)
	}
	if err := v.BindEnv("snowflake.password", "SNOWFLAKE_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind SNOWFLAKE_PASSWORD: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Port)
	}
	return &cfg, nil
}
