// Package bootstrap wires the dataset sources, caches and geometry shared by
// the web server and the command line tool.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/geo"
	"github.com/de-tools/sisvan-atlas/pkg/services/config"
	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/de-tools/sisvan-atlas/pkg/store/duckdb"
	"github.com/de-tools/sisvan-atlas/pkg/store/duckdb/survey"
	"github.com/de-tools/sisvan-atlas/pkg/store/warehouse"
	"github.com/rs/zerolog"
)

type App struct {
	Profiles config.Profiles
	Cache    *dataset.Cache
	Store    geo.Store
	Catalog  *catalog.Catalog
	Names    *dataset.NameIndex

	dbs []*sql.DB
}

// New builds the application graph from cfg. Close must be called to
// release the database connections.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := zerolog.Ctx(ctx)

	profiles, err := config.NewProfiles(cfg.Profiles)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset profiles: %w", err)
	}

	cat := catalog.Default()
	if cfg.Catalog != "" {
		data, err := os.ReadFile(cfg.Catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		if cat, err = catalog.Parse(data); err != nil {
			return nil, err
		}
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.DuckDB.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	surveyStore, err := survey.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create survey store: %w", err)
	}

	app := &App{Profiles: profiles, Catalog: cat, Names: dataset.NewNameIndex(), dbs: []*sql.DB{db}}

	awsCfg, err := loadAWS(ctx, cfg.AWS)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	opts := []dataset.Option{
		dataset.WithRetry(cfg.Retry.Attempts, cfg.Retry.Backoff),
		dataset.WithSource("s3", dataset.NewS3Source(awsCfg)),
		dataset.WithSource(duckdb.Scheme, surveyStore),
	}
	warehouses, err := app.openWarehouses(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	opts = append(opts, warehouses...)
	loader := dataset.NewLoader(opts...)

	root := cfg.Geometry
	if p, err := profiles.GetProfile(ctx, cfg.DefaultProfile); err == nil && p.Geometry != "" {
		root = p.Geometry
	} else if err != nil && !errors.Is(err, config.ErrUnknownProfile) {
		logger.Warn().Err(err).Str("profile", cfg.DefaultProfile).Msg("default profile unreadable")
	}
	logger.Debug().Str("geometry", root).Msg("geometry root")

	app.Cache = dataset.NewCache(loader)
	app.Store = geo.NewStore(os.DirFS(root), cat)
	return app, nil
}

// openWarehouses registers the Databricks and Snowflake sources that are
// configured.
func (a *App) openWarehouses(ctx context.Context, cfg *config.Config) ([]dataset.Option, error) {
	var opts []dataset.Option

	if c := cfg.Databricks; c.Host != "" {
		db, err := warehouse.OpenDatabricks(warehouse.DatabricksSettings{
			Host:     c.Host,
			HTTPPath: c.HTTPPath,
			Token:    c.Token,
			Catalog:  c.Catalog,
			Schema:   c.Schema,
		})
		if err != nil {
			return nil, err
		}
		a.dbs = append(a.dbs, db)
		src, err := warehouse.NewSource(db, warehouse.DatabricksScheme)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dataset.WithSource(warehouse.DatabricksScheme, src))
		zerolog.Ctx(ctx).Info().Str("host", c.Host).Msg("databricks source enabled")
	}

	if c := cfg.Snowflake; c.Account != "" {
		db, err := warehouse.OpenSnowflake(warehouse.SnowflakeSettings{
			Account:   c.Account,
			User:      c.User,
			Password:  c.Password,
			Database:  c.Database,
			Warehouse: c.Warehouse,
			Role:      c.Role,
		})
		if err != nil {
			return nil, err
		}
		a.dbs = append(a.dbs, db)
		src, err := warehouse.NewSource(db, warehouse.SnowflakeScheme)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dataset.WithSource(warehouse.SnowflakeScheme, src))
		zerolog.Ctx(ctx).Info().Str("account", c.Account).Msg("snowflake source enabled")
	}

	return opts, nil
}

func loadAWS(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// WarmNames reads the municipality names of every state from the geometry
// files. Until it finishes names come from the survey table itself.
func (a *App) WarmNames(ctx context.Context) error {
	return geo.FillNames(ctx, a.Store, a.Names, a.Catalog.StateSiglas())
}

// Close closes every database the app opened.
func (a *App) Close() error {
	var errs []error
	for _, db := range a.dbs {
		errs = append(errs, db.Close())
	}
	a.dbs = nil
	return errors.Join(errs...)
}
