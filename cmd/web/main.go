package main

import (
	"fmt"
	"os"

	"github.com/de-tools/sisvan-atlas/pkg/runtime/bootstrap"
	"github.com/de-tools/sisvan-atlas/pkg/server"
	"github.com/de-tools/sisvan-atlas/pkg/services/config"
	"github.com/de-tools/sisvan-atlas/pkg/services/visual"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for the SISVAN atlas",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the YAML server configuration (defaults and environment when empty)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close DuckDB")
		}
	}()

	logger.Info().Msgf("Profiles found at `%s` successfully loaded.", cfg.Profiles)
	names, _ := app.Profiles.GetProfiles(ctx)
	for _, name := range names {
		p, err := app.Profiles.GetProfile(ctx, name)
		if err != nil {
			continue
		}
		logger.Info().Msgf("Name: `%s`, Indicators: `%s`, Regions: `%s`", p.Name, p.Indicators, p.Regions)
	}

	go func() {
		if err := app.WarmNames(ctx); err != nil {
			logger.Warn().Err(err).Msg("municipality names not loaded from geometry")
			return
		}
		logger.Info().Int("names", app.Names.Len()).Msg("municipality names loaded")
	}()

	api := server.NewWebAPI(logger, server.Config{
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Sessions:       visual.NewRegistry(app.Cache, app.Store, app.Catalog, app.Names),
			Profiles:       app.Profiles,
			DefaultProfile: cfg.DefaultProfile,
			Catalog:        app.Catalog,
		},
	})

	logger.Info().Msgf("starting server on %s", cfg.Addr())
	return api.Start()
}
