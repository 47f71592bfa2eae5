package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/sisvan-atlas/pkg/runtime/bootstrap"
	"github.com/de-tools/sisvan-atlas/pkg/runtime/terminal"
	"github.com/de-tools/sisvan-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/sisvan-atlas/pkg/services/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	level := zerolog.WarnLevel
	if os.Getenv("SISVAN_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(os.Getenv("SISVAN_CONFIG"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	cli := terminal.NewCLI(terminal.Options{
		Workbench: &commands.Workbench{
			Profiles: app.Profiles,
			Cache:    app.Cache,
			Store:    app.Store,
			Catalog:  app.Catalog,
			Names:    app.Names,
		},
		Output: os.Stdout,
	})
	return cli.Execute(ctx)
}
