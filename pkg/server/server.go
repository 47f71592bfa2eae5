package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	handlers "github.com/de-tools/sisvan-atlas/pkg/handlers/visual"
	atlasmiddleware "github.com/de-tools/sisvan-atlas/pkg/server/middleware"
	"github.com/de-tools/sisvan-atlas/pkg/services/config"
	"github.com/de-tools/sisvan-atlas/pkg/services/visual"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Sessions       visual.Registry
	Profiles       config.Profiles
	DefaultProfile string
	Catalog        *catalog.Catalog
	Logger         zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func ConfigureRouter(config Config) *chi.Mux {
	deps := config.Dependencies
	h := handlers.NewHandler(deps.Sessions, deps.Profiles, deps.DefaultProfile, deps.Catalog)

	router := chi.NewRouter()

	router.Use(atlasmiddleware.Logger(&deps.Logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", health(deps.Sessions))

	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{session}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Get("/tooltip", h.GetTooltip)
			r.Get("/legend.svg", h.GetLegend)
			r.Route("/{module}", func(r chi.Router) {
				r.Get("/", h.GetModule)
				r.Patch("/filters", h.PatchFilters)
				r.Post("/indicators/{indicator}", h.ToggleIndicator)
				r.Post("/drill", h.Drill)
				r.Get("/chart.svg", h.GetChart)
				r.Post("/hover", h.Hover)
			})
		})
	})

	return router
}

func health(sessions visual.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"sessions": sessions.Len(),
		})
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode health")
		}
	}
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	config.Dependencies.Logger = logger
	router := ConfigureRouter(config)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
