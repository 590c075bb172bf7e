package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Simplici0/costeo/internal/config"
	"github.com/Simplici0/costeo/internal/db"
	"github.com/Simplici0/costeo/internal/export"
	"github.com/Simplici0/costeo/internal/logger"
	"github.com/Simplici0/costeo/internal/metrics"
	"github.com/Simplici0/costeo/internal/migrations"
	"github.com/Simplici0/costeo/internal/seed"
	"github.com/Simplici0/costeo/internal/store"
)

const maxBodyBytes = 1 << 20

type server struct {
	store     *store.Store
	metrics   *metrics.Metrics
	renderers map[string]export.Renderer
	currency  string
	log       zerolog.Logger
}

func newServer(st *store.Store, m *metrics.Metrics, currency string, log zerolog.Logger) *server {
	return &server{
		store:     st,
		metrics:   m,
		renderers: export.Renderers(currency),
		currency:  currency,
		log:       log,
	}
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	log := logger.WithContext(map[string]any{"app_env": cfg.AppEnv})

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		log.Fatal().Err(err).Msg("failed to run database migrations")
	}

	st := store.New(database)
	if cfg.IsDev() {
		stats, err := seed.Run(context.Background(), st)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed example recipe")
		}
		log.Info().Int("inserts", stats.Inserts).Msg("seed complete")
	}

	srv := newServer(st, metrics.New(), cfg.Currency, log)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", httpServer.Addr).Bool("in_memory", cfg.InMemory()).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/units", func(r chi.Router) {
		r.Get("/", s.handleUnitsList)
		r.Get("/compatibility", s.handleUnitsCompatibility)
		r.Get("/{unit}/compatible", s.handleUnitsCompatible)
	})

	r.Route("/calc", func(r chi.Router) {
		r.Post("/ingredient", s.handleCalcIngredient)
		r.Post("/fixed-costs", s.handleCalcFixedCosts)
		r.Post("/baking", s.handleCalcBaking)
		r.Post("/labor", s.handleCalcLabor)
	})

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", s.handleRecipesList)
		r.Post("/", s.handleRecipesCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleRecipeGet)
			r.Put("/", s.handleRecipeUpdate)
			r.Delete("/", s.handleRecipeDelete)
			r.Get("/totals", s.handleRecipeTotals)
			r.Get("/export/{format}", s.handleRecipeExport)
			r.Post("/ingredients", s.handleIngredientAdd)
			r.Put("/ingredients/{lineID}", s.handleIngredientReplace)
			r.Delete("/ingredients/{lineID}", s.handleIngredientRemove)
		})
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
