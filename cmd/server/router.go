package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/kioku-api/internal/api"
	apiMiddleware "github.com/phrazzld/kioku-api/internal/api/middleware"
	"github.com/rs/cors"
)

const tracerName = "github.com/phrazzld/kioku-api/cmd/server"

// setupRouter creates the router with the middleware chain and every route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   app.config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger, app.tracerProvider.Tracer(tracerName)))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	reviewHandler := api.NewReviewHandler(app.cardReviewService, app.progressService, app.logger)
	statsHandler := api.NewStatsHandler(app.progressService, app.logger)
	levelsHandler := api.NewLevelsHandler(app.levelResolver, app.curriculum, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/levels", levelsHandler.ListLevels)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/reviews/next", reviewHandler.GetNext)
			r.Post("/reviews", reviewHandler.SubmitGrade)
			r.Get("/reviews/states", reviewHandler.GetStates)
			r.Get("/reviews/history", reviewHandler.GetHistory)

			r.Get("/stats/dashboard", statsHandler.GetDashboard)
			r.Get("/stats/scope", statsHandler.GetScope)
			r.Get("/stats/levels", statsHandler.GetLevels)
			r.Get("/stats/decks", statsHandler.GetDecks)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
