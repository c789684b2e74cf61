// internal/routes/routes.go
package routes

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"i9campaigns/internal/cache"
	"i9campaigns/internal/config"
	"i9campaigns/internal/middleware"
)

func SetupRoutes(db *sql.DB, cfg *config.Config, s3Config *config.S3Config, c *cache.Cache) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "i9 Campaigns API",
			"docs":    "/swagger/index.html",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"status": "ok"}
		dbStatus := map[string]string{"status": "ok"}
		if err := db.PingContext(r.Context()); err != nil {
			resp["status"] = "degraded"
			dbStatus["status"] = "error"
			dbStatus["error"] = err.Error()
		}
		resp["db"] = dbStatus

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	r.Handle("/metrics", promhttp.Handler())

	RegisterSwaggerRoutes(r)

	// Dashboard API: JWT-protected except login
	r.Route("/api/v1", func(r chi.Router) {
		RegisterAuthRoutes(r, db, cfg)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.JWTSecret))

			RegisterCampaignRoutes(r, db, s3Config, c)
			RegisterBranchRoutes(r, db)
			RegisterStationRoutes(r, db)
			RegisterImageRoutes(r, db, s3Config, c)
			RegisterUserRoutes(r, db)
		})
	})

	// Terminal API: static key, read-only
	r.Route("/api/tablets", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.TabletAPIKey))

		RegisterTabletRoutes(r, db, c)
	})

	return r
}
