// internal/routes/auth_routes.go
package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"i9campaigns/internal/config"
	"i9campaigns/internal/handlers"
	"i9campaigns/internal/middleware"
	"i9campaigns/internal/repository"
)

func RegisterAuthRoutes(router chi.Router, db *sql.DB, cfg *config.Config) {
	userRepo := repository.NewUserRepository(db)
	authHandler := handlers.NewAuthHandler(userRepo, cfg)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.JWTSecret))
			r.Get("/me", authHandler.Me)
			r.Post("/change-password", authHandler.ChangePassword)
		})
	})
}
