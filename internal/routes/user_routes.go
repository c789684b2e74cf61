// internal/routes/user_routes.go
package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"i9campaigns/internal/handlers"
	"i9campaigns/internal/middleware"
	"i9campaigns/internal/repository"
)

func RegisterUserRoutes(router chi.Router, db *sql.DB) {
	userRepo := repository.NewUserRepository(db)
	userHandler := handlers.NewUserHandler(userRepo)

	router.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireRole("admin"))

		r.Get("/", userHandler.ListUsers)
		r.Post("/", userHandler.CreateUser)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", userHandler.GetUser)
			r.Put("/", userHandler.UpdateUser)
			r.Delete("/", userHandler.DeleteUser)
		})
	})
}
