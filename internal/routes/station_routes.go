// internal/routes/station_routes.go
package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"i9campaigns/internal/handlers"
	"i9campaigns/internal/middleware"
	"i9campaigns/internal/repository"
)

func RegisterStationRoutes(router chi.Router, db *sql.DB) {
	stationRepo := repository.NewStationRepository(db)
	stationHandler := handlers.NewStationHandler(stationRepo)

	canEdit := middleware.RequireRole("admin", "editor")

	router.Route("/stations", func(r chi.Router) {
		r.Get("/", stationHandler.ListStations)
		r.With(canEdit).Post("/", stationHandler.CreateStation)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", stationHandler.GetStation)
			r.With(canEdit).Put("/", stationHandler.UpdateStation)
			r.With(canEdit).Post("/deactivate", stationHandler.DeactivateStation)
		})
	})
}
