// internal/routes/tablet_routes.go
package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"i9campaigns/internal/cache"
	"i9campaigns/internal/handlers"
	"i9campaigns/internal/repository"
	"i9campaigns/internal/targeting"
)

func RegisterTabletRoutes(router chi.Router, db *sql.DB, c *cache.Cache) {
	campaignRepo := repository.NewCampaignRepository(db)
	stationRepo := repository.NewStationRepository(db)
	imageRepo := repository.NewImageRepository(db)

	resolver := targeting.NewResolver(repository.NewLocationDirectory(stationRepo), campaignRepo)
	assembler := targeting.NewAssembler(imageRepo)
	tabletHandler := handlers.NewTabletHandler(resolver, assembler, campaignRepo, imageRepo, c)

	router.Get("/active", tabletHandler.AllActive)
	router.Get("/active/{code}", tabletHandler.ActiveForStation)

	router.Get("/images/{id}", tabletHandler.GetImage)
	router.Head("/images/{id}", tabletHandler.GetImage)
}
