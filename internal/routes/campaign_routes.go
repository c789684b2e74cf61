// internal/routes/campaign_routes.go
package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"i9campaigns/internal/cache"
	"i9campaigns/internal/config"
	"i9campaigns/internal/handlers"
	"i9campaigns/internal/middleware"
	"i9campaigns/internal/repository"
	"i9campaigns/internal/targeting"
)

func RegisterCampaignRoutes(router chi.Router, db *sql.DB, s3Config *config.S3Config, c *cache.Cache) {
	campaignRepo := repository.NewCampaignRepository(db)
	stationRepo := repository.NewStationRepository(db)
	imageRepo := repository.NewImageRepository(db)

	resolver := targeting.NewResolver(repository.NewLocationDirectory(stationRepo), campaignRepo)
	campaignHandler := handlers.NewCampaignHandler(campaignRepo, resolver, c)
	imageHandler := handlers.NewImageHandler(imageRepo, campaignRepo, s3Config, c)

	canEdit := middleware.RequireRole("admin", "editor")

	router.Route("/campaigns", func(r chi.Router) {
		r.Get("/", campaignHandler.ListCampaigns)
		r.With(canEdit).Post("/", campaignHandler.CreateCampaign)

		r.Get("/active", campaignHandler.ListActiveCampaigns)
		r.Get("/active/{code}", campaignHandler.ActiveByStation)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", campaignHandler.GetCampaign)
			r.With(canEdit).Put("/", campaignHandler.UpdateCampaign)
			r.With(canEdit).Delete("/", campaignHandler.DeleteCampaign)

			r.Route("/images", func(r chi.Router) {
				r.Get("/", imageHandler.ListImages)
				r.With(canEdit).Post("/", imageHandler.UploadImages)
				r.With(canEdit).Put("/order", imageHandler.ReorderImages)
			})
		})
	})
}
