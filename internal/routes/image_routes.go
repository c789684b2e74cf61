// internal/routes/image_routes.go
package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"i9campaigns/internal/cache"
	"i9campaigns/internal/config"
	"i9campaigns/internal/handlers"
	"i9campaigns/internal/middleware"
	"i9campaigns/internal/repository"
)

// RegisterImageRoutes wires the image item endpoints. The campaign-scoped
// collection endpoints live under /campaigns/{id}/images in campaign_routes.
func RegisterImageRoutes(router chi.Router, db *sql.DB, s3Config *config.S3Config, c *cache.Cache) {
	imageRepo := repository.NewImageRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	imageHandler := handlers.NewImageHandler(imageRepo, campaignRepo, s3Config, c)

	canEdit := middleware.RequireRole("admin", "editor")

	router.Route("/images/{id}", func(r chi.Router) {
		r.With(canEdit).Put("/", imageHandler.UpdateImage)
		r.With(canEdit).Delete("/", imageHandler.DeleteImage)
	})
}
