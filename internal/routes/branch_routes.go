// internal/routes/branch_routes.go
package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"i9campaigns/internal/handlers"
	"i9campaigns/internal/middleware"
	"i9campaigns/internal/repository"
)

func RegisterBranchRoutes(router chi.Router, db *sql.DB) {
	branchRepo := repository.NewBranchRepository(db)
	branchHandler := handlers.NewBranchHandler(branchRepo)

	canEdit := middleware.RequireRole("admin", "editor")

	router.Route("/branches", func(r chi.Router) {
		r.Get("/", branchHandler.ListBranches)
		r.With(canEdit).Post("/", branchHandler.CreateBranch)
		r.Get("/regions", branchHandler.ListRegions)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", branchHandler.GetBranch)
			r.With(canEdit).Put("/", branchHandler.UpdateBranch)
			r.With(canEdit).Post("/deactivate", branchHandler.DeactivateBranch)
		})
	})
}
