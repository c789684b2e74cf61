// internal/handlers/branch_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"i9campaigns/internal/interfaces"
	"i9campaigns/internal/models"
	"i9campaigns/internal/regions"
	"i9campaigns/internal/repository"
)

type BranchHandler struct {
	repo      repository.BranchRepository
	validator *validator.Validate
}

func NewBranchHandler(repo repository.BranchRepository) *BranchHandler {
	return &BranchHandler{
		repo:      repo,
		validator: validator.New(),
	}
}

// CreateBranch handles POST /api/v1/branches
func (h *BranchHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	state := strings.ToUpper(req.State)
	region, err := regions.ByState(state)
	if err != nil {
		writeJSONErrorResponse(w, http.StatusUnprocessableEntity, "invalid_state", "Unknown state: "+req.State)
		return
	}

	now := time.Now().UTC()
	branch := &models.Branch{
		Code:      strings.ToUpper(req.Code),
		Name:      req.Name,
		City:      req.City,
		State:     state,
		Region:    region,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.repo.Create(r.Context(), branch); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			writeJSONErrorResponse(w, http.StatusConflict, "duplicate_code", "Branch code already exists")
			return
		}
		log.Println("create branch:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "create_branch_failed", "Failed to create branch")
		return
	}

	writeJSON(w, http.StatusCreated, branch)
}

// GetBranch handles GET /api/v1/branches/{id}
func (h *BranchHandler) GetBranch(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "id")

	branch, err := h.repo.GetByIDWithStations(r.Context(), branchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Branch not found")
			return
		}
		log.Println("get branch:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "get_branch_failed", "Failed to fetch branch")
		return
	}

	writeJSON(w, http.StatusOK, branch)
}

// ListBranches handles GET /api/v1/branches
func (h *BranchHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	p := parsePaginationParams(r, 20, 100)

	filter := repository.BranchFilter{
		Search: r.URL.Query().Get("search"),
		State:  strings.ToUpper(r.URL.Query().Get("state")),
		Region: r.URL.Query().Get("region"),
		Sort:   r.URL.Query().Get("sort"),
		Order:  r.URL.Query().Get("order"),
		Limit:  p.limit,
		Offset: p.offset,
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	}
	if filter.Region != "" && !regions.IsValid(filter.Region) {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_region", "Unknown region: "+filter.Region)
		return
	}

	branches, err := h.repo.List(r.Context(), filter)
	if err != nil {
		log.Println("list branches:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_branches_failed", "Failed to list branches")
		return
	}
	total, err := h.repo.Count(r.Context(), filter)
	if err != nil {
		log.Println("count branches:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_branches_failed", "Failed to list branches")
		return
	}

	writePaginatedResponse(w, http.StatusOK, branches, int64(total), p)
}

// UpdateBranch handles PUT /api/v1/branches/{id}
func (h *BranchHandler) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "id")

	var req models.UpdateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	branch, err := h.repo.GetByID(r.Context(), branchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Branch not found")
			return
		}
		log.Println("update branch fetch:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "update_branch_failed", "Failed to fetch branch")
		return
	}

	if req.Name != nil {
		branch.Name = *req.Name
	}
	if req.City != nil {
		branch.City = *req.City
	}
	if req.State != nil {
		state := strings.ToUpper(*req.State)
		region, err := regions.ByState(state)
		if err != nil {
			writeJSONErrorResponse(w, http.StatusUnprocessableEntity, "invalid_state", "Unknown state: "+*req.State)
			return
		}
		branch.State = state
		branch.Region = region
	}

	branch.UpdatedAt = time.Now().UTC()
	if err := h.repo.Update(r.Context(), branch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Branch not found")
			return
		}
		log.Println("update branch:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "update_branch_failed", "Failed to update branch")
		return
	}

	writeJSON(w, http.StatusOK, branch)
}

// DeactivateBranch handles POST /api/v1/branches/{id}/deactivate
func (h *BranchHandler) DeactivateBranch(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "id")

	if err := h.repo.Deactivate(r.Context(), branchID); err != nil {
		var blocked *interfaces.DeletionBlockedError
		if errors.As(err, &blocked) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":      "deletion_blocked",
				"message":    blocked.Error(),
				"references": blocked.References,
			})
			return
		}
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Branch not found")
			return
		}
		log.Println("deactivate branch:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "deactivate_branch_failed", "Failed to deactivate branch")
		return
	}

	writeJSONMessage(w, http.StatusOK, "Branch deactivated")
}

// ListRegions handles GET /api/v1/branches/regions. It returns the fixed
// region table so dashboards can offer targeting choices.
func (h *BranchHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]any, 0, len(regions.All))
	for _, name := range regions.All {
		out = append(out, map[string]any{
			"name":   name,
			"states": regions.StatesByRegion(name),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": out})
}
