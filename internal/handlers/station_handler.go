// internal/handlers/station_handler.go
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
	"i9campaigns/internal/repository"
)

type StationHandler struct {
	repo      repository.StationRepository
	validator *validator.Validate
}

func NewStationHandler(repo repository.StationRepository) *StationHandler {
	return &StationHandler{
		repo:      repo,
		validator: validator.New(),
	}
}

// CreateStation handles POST /api/v1/stations
func (h *StationHandler) CreateStation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	now := time.Now().UTC()
	station := &models.Station{
		Code:      strings.ToUpper(req.Code),
		Name:      req.Name,
		BranchID:  req.BranchID,
		Address:   req.Address,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.repo.Create(r.Context(), station); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				writeJSONErrorResponse(w, http.StatusConflict, "duplicate_code", "Station code already exists in this branch")
				return
			case "23503":
				writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_branch_id", "Branch not found")
				return
			}
		}
		log.Println("create station:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "create_station_failed", "Failed to create station")
		return
	}

	writeJSON(w, http.StatusCreated, station)
}

// GetStation handles GET /api/v1/stations/{id}
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "id")

	station, err := h.repo.GetByID(r.Context(), stationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Station not found")
			return
		}
		log.Println("get station:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "get_station_failed", "Failed to fetch station")
		return
	}

	writeJSON(w, http.StatusOK, station)
}

// ListStations handles GET /api/v1/stations
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	p := parsePaginationParams(r, 20, 100)

	filter := repository.StationFilter{
		BranchID: r.URL.Query().Get("branch_id"),
		Search:   r.URL.Query().Get("search"),
		Limit:    p.limit,
		Offset:   p.offset,
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	}

	stations, err := h.repo.List(r.Context(), filter)
	if err != nil {
		log.Println("list stations:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_stations_failed", "Failed to list stations")
		return
	}
	total, err := h.repo.Count(r.Context(), filter)
	if err != nil {
		log.Println("count stations:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_stations_failed", "Failed to list stations")
		return
	}

	writePaginatedResponse(w, http.StatusOK, stations, int64(total), p)
}

// UpdateStation handles PUT /api/v1/stations/{id}
func (h *StationHandler) UpdateStation(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "id")

	var req models.UpdateStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	station, err := h.repo.GetByID(r.Context(), stationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Station not found")
			return
		}
		log.Println("update station fetch:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "update_station_failed", "Failed to fetch station")
		return
	}

	if req.Name != nil {
		station.Name = *req.Name
	}
	if req.Address != nil {
		station.Address = *req.Address
	}

	station.UpdatedAt = time.Now().UTC()
	if err := h.repo.Update(r.Context(), station); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Station not found")
			return
		}
		log.Println("update station:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "update_station_failed", "Failed to update station")
		return
	}

	writeJSON(w, http.StatusOK, station)
}

// DeactivateStation handles POST /api/v1/stations/{id}/deactivate
func (h *StationHandler) DeactivateStation(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "id")

	if err := h.repo.Deactivate(r.Context(), stationID); err != nil {
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
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Station not found")
			return
		}
		log.Println("deactivate station:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "deactivate_station_failed", "Failed to deactivate station")
		return
	}

	writeJSONMessage(w, http.StatusOK, "Station deactivated")
}
