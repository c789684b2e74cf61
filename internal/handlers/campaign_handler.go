// internal/handlers/campaign_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"i9campaigns/internal/cache"
	"i9campaigns/internal/interfaces"
	"i9campaigns/internal/metrics"
	"i9campaigns/internal/middleware"
	"i9campaigns/internal/models"
	"i9campaigns/internal/regions"
	"i9campaigns/internal/targeting"
)

type CampaignHandler struct {
	repo      interfaces.CampaignRepository
	resolver  *targeting.Resolver
	cache     *cache.Cache
	validator *validator.Validate
}

func NewCampaignHandler(repo interfaces.CampaignRepository, resolver *targeting.Resolver, c *cache.Cache) *CampaignHandler {
	return &CampaignHandler{
		repo:      repo,
		resolver:  resolver,
		cache:     c,
		validator: validator.New(),
	}
}

// validateTargeting rejects targeting arrays the resolver would refuse to
// classify: unknown region names, or station codes without owning branches.
func validateTargeting(branches, regionNames, stations []string) (code string, message string) {
	for _, name := range regionNames {
		if !regions.IsValid(name) {
			return "invalid_region", "Unknown region: " + name
		}
	}
	if len(stations) > 0 && len(branches) == 0 {
		return "invalid_targeting", "Station targeting requires at least one branch"
	}
	return "", ""
}

// CreateCampaign handles POST /api/v1/campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if code, msg := validateTargeting(req.Branches, req.Regions, req.Stations); code != "" {
		writeJSONErrorResponse(w, http.StatusUnprocessableEntity, code, msg)
		return
	}

	status := models.CampaignStatus(req.Status)
	if status == "" {
		status = models.CampaignStatusScheduled
	}
	displayTime := req.DefaultDisplayTime
	if displayTime <= 0 {
		displayTime = models.DefaultDisplayTimeMS
	}

	now := time.Now().UTC()
	campaign := &models.Campaign{
		Name:               req.Name,
		Description:        req.Description,
		Status:             status,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		DefaultDisplayTime: displayTime,
		Branches:           req.Branches,
		Regions:            req.Regions,
		Stations:           req.Stations,
		Priority:           req.Priority,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if id := middleware.UserID(r.Context()); id != "" {
		campaign.CreatedBy = &id
	}

	if err := h.repo.Create(r.Context(), campaign); err != nil {
		log.Println("create campaign:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "create_campaign_failed", "Failed to create campaign")
		return
	}

	h.cache.InvalidateStationResults(r.Context())

	writeJSON(w, http.StatusCreated, campaign)
}

// GetCampaign handles GET /api/v1/campaigns/{id}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	campaign, err := h.repo.GetByID(r.Context(), campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Campaign not found")
			return
		}
		log.Println("get campaign:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "get_campaign_failed", "Failed to fetch campaign")
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}

// ListCampaigns handles GET /api/v1/campaigns
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	p := parsePaginationParams(r, 20, 100)

	filter := interfaces.CampaignFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
		Limit:  p.limit,
		Offset: p.offset,
	}

	campaigns, err := h.repo.List(r.Context(), filter)
	if err != nil {
		log.Println("list campaigns:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_campaigns_failed", "Failed to list campaigns")
		return
	}

	writePaginatedResponse(w, http.StatusOK, campaigns, int64(len(campaigns)), p)
}

// UpdateCampaign handles PUT /api/v1/campaigns/{id}
func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	var req models.UpdateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	campaign, err := h.repo.GetByID(r.Context(), campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Campaign not found")
			return
		}
		log.Println("update campaign fetch:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "update_campaign_failed", "Failed to fetch campaign")
		return
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Description != nil {
		campaign.Description = *req.Description
	}
	if req.Status != nil {
		campaign.Status = models.CampaignStatus(*req.Status)
	}
	if req.StartDate != nil {
		campaign.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		campaign.EndDate = *req.EndDate
	}
	if req.DefaultDisplayTime != nil {
		campaign.DefaultDisplayTime = *req.DefaultDisplayTime
	}
	if req.Branches != nil {
		campaign.Branches = *req.Branches
	}
	if req.Regions != nil {
		campaign.Regions = *req.Regions
	}
	if req.Stations != nil {
		campaign.Stations = *req.Stations
	}
	if req.Priority != nil {
		campaign.Priority = *req.Priority
	}

	if !campaign.EndDate.After(campaign.StartDate) {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", "end_date must be after start_date")
		return
	}
	if code, msg := validateTargeting(campaign.Branches, campaign.Regions, campaign.Stations); code != "" {
		writeJSONErrorResponse(w, http.StatusUnprocessableEntity, code, msg)
		return
	}

	campaign.UpdatedAt = time.Now().UTC()
	if err := h.repo.Update(r.Context(), campaignID, campaign); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Campaign not found")
			return
		}
		log.Println("update campaign:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "update_campaign_failed", "Failed to update campaign")
		return
	}

	h.cache.InvalidateStationResults(r.Context())

	writeJSON(w, http.StatusOK, campaign)
}

// DeleteCampaign handles DELETE /api/v1/campaigns/{id}
func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	if err := h.repo.SoftDelete(r.Context(), campaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Campaign not found")
			return
		}
		log.Println("delete campaign:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "delete_campaign_failed", "Failed to delete campaign")
		return
	}

	h.cache.InvalidateStationResults(r.Context())

	writeJSONMessage(w, http.StatusOK, "Campaign deleted")
}

// ListActiveCampaigns handles GET /api/v1/campaigns/active
func (h *CampaignHandler) ListActiveCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.repo.ActiveCampaigns(r.Context(), time.Now().UTC())
	if err != nil {
		log.Println("list active campaigns:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_active_failed", "Failed to list active campaigns")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": campaigns,
		"total": len(campaigns),
	})
}

// stationResolution is the dashboard view of a resolution: campaigns with
// their matched targeting tier, no image payloads.
type stationResolution struct {
	StationCode string             `json:"station_code"`
	BranchCode  *string            `json:"branch_code"`
	Region      *string            `json:"region"`
	Campaigns   []resolvedCampaign `json:"campaigns"`
	Total       int                `json:"total"`
	Timestamp   time.Time          `json:"timestamp"`
}

type resolvedCampaign struct {
	*models.Campaign
	TargetingLevel targeting.Level `json:"targeting_level"`
}

// ActiveByStation handles GET /api/v1/campaigns/active/{code}.
// It runs the targeting resolver for one station and reports which tier
// each campaign matched at.
func (h *CampaignHandler) ActiveByStation(w http.ResponseWriter, r *http.Request) {
	stationCode := chi.URLParam(r, "code")
	start := time.Now()

	cacheKey := cache.ActiveByStationPrefix + stationCode
	var cached stationResolution
	if h.cache.Get(r.Context(), cacheKey, &cached) {
		metrics.RecordCacheHit("dashboard")
		metrics.ObserveResolve("dashboard", start, nil)
		writeJSON(w, http.StatusOK, &cached)
		return
	}
	metrics.RecordCacheMiss("dashboard")

	res, err := h.resolver.Resolve(r.Context(), stationCode, time.Now().UTC())
	metrics.ObserveResolve("dashboard", start, err)
	if err != nil {
		log.Println("resolve station:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "resolve_failed", "Failed to resolve campaigns for station")
		return
	}

	out := stationResolution{
		StationCode: res.StationCode,
		BranchCode:  res.BranchCode,
		Region:      res.Region,
		Campaigns:   make([]resolvedCampaign, 0, len(res.Campaigns)),
		Total:       len(res.Campaigns),
		Timestamp:   res.Timestamp,
	}
	for _, rc := range res.Campaigns {
		out.Campaigns = append(out.Campaigns, resolvedCampaign{Campaign: rc.Campaign, TargetingLevel: rc.Level})
	}

	h.cache.Set(r.Context(), cacheKey, &out)

	writeJSON(w, http.StatusOK, &out)
}
