// internal/handlers/tablet_handler.go
package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"i9campaigns/internal/cache"
	"i9campaigns/internal/interfaces"
	"i9campaigns/internal/metrics"
	"i9campaigns/internal/repository"
	"i9campaigns/internal/targeting"
)

// TabletHandler serves the terminal-facing endpoints. These carry full image
// payloads and are protected by the static API key, not JWT.
type TabletHandler struct {
	resolver  *targeting.Resolver
	assembler *targeting.Assembler
	campaigns interfaces.CampaignRepository
	images    repository.ImageRepository
	cache     *cache.Cache
}

func NewTabletHandler(resolver *targeting.Resolver, assembler *targeting.Assembler, campaigns interfaces.CampaignRepository, images repository.ImageRepository, c *cache.Cache) *TabletHandler {
	return &TabletHandler{
		resolver:  resolver,
		assembler: assembler,
		campaigns: campaigns,
		images:    images,
		cache:     c,
	}
}

// tabletCampaign is one campaign in a tablet response, images inline.
type tabletCampaign struct {
	ID                 string                   `json:"id"`
	Name               string                   `json:"name"`
	Description        string                   `json:"description,omitempty"`
	Priority           int                      `json:"priority"`
	TargetingLevel     targeting.Level          `json:"targeting_level"`
	DefaultDisplayTime int                      `json:"default_display_time"`
	StartDate          time.Time                `json:"start_date"`
	EndDate            time.Time                `json:"end_date"`
	Images             []targeting.ImageContent `json:"images"`
}

type tabletResolution struct {
	StationCode string           `json:"station_code"`
	BranchCode  *string          `json:"branch_code"`
	Region      *string          `json:"region"`
	Campaigns   []tabletCampaign `json:"campaigns"`
	Total       int              `json:"total"`
	Timestamp   time.Time        `json:"timestamp"`
	CacheTTL    int              `json:"cache_ttl"`
}

func (h *TabletHandler) toTabletCampaigns(contents []targeting.CampaignContent) []tabletCampaign {
	out := make([]tabletCampaign, 0, len(contents))
	for _, content := range contents {
		c := content.Campaign
		out = append(out, tabletCampaign{
			ID:                 c.ID,
			Name:               c.Name,
			Description:        c.Description,
			Priority:           c.Priority,
			TargetingLevel:     content.Level,
			DefaultDisplayTime: c.DefaultDisplayTime,
			StartDate:          c.StartDate,
			EndDate:            c.EndDate,
			Images:             content.Images,
		})
	}
	return out
}

// ActiveForStation handles GET /api/tablets/active/{code}
func (h *TabletHandler) ActiveForStation(w http.ResponseWriter, r *http.Request) {
	stationCode := chi.URLParam(r, "code")
	start := time.Now()

	cacheKey := cache.TabletsActivePrefix + stationCode
	var cached tabletResolution
	if h.cache.Get(r.Context(), cacheKey, &cached) {
		metrics.RecordCacheHit("tablet")
		metrics.ObserveResolve("tablet", start, nil)
		writeJSON(w, http.StatusOK, &cached)
		return
	}
	metrics.RecordCacheMiss("tablet")

	res, err := h.resolver.Resolve(r.Context(), stationCode, time.Now().UTC())
	metrics.ObserveResolve("tablet", start, err)
	if err != nil {
		log.Println("tablet resolve:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "resolve_failed", "Failed to resolve campaigns for station")
		return
	}

	contents := h.assembler.Attach(r.Context(), res)

	out := tabletResolution{
		StationCode: res.StationCode,
		BranchCode:  res.BranchCode,
		Region:      res.Region,
		Campaigns:   h.toTabletCampaigns(contents),
		Total:       len(contents),
		Timestamp:   res.Timestamp,
		CacheTTL:    int(h.cache.TTL().Seconds()),
	}

	h.cache.Set(r.Context(), cacheKey, &out)

	writeJSON(w, http.StatusOK, &out)
}

// AllActive handles GET /api/tablets/active. It returns every
// displayable campaign regardless of targeting, for terminals that fall back
// to unscoped playback.
func (h *TabletHandler) AllActive(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	campaigns, err := h.campaigns.ActiveCampaigns(r.Context(), now)
	if err != nil {
		log.Println("tablet all active:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_active_failed", "Failed to list active campaigns")
		return
	}

	res := &targeting.Resolution{Timestamp: now}
	for _, c := range campaigns {
		res.Campaigns = append(res.Campaigns, targeting.ResolvedCampaign{Campaign: c, Level: targeting.LevelGlobal})
	}
	contents := h.assembler.Attach(r.Context(), res)

	writeJSON(w, http.StatusOK, map[string]any{
		"campaigns": h.toTabletCampaigns(contents),
		"total":     len(contents),
		"timestamp": now,
		"cache_ttl": int(h.cache.TTL().Seconds()),
	})
}

// GetImage handles GET /api/tablets/images/{id}. It answers conditional
// requests with the image checksum as ETag and redirects to the stored URL
// only while the owning campaign is displayable.
func (h *TabletHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "id")

	etag := `"` + targeting.ImageChecksum(imageID) + `"`
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	img, err := h.images.GetByID(r.Context(), imageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Image not found")
			return
		}
		log.Println("tablet get image:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "get_image_failed", "Failed to fetch image")
		return
	}
	if !img.Active {
		writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Image not found")
		return
	}

	campaign, err := h.campaigns.GetByID(r.Context(), img.CampaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Image not found")
			return
		}
		log.Println("tablet get image campaign:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "get_image_failed", "Failed to fetch image")
		return
	}
	if !campaign.DisplayableAt(time.Now().UTC()) {
		writeJSONErrorResponse(w, http.StatusGone, "campaign_inactive", "Campaign is no longer displayable")
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.Redirect(w, r, img.URL, http.StatusFound)
}
