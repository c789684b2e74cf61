package models

import "time"

type CampaignImage struct {
	ID               string  `json:"id"`
	CampaignID       string  `json:"campaign_id"`
	Filename         string  `json:"filename"`
	OriginalFilename string  `json:"original_filename,omitempty"`
	URL              string  `json:"url"`
	Order            int     `json:"order"`
	// DisplayTime overrides the campaign default when set.
	DisplayTime *int    `json:"display_time,omitempty"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Active      bool    `json:"active"`
	SizeBytes   int64   `json:"size_bytes,omitempty"`
	MimeType    string  `json:"mime_type,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EffectiveDisplayTime resolves the per-image display time against the
// campaign default.
func (img *CampaignImage) EffectiveDisplayTime(campaignDefault int) int {
	if img.DisplayTime != nil && *img.DisplayTime > 0 {
		return *img.DisplayTime
	}
	if campaignDefault > 0 {
		return campaignDefault
	}
	return DefaultDisplayTimeMS
}

type UpdateImageRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DisplayTime *int    `json:"display_time,omitempty" validate:"omitempty,gt=0"`
	Active      *bool   `json:"active,omitempty"`
}

type ReorderImagesRequest struct {
	Order []string `json:"order" validate:"required,min=1"`
}
