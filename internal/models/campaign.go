package models

import "time"

type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusExpired   CampaignStatus = "expired"
)

// DefaultDisplayTimeMS is the fallback per-image display time when neither
// the image nor the campaign carries one.
const DefaultDisplayTimeMS = 5000

type Campaign struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name" validate:"required"`
	Description        string         `json:"description,omitempty"`
	Status             CampaignStatus `json:"status"`
	StartDate          time.Time      `json:"start_date" validate:"required"`
	EndDate            time.Time      `json:"end_date" validate:"required,gtfield=StartDate"`
	DefaultDisplayTime int            `json:"default_display_time"`
	// Targeting arrays. All three empty means the campaign is global.
	Branches  []string  `json:"branches"`
	Regions   []string  `json:"regions"`
	Stations  []string  `json:"stations"`
	Priority  int       `json:"priority"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedBy *string   `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayableAt reports whether the campaign may be shown at the given
// instant: not soft-deleted, stored status active, and now inside the
// inclusive [StartDate, EndDate] window. Stored status and computed date
// validity are ANDed; a paused campaign with valid dates stays hidden.
func (c *Campaign) DisplayableAt(now time.Time) bool {
	if c.IsDeleted || c.Status != CampaignStatusActive {
		return false
	}
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

type CreateCampaignRequest struct {
	Name               string    `json:"name" validate:"required"`
	Description        string    `json:"description"`
	Status             string    `json:"status" validate:"omitempty,oneof=active scheduled paused expired"`
	StartDate          time.Time `json:"start_date" validate:"required"`
	EndDate            time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	DefaultDisplayTime int       `json:"default_display_time" validate:"omitempty,gt=0"`
	Branches           []string  `json:"branches"`
	Regions            []string  `json:"regions"`
	Stations           []string  `json:"stations"`
	Priority           int       `json:"priority"`
}

type UpdateCampaignRequest struct {
	Name               *string    `json:"name,omitempty"`
	Description        *string    `json:"description,omitempty"`
	Status             *string    `json:"status,omitempty" validate:"omitempty,oneof=active scheduled paused expired"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	DefaultDisplayTime *int       `json:"default_display_time,omitempty" validate:"omitempty,gt=0"`
	Branches           *[]string  `json:"branches,omitempty"`
	Regions            *[]string  `json:"regions,omitempty"`
	Stations           *[]string  `json:"stations,omitempty"`
	Priority           *int       `json:"priority,omitempty"`
}
