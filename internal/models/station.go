package models

import "time"

// Station is a single checkout terminal location. Its code is unique only
// within the owning branch; region and branch code are always resolved
// through the branch.
type Station struct {
	ID        string    `json:"id"`
	Code      string    `json:"code" validate:"required,max=10"`
	Name      string    `json:"name" validate:"required"`
	BranchID  string    `json:"branch_id" validate:"required,uuid4"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StationLocation is the resolved identity of a station used by the
// targeting resolver: the owning branch's code and derived region.
type StationLocation struct {
	StationID  string
	Code       string
	BranchCode string
	Region     string
}

type CreateStationRequest struct {
	Code     string `json:"code" validate:"required,max=10"`
	Name     string `json:"name" validate:"required"`
	BranchID string `json:"branch_id" validate:"required,uuid4"`
	Address  string `json:"address"`
}

type UpdateStationRequest struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
}
