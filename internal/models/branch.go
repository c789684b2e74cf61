package models

import "time"

type Branch struct {
	ID        string    `json:"id"`
	Code      string    `json:"code" validate:"required,max=10"`
	Name      string    `json:"name" validate:"required"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state" validate:"required,len=2"`
	Region    string    `json:"region"` // derived from State, never stored
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BranchWithStations includes the branch's stations for detail views.
type BranchWithStations struct {
	Branch
	Stations []Station `json:"stations"`
}

type CreateBranchRequest struct {
	Code  string `json:"code" validate:"required,max=10"`
	Name  string `json:"name" validate:"required"`
	City  string `json:"city"`
	State string `json:"state" validate:"required,len=2"`
}

type UpdateBranchRequest struct {
	Name  *string `json:"name,omitempty"`
	City  *string `json:"city,omitempty"`
	State *string `json:"state,omitempty" validate:"omitempty,len=2"`
}
