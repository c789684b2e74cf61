package interfaces

import (
	"context"
	"time"

	"i9campaigns/internal/models"
)

// CampaignFilter defines the filter criteria for listing campaigns
type CampaignFilter struct {
	Status         string
	Search         string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// CampaignRepository defines the interface for campaign data operations.
// ActiveCampaigns is the catalog feed of the targeting resolver.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]*models.Campaign, error)
	ActiveCampaigns(ctx context.Context, now time.Time) ([]*models.Campaign, error)
	Update(ctx context.Context, id string, campaign *models.Campaign) error
	SoftDelete(ctx context.Context, id string) error
}
