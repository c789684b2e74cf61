package targeting

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"i9campaigns/internal/models"
)

// ErrStationNotFound is returned by a LocationDirectory when no active
// station matches the requested code. The resolver treats it as "location
// unknown" and degrades to global-only targeting.
var ErrStationNotFound = errors.New("station not found")

// LocationDirectory resolves an active station code to its branch code and
// derived region.
type LocationDirectory interface {
	ResolveStation(ctx context.Context, code string) (*models.StationLocation, error)
}

// CampaignCatalog returns every candidate campaign at the given instant:
// not soft-deleted, stored status active, and start_date <= now <= end_date.
// Ordering is not part of the contract; the resolver ranks on its own.
type CampaignCatalog interface {
	ActiveCampaigns(ctx context.Context, now time.Time) ([]*models.Campaign, error)
}

// ImageSource returns a campaign's active images ordered by display order.
type ImageSource interface {
	ActiveImages(ctx context.Context, campaignID string) ([]*models.CampaignImage, error)
}

// ResolvedCampaign pairs a matched campaign with the tier it matched at.
type ResolvedCampaign struct {
	Campaign *models.Campaign
	Level    Level
}

// Resolution is the outcome of resolving one station at one instant.
// BranchCode and Region are nil when the station is unknown.
type Resolution struct {
	StationCode string
	BranchCode  *string
	Region      *string
	Campaigns   []ResolvedCampaign
	Timestamp   time.Time
}

// Resolver computes the ordered campaign set for a station. It owns no
// state beyond its two collaborators and is safe for concurrent use.
type Resolver struct {
	directory LocationDirectory
	catalog   CampaignCatalog
}

func NewResolver(directory LocationDirectory, catalog CampaignCatalog) *Resolver {
	return &Resolver{directory: directory, catalog: catalog}
}

// Resolve returns the ranked, deduplicated campaigns for stationCode at now.
// An unknown station is not an error: the result then carries only global
// campaigns and nil branch/region. A catalog failure is the only error
// surfaced to the caller.
func (r *Resolver) Resolve(ctx context.Context, stationCode string, now time.Time) (*Resolution, error) {
	loc, err := r.directory.ResolveStation(ctx, stationCode)
	if err != nil {
		if !errors.Is(err, ErrStationNotFound) {
			// Location lookup failures degrade the same way an unknown
			// station does; the terminal still gets its global campaigns.
			log.Printf("targeting: resolve station %q: %v", stationCode, err)
		}
		loc = nil
	}

	candidates, err := r.catalog.ActiveCampaigns(ctx, now)
	if err != nil {
		return nil, err
	}

	var matched []ResolvedCampaign
	for _, c := range candidates {
		rule, err := Classify(c)
		if err != nil {
			log.Printf("targeting: excluding campaign: %v", err)
			continue
		}
		if rule.Matches(loc, stationCode) {
			matched = append(matched, ResolvedCampaign{Campaign: c, Level: rule.Level()})
		}
	}

	rank(matched)
	matched = dedupe(matched)

	res := &Resolution{
		StationCode: stationCode,
		Campaigns:   matched,
		Timestamp:   now,
	}
	if loc != nil {
		res.BranchCode = &loc.BranchCode
		res.Region = &loc.Region
	}
	return res, nil
}

// rank orders campaigns by priority descending, ties broken by newer
// creation time first.
func rank(campaigns []ResolvedCampaign) {
	sort.SliceStable(campaigns, func(i, j int) bool {
		a, b := campaigns[i].Campaign, campaigns[j].Campaign
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// dedupe keeps the first (highest-ranked) occurrence of each campaign id.
// The current rules are mutually exclusive, so duplicates should not occur;
// this guards the ranking against malformed data all the same.
func dedupe(campaigns []ResolvedCampaign) []ResolvedCampaign {
	seen := make(map[string]struct{}, len(campaigns))
	out := campaigns[:0]
	for _, rc := range campaigns {
		if _, dup := seen[rc.Campaign.ID]; dup {
			continue
		}
		seen[rc.Campaign.ID] = struct{}{}
		out = append(out, rc)
	}
	return out
}
