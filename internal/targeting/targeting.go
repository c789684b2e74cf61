// Package targeting implements the campaign targeting resolver: given a
// station code and a point in time, it computes the ranked, deduplicated
// set of campaigns a terminal should display.
//
// A campaign targets one of four tiers, derived from which of its targeting
// arrays are populated: global (everything empty), regional, branch-wide,
// or station-specific. The tier is classified once per campaign into a Rule
// value; combinations outside the four tiers are rejected at classification
// time instead of silently falling through.
package targeting

import (
	"fmt"

	"i9campaigns/internal/models"
)

type Level string

const (
	LevelGlobal   Level = "global"
	LevelRegional Level = "regional"
	LevelBranch   Level = "branch"
	LevelStation  Level = "station"
)

// Rule is a campaign's classified targeting. Matches is a pure predicate
// over the requesting station's resolved location; loc is nil when the
// station is unknown, in which case only the global rule matches.
type Rule interface {
	Level() Level
	Matches(loc *models.StationLocation, stationCode string) bool
}

// InvalidTargetingError reports a targeting-array combination outside the
// four supported tiers, e.g. stations populated without branches. Such a
// campaign is excluded from resolution, never an aborted request.
type InvalidTargetingError struct {
	CampaignID string
}

func (e *InvalidTargetingError) Error() string {
	return fmt.Sprintf("campaign %s: targeting arrays do not form a valid tier", e.CampaignID)
}

type globalRule struct{}

func (globalRule) Level() Level { return LevelGlobal }

func (globalRule) Matches(*models.StationLocation, string) bool { return true }

type regionalRule struct {
	regions map[string]struct{}
}

func (regionalRule) Level() Level { return LevelRegional }

func (r regionalRule) Matches(loc *models.StationLocation, _ string) bool {
	if loc == nil {
		return false
	}
	_, ok := r.regions[loc.Region]
	return ok
}

type branchRule struct {
	branches map[string]struct{}
}

func (branchRule) Level() Level { return LevelBranch }

func (r branchRule) Matches(loc *models.StationLocation, _ string) bool {
	if loc == nil {
		return false
	}
	_, ok := r.branches[loc.BranchCode]
	return ok
}

type stationRule struct {
	branches map[string]struct{}
	stations map[string]struct{}
}

func (stationRule) Level() Level { return LevelStation }

func (r stationRule) Matches(loc *models.StationLocation, stationCode string) bool {
	if loc == nil {
		return false
	}
	if _, ok := r.branches[loc.BranchCode]; !ok {
		return false
	}
	// Exact match on the requested code. A station code alone is not
	// enough: codes repeat across branches, so branch membership is
	// checked first.
	_, ok := r.stations[stationCode]
	return ok
}

// Classify derives a campaign's targeting rule from its array population.
// Precedence, first match wins:
//
//	1. all arrays empty             -> global
//	2. only regions populated       -> regional
//	3. branches without stations    -> branch
//	4. branches with stations       -> station
//
// Anything else (stations without branches, with or without regions) is an
// InvalidTargetingError.
func Classify(c *models.Campaign) (Rule, error) {
	hasBranches := len(c.Branches) > 0
	hasRegions := len(c.Regions) > 0
	hasStations := len(c.Stations) > 0

	switch {
	case !hasBranches && !hasRegions && !hasStations:
		return globalRule{}, nil
	case hasRegions && !hasBranches && !hasStations:
		return regionalRule{regions: toSet(c.Regions)}, nil
	case hasBranches && !hasStations:
		return branchRule{branches: toSet(c.Branches)}, nil
	case hasBranches && hasStations:
		return stationRule{branches: toSet(c.Branches), stations: toSet(c.Stations)}, nil
	default:
		return nil, &InvalidTargetingError{CampaignID: c.ID}
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
