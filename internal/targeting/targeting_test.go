package targeting

import (
	"errors"
	"testing"

	"i9campaigns/internal/models"
)

func TestClassifyLevels(t *testing.T) {
	cases := []struct {
		name     string
		branches []string
		regions  []string
		stations []string
		want     Level
	}{
		{"all empty is global", nil, nil, nil, LevelGlobal},
		{"only regions is regional", nil, []string{"Sul"}, nil, LevelRegional},
		{"branches without stations is branch", []string{"010101"}, nil, nil, LevelBranch},
		{"branches and regions still branch", []string{"010101"}, []string{"Sul"}, nil, LevelBranch},
		{"branches and stations is station", []string{"010101"}, nil, []string{"001"}, LevelStation},
		{"all three populated is station", []string{"010101"}, []string{"Sul"}, []string{"001"}, LevelStation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := Classify(&models.Campaign{
				ID:       "c1",
				Branches: tc.branches,
				Regions:  tc.regions,
				Stations: tc.stations,
			})
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if rule.Level() != tc.want {
				t.Errorf("level = %q, want %q", rule.Level(), tc.want)
			}
		})
	}
}

func TestClassifyRejectsStationsWithoutBranches(t *testing.T) {
	for _, regions := range [][]string{nil, {"Sudeste"}} {
		_, err := Classify(&models.Campaign{
			ID:       "c-bad",
			Regions:  regions,
			Stations: []string{"001"},
		})
		if err == nil {
			t.Fatalf("expected error for stations without branches (regions=%v)", regions)
		}
		var invalid *InvalidTargetingError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidTargetingError, got %T", err)
		}
		if invalid.CampaignID != "c-bad" {
			t.Errorf("campaign id = %q, want c-bad", invalid.CampaignID)
		}
	}
}

func TestRulesRequireResolvedLocation(t *testing.T) {
	campaigns := []*models.Campaign{
		{ID: "regional", Regions: []string{"Sudeste"}},
		{ID: "branch", Branches: []string{"SP01"}},
		{ID: "station", Branches: []string{"SP01"}, Stations: []string{"001"}},
	}
	for _, c := range campaigns {
		rule, err := Classify(c)
		if err != nil {
			t.Fatalf("Classify(%s): %v", c.ID, err)
		}
		if rule.Matches(nil, "001") {
			t.Errorf("%s rule matched with nil location", c.ID)
		}
	}

	global, err := Classify(&models.Campaign{ID: "global"})
	if err != nil {
		t.Fatalf("Classify(global): %v", err)
	}
	if !global.Matches(nil, "001") {
		t.Error("global rule must match with nil location")
	}
}

func TestStationRuleChecksBranchMembership(t *testing.T) {
	rule, err := Classify(&models.Campaign{
		ID:       "c1",
		Branches: []string{"010101"},
		Stations: []string{"001"},
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	wrongBranch := &models.StationLocation{Code: "001", BranchCode: "020202", Region: "Sudeste"}
	if rule.Matches(wrongBranch, "001") {
		t.Error("matched station 001 in a branch outside the target list")
	}

	rightBranch := &models.StationLocation{Code: "001", BranchCode: "010101", Region: "Sudeste"}
	if !rule.Matches(rightBranch, "001") {
		t.Error("did not match station 001 in targeted branch 010101")
	}
	if rule.Matches(rightBranch, "002") {
		t.Error("matched a station code outside the target list")
	}
}
